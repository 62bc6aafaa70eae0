package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique field (user email) is taken.
var ErrDuplicate = errors.New("already exists")

// UserRecord is a stored account. Role keeps whatever the account was created
// with ("user", "admin", or empty for accounts that only carry IsAdmin).
type UserRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Phone        string             `bson:"phone,omitempty"`
	Address      domain.Address     `bson:"address,omitempty"`
	Role         string             `bson:"role,omitempty"`
	IsAdmin      bool               `bson:"isAdmin"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

// ProductRecord is a stored catalogue entry.
type ProductRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	Price       decimal.Decimal    `bson:"price"`
	Images      []string           `bson:"images,omitempty"`
	Stock       int                `bson:"stock"`
}

// CartLine is one stored cart line.
type CartLine struct {
	ProductID primitive.ObjectID `bson:"product"`
	Qty       int                `bson:"qty"`
}

// OrderLine freezes the product as it was at checkout.
type OrderLine struct {
	ProductID primitive.ObjectID `bson:"product"`
	Name      string             `bson:"name"`
	Price     decimal.Decimal    `bson:"price"`
	Qty       int                `bson:"qty"`
}

func (l OrderLine) Total() decimal.Decimal { return l.Price.Mul(decimal.NewFromInt(int64(l.Qty))) }

// OrderRecord is a stored order with its pricing frozen.
type OrderRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         primitive.ObjectID `bson:"user"`
	Status         domain.OrderStatus `bson:"status"`
	PaymentMethod  string             `bson:"paymentMethod"`
	Lines          []OrderLine        `bson:"items"`
	Subtotal       decimal.Decimal    `bson:"subtotal"`
	DeliveryCharge decimal.Decimal    `bson:"deliveryCharge"`
	DiscountAmount decimal.Decimal    `bson:"discountAmount"`
	TotalPayable   decimal.Decimal    `bson:"totalPayable"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	NameSubstring string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
}

// OrderFilter restricts an order listing to one user; a nil UserID lists all.
type OrderFilter struct {
	UserID *primitive.ObjectID
	Page   int
	Limit  int
}

type UserRepository interface {
	Create(ctx context.Context, u *UserRecord) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*UserRecord, error)
	GetByEmail(ctx context.Context, email string) (*UserRecord, error)
	Update(ctx context.Context, u *UserRecord) error
}

// ProductRepository интерфейс репозитория товаров
type ProductRepository interface {
	Create(ctx context.Context, p *ProductRecord) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*ProductRecord, error)
	Update(ctx context.Context, p *ProductRecord) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, f ProductFilter) ([]ProductRecord, error)
}

// CartRepository stores one cart per user. A user without a cart has an
// empty one.
type CartRepository interface {
	Lines(ctx context.Context, userID primitive.ObjectID) ([]CartLine, error)
	Save(ctx context.Context, userID primitive.ObjectID, lines []CartLine) error
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	Create(ctx context.Context, o *OrderRecord) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*OrderRecord, error)
	Update(ctx context.Context, o *OrderRecord) error
	// List returns one page, newest first, and the total number of matches.
	List(ctx context.Context, f OrderFilter) ([]OrderRecord, int, error)
}

// TxManager абстракция транзакции. Для in-memory — глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProfileCache stores profile lookups by canonical user id.
type ProfileCache interface {
	Get(ctx context.Context, id domain.EntityID) (*domain.ProfileEntry, bool, error)
	Set(ctx context.Context, e *domain.ProfileEntry) error
	Clear(ctx context.Context) error
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
