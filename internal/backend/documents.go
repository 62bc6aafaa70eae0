package backend

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// Wire documents mirror what a document-store backed service sends: ids as
// "_id", order users either bare or populated, profiles as extended JSON.

type productDoc struct {
	ID          primitive.ObjectID `json:"_id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Price       decimal.Decimal    `json:"price"`
	Images      []string           `json:"images"`
	Stock       int                `json:"stock"`
}

func toProductDoc(p repository.ProductRecord) productDoc {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return productDoc{ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price, Images: images, Stock: p.Stock}
}

// cart lines carry no productId; clients read it from the product snapshot
type cartLineDoc struct {
	Product   productDoc      `json:"product"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type cartDoc struct {
	Items           []cartLineDoc   `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryCharge  decimal.Decimal `json:"deliveryCharge"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	TotalPayable    decimal.Decimal `json:"totalPayable"`
}

func toCartDoc(q *Quote) cartDoc {
	d := cartDoc{
		Items:           make([]cartLineDoc, 0, len(q.Lines)),
		Subtotal:        q.Subtotal,
		DeliveryCharge:  q.DeliveryCharge,
		DiscountPercent: q.DiscountPercent,
		DiscountAmount:  q.DiscountAmount,
		TotalPayable:    q.TotalPayable,
	}
	for _, l := range q.Lines {
		d.Items = append(d.Items, cartLineDoc{Product: toProductDoc(l.Product), Qty: l.Qty, LineTotal: l.LineTotal})
	}
	return d
}

type orderLineDoc struct {
	ProductID primitive.ObjectID `json:"productId"`
	Product   primitive.ObjectID `json:"product"`
	Name      string             `json:"name"`
	Price     decimal.Decimal    `json:"price"`
	Qty       int                `json:"qty"`
	LineTotal decimal.Decimal    `json:"lineTotal"`
}

type orderDoc struct {
	ID             primitive.ObjectID `json:"_id"`
	User           any                `json:"user"`
	Status         domain.OrderStatus `json:"status"`
	PaymentMethod  string             `json:"paymentMethod"`
	Items          []orderLineDoc     `json:"items"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DeliveryCharge decimal.Decimal    `json:"deliveryCharge"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
	TotalPayable   decimal.Decimal    `json:"totalPayable"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// populatedUser is the order user as embedded in listings.
type populatedUser struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Phone string             `json:"phone,omitempty"`
}

// toOrderDoc renders o with user as the bare id, or populated when u is set.
func toOrderDoc(o repository.OrderRecord, u *repository.UserRecord) orderDoc {
	d := orderDoc{
		ID:             o.ID,
		User:           o.UserID,
		Status:         o.Status,
		PaymentMethod:  o.PaymentMethod,
		Items:          make([]orderLineDoc, 0, len(o.Lines)),
		Subtotal:       o.Subtotal,
		DeliveryCharge: o.DeliveryCharge,
		DiscountAmount: o.DiscountAmount,
		TotalPayable:   o.TotalPayable,
		CreatedAt:      o.CreatedAt,
	}
	if u != nil {
		d.User = populatedUser{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
	}
	for _, l := range o.Lines {
		d.Items = append(d.Items, orderLineDoc{
			ProductID: l.ProductID,
			Product:   l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Qty:       l.Qty,
			LineTotal: l.Total(),
		})
	}
	return d
}

// userDoc is the user returned by login and register. Accounts flagged only
// by isAdmin carry no role.
type userDoc struct {
	ID      primitive.ObjectID `json:"_id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Role    string             `json:"role,omitempty"`
	IsAdmin bool               `json:"isAdmin"`
}

func toUserDoc(u *repository.UserRecord) userDoc {
	return userDoc{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, IsAdmin: u.IsAdmin}
}

// profileDocument renders u as relaxed extended JSON, so the id arrives as
// {"$oid": "..."}.
func profileDocument(u *repository.UserRecord) (json.RawMessage, error) {
	doc := bson.D{
		{Key: "_id", Value: u.ID},
		{Key: "name", Value: u.Name},
		{Key: "email", Value: u.Email},
		{Key: "phone", Value: u.Phone},
		{Key: "isAdmin", Value: u.IsAdmin},
	}
	if u.Role != "" {
		doc = append(doc, bson.E{Key: "role", Value: u.Role})
	}
	if !u.Address.IsZero() {
		doc = append(doc, bson.E{Key: "address", Value: u.Address})
	}
	b, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
