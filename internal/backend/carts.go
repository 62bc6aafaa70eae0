package backend

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/repository"
)

var (
	ErrInvalidQty     = errors.New("quantity must be at least 1")
	ErrItemNotInCart  = errors.New("item not found in cart")
	ErrNotEnoughStock = errors.New("not enough stock")
)

// Pricing holds the cart-level charges. Delivery applies to non-empty carts
// only; the discount is a percentage of the subtotal.
type Pricing struct {
	DeliveryCharge  decimal.Decimal
	DiscountPercent decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		DeliveryCharge:  decimal.NewFromInt(60),
		DiscountPercent: decimal.NewFromInt(10),
	}
}

// PricedLine is a cart line joined with its product.
type PricedLine struct {
	Product   repository.ProductRecord
	Qty       int
	LineTotal decimal.Decimal
}

// Quote is a priced cart.
type Quote struct {
	Lines           []PricedLine
	Subtotal        decimal.Decimal
	DeliveryCharge  decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TotalPayable    decimal.Decimal
}

func (p Pricing) quote(lines []PricedLine) Quote {
	q := Quote{Lines: lines, DiscountPercent: p.DiscountPercent}
	for _, l := range lines {
		q.Subtotal = q.Subtotal.Add(l.LineTotal)
	}
	if len(lines) > 0 {
		q.DeliveryCharge = p.DeliveryCharge
	}
	q.DiscountAmount = q.Subtotal.Mul(p.DiscountPercent).Div(decimal.NewFromInt(100)).Round(2)
	q.TotalPayable = q.Subtotal.Add(q.DeliveryCharge).Sub(q.DiscountAmount)
	return q
}

// Carts реализует корзину пользователя поверх репозиториев
type Carts struct {
	products repository.ProductRepository
	carts    repository.CartRepository
	tx       repository.TxManager
	pricing  Pricing
}

func NewCarts(products repository.ProductRepository, carts repository.CartRepository, tx repository.TxManager, pricing Pricing) *Carts {
	return &Carts{products: products, carts: carts, tx: tx, pricing: pricing}
}

// View prices the user's cart. Lines whose product has been deleted are
// dropped.
func (s *Carts) View(ctx context.Context, userID primitive.ObjectID) (*Quote, error) {
	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	priced := make([]PricedLine, 0, len(lines))
	for _, l := range lines {
		p, err := s.products.GetByID(ctx, l.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		priced = append(priced, PricedLine{
			Product:   *p,
			Qty:       l.Qty,
			LineTotal: p.Price.Mul(decimal.NewFromInt(int64(l.Qty))),
		})
	}
	q := s.pricing.quote(priced)
	return &q, nil
}

// AddItem adds qty units, merging with an existing line for the product.
func (s *Carts) AddItem(ctx context.Context, userID, productID primitive.ObjectID, qty int) error {
	if qty < 1 {
		return ErrInvalidQty
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetByID(ctx, productID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		lines, err := s.carts.Lines(ctx, userID)
		if err != nil {
			return err
		}
		found := false
		for i := range lines {
			if lines[i].ProductID == productID {
				lines[i].Qty += qty
				qty = lines[i].Qty
				found = true
				break
			}
		}
		if p.Stock < qty {
			return ErrNotEnoughStock
		}
		if !found {
			lines = append(lines, repository.CartLine{ProductID: productID, Qty: qty})
		}
		return s.carts.Save(ctx, userID, lines)
	})
}

// SetQty replaces the quantity of an existing line.
func (s *Carts) SetQty(ctx context.Context, userID, productID primitive.ObjectID, qty int) error {
	if qty < 1 {
		return ErrInvalidQty
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		lines, err := s.carts.Lines(ctx, userID)
		if err != nil {
			return err
		}
		idx := lineIndex(lines, productID)
		if idx < 0 {
			return ErrItemNotInCart
		}
		if p, err := s.products.GetByID(ctx, productID); err == nil && p.Stock < qty {
			return ErrNotEnoughStock
		}
		lines[idx].Qty = qty
		return s.carts.Save(ctx, userID, lines)
	})
}

func (s *Carts) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		lines, err := s.carts.Lines(ctx, userID)
		if err != nil {
			return err
		}
		idx := lineIndex(lines, productID)
		if idx < 0 {
			return ErrItemNotInCart
		}
		lines = append(lines[:idx], lines[idx+1:]...)
		return s.carts.Save(ctx, userID, lines)
	})
}

func (s *Carts) Clear(ctx context.Context, userID primitive.ObjectID) error {
	return s.carts.Clear(ctx, userID)
}

func lineIndex(lines []repository.CartLine, productID primitive.ObjectID) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
