package backend

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrNoPaymentMethod  = errors.New("payment method is required")
	ErrInvalidState     = errors.New("invalid state")
	ErrOrderNotFound    = errors.New("order not found")
	ErrForbidden        = errors.New("access denied")
	ErrUnknownPayMethod = errors.New("unsupported payment method")
)

var paymentMethods = map[string]bool{"cod": true, "card": true, "upi": true}

// Orders реализует логику заказов: оформление из корзины, просмотр, отмена.
// Оформление не очищает корзину: клиент делает это отдельным запросом.
type Orders struct {
	products repository.ProductRepository
	carts    *Carts
	orders   repository.OrderRepository
	tx       repository.TxManager
}

func NewOrders(products repository.ProductRepository, carts *Carts, orders repository.OrderRepository, tx repository.TxManager) *Orders {
	return &Orders{products: products, carts: carts, orders: orders, tx: tx}
}

// PlaceOrder prices the user's cart, checks stock, decrements it and stores
// the order, all inside one transaction.
func (s *Orders) PlaceOrder(ctx context.Context, userID primitive.ObjectID, paymentMethod string) (*repository.OrderRecord, error) {
	paymentMethod = strings.ToLower(strings.TrimSpace(paymentMethod))
	if paymentMethod == "" {
		return nil, ErrNoPaymentMethod
	}
	if !paymentMethods[paymentMethod] {
		return nil, ErrUnknownPayMethod
	}

	var created *repository.OrderRecord
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		q, err := s.carts.View(ctx, userID)
		if err != nil {
			return err
		}
		if len(q.Lines) == 0 {
			return ErrEmptyCart
		}
		// load and check stock
		// accumulate updates to avoid partial state
		updated := make([]*repository.ProductRecord, 0, len(q.Lines))
		lines := make([]repository.OrderLine, 0, len(q.Lines))
		for _, l := range q.Lines {
			p, err := s.products.GetByID(ctx, l.Product.ID)
			if err != nil {
				return err
			}
			if p.Stock < l.Qty {
				return ErrNotEnoughStock
			}
			// reserve
			p.Stock -= l.Qty
			updated = append(updated, p)
			lines = append(lines, repository.OrderLine{ProductID: p.ID, Name: p.Name, Price: p.Price, Qty: l.Qty})
		}
		// persist product stock updates
		for _, p := range updated {
			if err := s.products.Update(ctx, p); err != nil {
				return err
			}
		}

		o := repository.OrderRecord{
			UserID:         userID,
			Status:         domain.OrderStatusPending,
			PaymentMethod:  paymentMethod,
			Lines:          lines,
			Subtotal:       q.Subtotal,
			DeliveryCharge: q.DeliveryCharge,
			DiscountAmount: q.DiscountAmount,
			TotalPayable:   q.TotalPayable,
		}
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}
		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetOrder возвращает заказ по id. Non-admin callers see their own orders only.
func (s *Orders) GetOrder(ctx context.Context, caller *repository.UserRecord, id primitive.ObjectID) (*repository.OrderRecord, error) {
	if id.IsZero() {
		return nil, ErrInvalidInput
	}
	o, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if !isAdmin(caller) && o.UserID != caller.ID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ListOrders returns one page of orders and the page count. Admins see every
// order, everyone else their own.
func (s *Orders) ListOrders(ctx context.Context, caller *repository.UserRecord, page, limit int) ([]repository.OrderRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	f := repository.OrderFilter{Page: page, Limit: limit}
	if !isAdmin(caller) {
		f.UserID = &caller.ID
	}
	list, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return list, pages, nil
}

// CancelOrder если заказ ещё не отправлен — возвращаем товары на склад и ставим Cancelled
func (s *Orders) CancelOrder(ctx context.Context, id primitive.ObjectID) (*repository.OrderRecord, error) {
	if id.IsZero() {
		return nil, ErrInvalidInput
	}
	var updated *repository.OrderRecord
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusPending && o.Status != domain.OrderStatusConfirmed {
			return ErrInvalidState
		}
		// return stock
		for _, it := range o.Lines {
			p, err := s.products.GetByID(ctx, it.ProductID)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			p.Stock += it.Qty
			if err := s.products.Update(ctx, p); err != nil {
				return err
			}
		}
		o.Status = domain.OrderStatusCancelled
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
