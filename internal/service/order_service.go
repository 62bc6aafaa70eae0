package service

import (
	"context"
	"log/slog"

	"storefront/internal/domain"
	"storefront/internal/pending"
	"storefront/internal/session"
)

const defaultOrderPageSize = 10

// OrderView is one order together with its resolved customer.
type OrderView struct {
	Order    *domain.Order `json:"order"`
	Customer CustomerView  `json:"customer"`
}

// OrderService реализует админский просмотр заказов: список, детали, отмена
type OrderService struct {
	api      OrderAPI
	profiles *ProfileService
	store    *session.Store
	notify   Notifier
	log      *slog.Logger
}

func NewOrderService(api OrderAPI, profiles *ProfileService, store *session.Store, n Notifier, log *slog.Logger) *OrderService {
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{api: api, profiles: profiles, store: store, notify: n, log: log}
}

// ListOrders returns one page of all orders. Customer profiles of the page
// are prefetched on a best-effort basis.
func (s *OrderService) ListOrders(ctx context.Context, page, limit int) (*domain.OrderPage, error) {
	const fallback = "Failed to load orders"
	if err := session.Authorize(s.store.User(), session.ActionAdminRead); err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultOrderPageSize
	}
	p, err := s.api.ListOrders(ctx, page, limit)
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	if s.profiles != nil {
		if n, err := s.profiles.PrefetchOrders(ctx, p.Orders); err != nil {
			s.log.Warn("profile prefetch stopped", "page", page, "fetched", n, "err", err)
		}
	}
	return p, nil
}

// ViewOrder loads one order and resolves its customer.
func (s *OrderService) ViewOrder(ctx context.Context, orderID any) (*OrderView, error) {
	const fallback = "Failed to load order"
	if err := session.Authorize(s.store.User(), session.ActionAdminRead); err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	id := domain.Normalize(orderID)
	if id.IsZero() {
		return nil, notify(s.notify, ErrInvalidID, "", fallback)
	}
	task, err := s.store.Pending().Begin(ctx, "order:"+id.String())
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	defer task.End()

	o, err := s.api.GetOrder(task.Context(), id)
	if task.Abandoned() {
		return nil, pending.ErrAbandoned
	}
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	v := &OrderView{Order: o}
	if s.profiles != nil {
		v.Customer = s.profiles.CustomerFor(task.Context(), o)
	} else {
		v.Customer = CustomerView{UserID: o.UserID, Unavailable: true, Fallback: o.Customer}
	}
	return v, nil
}

// CancelOrder отменяет заказ, который ещё не отправлен
func (s *OrderService) CancelOrder(ctx context.Context, orderID any) (*domain.Order, error) {
	const fallback = "Failed to cancel order"
	if err := session.Authorize(s.store.User(), session.ActionAdminWrite); err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	id := domain.Normalize(orderID)
	if id.IsZero() {
		return nil, notify(s.notify, ErrInvalidID, "", fallback)
	}
	task, err := s.store.Pending().Begin(ctx, "order:"+id.String())
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	defer task.End()

	o, err := s.api.CancelOrder(task.Context(), id)
	if task.Abandoned() {
		return nil, pending.ErrAbandoned
	}
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	s.log.Info("order cancelled", "order", id)
	notify(s.notify, nil, "Order cancelled", "")
	return o, nil
}
