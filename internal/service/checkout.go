package service

import (
	"context"
	"log/slog"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/pending"
	"storefront/internal/session"
)

// OrderAPI is the part of the remote service that handles orders.
type OrderAPI interface {
	PlaceOrder(ctx context.Context, paymentMethod string) (*domain.OrderReceipt, error)
	ListOrders(ctx context.Context, page, limit int) (*domain.OrderPage, error)
	GetOrder(ctx context.Context, id domain.EntityID) (*domain.Order, error)
	CancelOrder(ctx context.Context, id domain.EntityID) (*domain.Order, error)
}

type CheckoutState int

const (
	CheckoutIdle CheckoutState = iota
	CheckoutSubmitting
	CheckoutSucceeded
	CheckoutFailed
)

func (s CheckoutState) String() string {
	switch s {
	case CheckoutSubmitting:
		return "submitting"
	case CheckoutSucceeded:
		return "succeeded"
	case CheckoutFailed:
		return "failed"
	default:
		return "idle"
	}
}

// CheckoutResult is the outcome of a placed order. ClearErr is set when the
// order went through but the cart could not be cleared; Cart is then the
// server cart as refetched afterwards.
type CheckoutResult struct {
	State    CheckoutState
	Receipt  *domain.OrderReceipt
	Cart     *domain.Cart
	ClearErr error
}

// CheckoutService places an order from the current server cart and then
// clears the cart. The two steps are not atomic and a failed clear is not
// retried.
type CheckoutService struct {
	orders        OrderAPI
	carts         *CartService
	store         *session.Store
	notify        Notifier
	log           *slog.Logger
	defaultMethod string

	mu    sync.Mutex
	state CheckoutState
	last  CheckoutState
}

func NewCheckoutService(orders OrderAPI, carts *CartService, store *session.Store, n Notifier, defaultMethod string, log *slog.Logger) *CheckoutService {
	if log == nil {
		log = slog.Default()
	}
	return &CheckoutService{orders: orders, carts: carts, store: store, notify: n, defaultMethod: defaultMethod, log: log}
}

// State is Submitting while an order is in flight and Idle otherwise.
func (s *CheckoutService) State() CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Last is the outcome of the most recent finished checkout, Idle before the
// first one and after an abandoned one.
func (s *CheckoutService) Last() CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *CheckoutService) setState(st CheckoutState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// finish passes through outcome and resets the machine to Idle.
func (s *CheckoutService) finish(outcome CheckoutState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Debug("checkout finished", "state", outcome)
	s.last = outcome
	s.state = CheckoutIdle
}

// Checkout places one order with paymentMethod, or the configured default
// when it is empty. A second call while one is in flight fails with
// pending.ErrBusy.
func (s *CheckoutService) Checkout(ctx context.Context, paymentMethod string) (*CheckoutResult, error) {
	const fallback = "Failed to place order"
	if err := session.Authorize(s.store.User(), session.ActionMutateCart); err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	task, err := s.store.Pending().Begin(ctx, pending.CheckoutKey)
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	defer task.End()

	s.setState(CheckoutSubmitting)
	res, err := s.submit(task, paymentMethod)
	switch {
	case task.Abandoned():
		s.finish(CheckoutIdle)
		return nil, pending.ErrAbandoned
	case err != nil:
		s.finish(CheckoutFailed)
		return nil, notify(s.notify, err, "", fallback)
	}
	s.finish(CheckoutSucceeded)
	res.State = CheckoutSucceeded
	return res, nil
}

func (s *CheckoutService) submit(task *pending.Task, method string) (*CheckoutResult, error) {
	ctx := task.Context()
	if method == "" {
		method = s.defaultMethod
	}
	if method == "" {
		return nil, ErrNoPaymentMethod
	}

	cart, err := s.carts.refresh(ctx)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	receipt, err := s.orders.PlaceOrder(ctx, method)
	if err != nil {
		s.log.Warn("place order failed", "err", err)
		return nil, err
	}
	if task.Abandoned() {
		return nil, pending.ErrAbandoned
	}
	s.log.Info("order placed", "order", receipt.OrderID, "method", method, "total", cart.TotalPayable.String())
	notify(s.notify, nil, "Order placed successfully!", "")

	res := &CheckoutResult{Receipt: receipt}
	res.Cart, res.ClearErr = s.carts.ClearCart(ctx, ClearOptions{SkipConfirm: true})
	if res.ClearErr != nil {
		s.log.Warn("cart not cleared after order", "order", receipt.OrderID, "err", res.ClearErr)
		if c, err := s.carts.refresh(ctx); err == nil {
			res.Cart = c
		} else {
			res.Cart = s.store.Cart()
		}
	}
	return res, nil
}
