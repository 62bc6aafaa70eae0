package service

import (
	"context"
	"errors"
	"log/slog"

	"storefront/internal/domain"
	"storefront/internal/pending"
	"storefront/internal/session"
)

// CartAPI is the part of the remote service the cart client uses.
type CartAPI interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddItem(ctx context.Context, productID domain.EntityID, qty int) error
	UpdateItemQty(ctx context.Context, productID domain.EntityID, qty int) error
	RemoveItem(ctx context.Context, productID domain.EntityID) error
	ClearCart(ctx context.Context) error
}

// RefreshError is returned when a write succeeded but the follow-up read of
// the cart failed. The local cart view is then stale.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string { return "refresh cart: " + e.Err.Error() }

func (e *RefreshError) Unwrap() error { return e.Err }

// ClearOptions controls the confirmation step of ClearCart. Neither option
// skips authorization.
type ClearOptions struct {
	// Confirmed means the user already confirmed.
	Confirmed bool
	// SkipConfirm is used by checkout after an order was placed.
	SkipConfirm bool
}

const clearPrompt = "Are you sure you want to clear your entire cart?"

// CartService mirrors the server cart. Writes never patch the local view:
// each successful write is followed by a full read, and the read with the
// highest sequence number wins.
type CartService struct {
	api     CartAPI
	store   *session.Store
	notify  Notifier
	confirm Confirmer
	log     *slog.Logger
}

func NewCartService(api CartAPI, store *session.Store, n Notifier, c Confirmer, log *slog.Logger) *CartService {
	if log == nil {
		log = slog.Default()
	}
	return &CartService{api: api, store: store, notify: n, confirm: c, log: log}
}

// GetCart reads the cart and applies it to the session unless a newer read
// already landed.
func (s *CartService) GetCart(ctx context.Context) (*domain.Cart, error) {
	if err := session.Authorize(s.store.User(), session.ActionReadCart); err != nil {
		return nil, notify(s.notify, err, "", "Failed to load cart")
	}
	c, err := s.refresh(ctx)
	if err != nil {
		return nil, notify(s.notify, err, "", "Failed to load cart")
	}
	return c, nil
}

func (s *CartService) refresh(ctx context.Context) (*domain.Cart, error) {
	epoch := s.store.Epoch()
	seq := s.store.NextCartSeq()
	c, err := s.api.GetCart(ctx)
	if err != nil {
		return nil, err
	}
	if s.store.ApplyCart(seq, c) {
		return c, nil
	}
	// the session that asked is gone; its cart must not reach the next one
	if !s.store.Active() || s.store.Epoch() != epoch {
		return nil, pending.ErrAbandoned
	}
	// a newer read already landed
	if cur := s.store.Cart(); cur != nil {
		return cur, nil
	}
	return c, nil
}

// mutation is one cart write.
type mutation struct {
	key      string
	validate func() error
	call     func(ctx context.Context) error
	success  string
	fallback string
}

func (s *CartService) run(ctx context.Context, m mutation) (*domain.Cart, error) {
	task, err := s.store.Pending().Begin(ctx, m.key)
	if err != nil {
		return nil, notify(s.notify, err, "", m.fallback)
	}
	defer task.End()

	if m.validate != nil {
		if err := m.validate(); err != nil {
			return nil, notify(s.notify, err, "", m.fallback)
		}
	}
	err = m.call(task.Context())
	if task.Abandoned() {
		s.log.Debug("cart write abandoned", "key", m.key, "token", task.Token)
		return nil, pending.ErrAbandoned
	}
	if err != nil {
		s.log.Warn("cart write failed", "key", m.key, "err", err)
		return nil, notify(s.notify, err, "", m.fallback)
	}
	notify(s.notify, nil, m.success, "")

	c, err := s.refresh(task.Context())
	if task.Abandoned() || errors.Is(err, pending.ErrAbandoned) {
		return nil, pending.ErrAbandoned
	}
	if err != nil {
		return nil, notify(s.notify, &RefreshError{Err: err}, "", "Failed to load cart")
	}
	return c, nil
}

// canonical gates action and normalizes the product id.
func (s *CartService) canonical(productID any, fallback string) (domain.EntityID, error) {
	if err := session.Authorize(s.store.User(), session.ActionMutateCart); err != nil {
		return "", notify(s.notify, err, "", fallback)
	}
	id := domain.Normalize(productID)
	if id.IsZero() {
		return "", notify(s.notify, ErrInvalidID, "", fallback)
	}
	return id, nil
}

// AddItem adds qty units of productID. A zero qty adds one unit.
func (s *CartService) AddItem(ctx context.Context, productID any, qty int) (*domain.Cart, error) {
	const fallback = "Failed to add to cart"
	id, err := s.canonical(productID, fallback)
	if err != nil {
		return nil, err
	}
	if qty == 0 {
		qty = 1
	}
	return s.run(ctx, mutation{
		key: id.String(),
		validate: func() error {
			if qty < 1 {
				return ErrInvalidQuantity
			}
			return nil
		},
		call:     func(ctx context.Context) error { return s.api.AddItem(ctx, id, qty) },
		success:  "Item added to cart!",
		fallback: fallback,
	})
}

// UpdateItemQty sets the quantity of an existing line. Quantities below one
// are rejected without a network call.
func (s *CartService) UpdateItemQty(ctx context.Context, productID any, qty int) (*domain.Cart, error) {
	const fallback = "Failed to update quantity"
	id, err := s.canonical(productID, fallback)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, mutation{
		key: id.String(),
		validate: func() error {
			if qty < 1 {
				return ErrInvalidQuantity
			}
			return nil
		},
		call:     func(ctx context.Context) error { return s.api.UpdateItemQty(ctx, id, qty) },
		success:  "Quantity updated!",
		fallback: fallback,
	})
}

func (s *CartService) RemoveItem(ctx context.Context, productID any) (*domain.Cart, error) {
	const fallback = "Failed to remove item from cart"
	id, err := s.canonical(productID, fallback)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, mutation{
		key:      id.String(),
		call:     func(ctx context.Context) error { return s.api.RemoveItem(ctx, id) },
		success:  "Item removed from cart!",
		fallback: fallback,
	})
}

// ClearCart empties the cart after the user confirms. Refusal returns
// ErrClearNotConfirmed and nothing is sent.
func (s *CartService) ClearCart(ctx context.Context, opts ClearOptions) (*domain.Cart, error) {
	const fallback = "Failed to clear cart"
	if err := session.Authorize(s.store.User(), session.ActionMutateCart); err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	if !opts.Confirmed && !opts.SkipConfirm {
		if s.confirm == nil || !s.confirm.Confirm(ctx, clearPrompt) {
			return nil, ErrClearNotConfirmed
		}
	}
	return s.run(ctx, mutation{
		key:      pending.ClearKey,
		call:     s.api.ClearCart,
		success:  "Cart cleared successfully!",
		fallback: fallback,
	})
}

// IsPending reports whether a write for productID is in flight.
func (s *CartService) IsPending(productID any) bool {
	id := domain.Normalize(productID)
	return !id.IsZero() && s.store.Pending().IsPending(id.String())
}

// Cart returns the last applied cart view.
func (s *CartService) Cart() *domain.Cart { return s.store.Cart() }
