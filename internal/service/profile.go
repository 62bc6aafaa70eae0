package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/session"
)

// ProfileAPI reads user profiles from the remote service.
type ProfileAPI interface {
	GetProfile(ctx context.Context, userID domain.EntityID) (*domain.User, error)
}

// CustomerView is what an admin sees for an order's customer: the
// authoritative profile, or Unavailable with the denormalized order data
// kept apart in Fallback.
type CustomerView struct {
	UserID      domain.EntityID       `json:"userId"`
	Profile     *domain.User          `json:"profile,omitempty"`
	Unavailable bool                  `json:"unavailable,omitempty"`
	Reason      string                `json:"reason,omitempty"`
	Fallback    *domain.OrderCustomer `json:"fallback,omitempty"`
}

// DisplayName is the name to show, marking fallback data as such.
func (v CustomerView) DisplayName() string {
	switch {
	case v.Profile != nil && v.Profile.Name != "":
		return v.Profile.Name
	case v.Fallback != nil && v.Fallback.Name != "":
		return v.Fallback.Name + " (from order)"
	}
	return "User details not available"
}

type ProfileOption func(*ProfileService)

// WithBatchSize sets how many profiles Prefetch requests per batch.
func WithBatchSize(n int) ProfileOption {
	return func(s *ProfileService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBatchRate paces Prefetch batches; zero means unpaced.
func WithBatchRate(perSecond float64) ProfileOption {
	return func(s *ProfileService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			s.limiter = nil
		}
	}
}

// WithConcurrency bounds the requests in flight within one batch.
func WithConcurrency(n int) ProfileOption {
	return func(s *ProfileService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// ProfileService is a read-through cache of user profiles for admin views.
// Lookups for the same id are collapsed and failures are cached as absent.
// The cache is emptied when the session ends.
type ProfileService struct {
	api    ProfileAPI
	store  *session.Store
	cache  repository.ProfileCache
	notify Notifier
	log    *slog.Logger
	group  singleflight.Group
	now    func() time.Time

	batchSize   int
	concurrency int
	limiter     *rate.Limiter
}

func NewProfileService(api ProfileAPI, store *session.Store, cache repository.ProfileCache, n Notifier, log *slog.Logger, opts ...ProfileOption) *ProfileService {
	if log == nil {
		log = slog.Default()
	}
	if cache == nil {
		cache = repository.NewMemoryProfileCache(0)
	}
	s := &ProfileService{
		api:         api,
		store:       store,
		cache:       cache,
		notify:      n,
		log:         log,
		now:         time.Now,
		batchSize:   10,
		concurrency: 4,
		limiter:     rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, o := range opts {
		o(s)
	}
	store.OnTeardown(func() {
		if err := s.cache.Clear(context.Background()); err != nil {
			s.log.Warn("profile cache clear failed", "err", err)
		}
	})
	return s
}

// GetProfile returns the profile of userID from the cache or the service.
func (s *ProfileService) GetProfile(ctx context.Context, userID any) (*domain.User, error) {
	const fallback = "Failed to load customer details"
	if err := session.Authorize(s.store.User(), session.ActionAdminReadProfile); err != nil {
		return nil, notify(s.notify, err, "", "Unauthorized: Admin access required")
	}
	id := domain.Normalize(userID)
	if id.IsZero() {
		return nil, notify(s.notify, ErrInvalidID, "", fallback)
	}
	e, err := s.lookup(ctx, id)
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	if e.Absent {
		perr := &ProfileError{UserID: id.String(), Cause: errors.New(e.Reason)}
		if s.notify != nil {
			s.notify.Error(fallback + ": " + e.Reason)
		}
		return nil, perr
	}
	cp := *e.Profile
	return &cp, nil
}

// lookup returns the cached entry for id, fetching it on a miss.
func (s *ProfileService) lookup(ctx context.Context, id domain.EntityID) (*domain.ProfileEntry, error) {
	if e, ok, err := s.cache.Get(ctx, id); err != nil {
		s.log.Warn("profile cache read failed", "user", id, "err", err)
	} else if ok {
		return e, nil
	}

	epoch := s.store.Epoch()
	v, err, shared := s.group.Do(id.String(), func() (any, error) {
		// a flight that ended since the miss above may have filled it
		if e, ok, err := s.cache.Get(ctx, id); err == nil && ok {
			return e, nil
		}
		return s.fetch(ctx, id, epoch)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("profile lookup shared", "user", id)
	}
	return v.(*domain.ProfileEntry), nil
}

func (s *ProfileService) fetch(ctx context.Context, id domain.EntityID, epoch uint64) (*domain.ProfileEntry, error) {
	u, err := s.api.GetProfile(ctx, id)
	// a cancelled lookup says nothing about the profile
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	e := &domain.ProfileEntry{UserID: id, FetchedAt: s.now()}
	if err != nil {
		e.Absent = true
		e.Reason = Message(err, err.Error())
		s.log.Warn("profile unavailable", "user", id, "err", err)
	} else if u == nil || (u.ID.IsZero() && u.Name == "" && u.Email == "") {
		// an empty answer is not a profile
		e.Absent = true
		e.Reason = "user not found"
		s.log.Warn("profile unavailable", "user", id, "err", "empty profile document")
	} else {
		if u.ID.IsZero() {
			u.ID = id
		}
		e.Profile = u
	}
	if s.store.Epoch() != epoch {
		return e, nil
	}
	if err := s.cache.Set(ctx, e); err != nil {
		s.log.Warn("profile cache write failed", "user", id, "err", err)
	}
	return e, nil
}

// CustomerFor resolves the customer of order. It never fabricates a profile:
// when the lookup fails the view is Unavailable and carries the order's own
// customer data separately.
func (s *ProfileService) CustomerFor(ctx context.Context, order *domain.Order) CustomerView {
	v := CustomerView{}
	if order == nil {
		v.Unavailable, v.Reason = true, "no order"
		return v
	}
	v.UserID = order.UserID
	if order.Customer != nil {
		fb := *order.Customer
		v.Fallback = &fb
	}
	if order.UserID.IsZero() {
		v.Unavailable, v.Reason = true, "order has no user"
		return v
	}
	u, err := s.GetProfile(ctx, order.UserID)
	if err != nil {
		v.Unavailable, v.Reason = true, Message(err, err.Error())
		return v
	}
	v.Profile = u
	return v
}

// Prefetch warms the cache for ids. Ids are deduplicated and cached ones
// skipped; the rest are fetched in fixed-size batches, one batch at a time,
// paced by the batch limiter. It returns how many ids were fetched.
func (s *ProfileService) Prefetch(ctx context.Context, ids []any) (int, error) {
	if err := session.Authorize(s.store.User(), session.ActionAdminReadProfile); err != nil {
		return 0, err
	}
	seen := make(map[domain.EntityID]bool, len(ids))
	todo := make([]domain.EntityID, 0, len(ids))
	for _, raw := range ids {
		id := domain.Normalize(raw)
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok, err := s.cache.Get(ctx, id); err == nil && ok {
			continue
		}
		todo = append(todo, id)
	}

	fetched := 0
	for start := 0; start < len(todo); start += s.batchSize {
		end := min(start+s.batchSize, len(todo))
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return fetched, err
			}
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for _, id := range todo[start:end] {
			g.Go(func() error {
				// failures are cached as absent; only cancellation stops the batch
				_, err := s.lookup(gctx, id)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return fetched, err
		}
		fetched += end - start
		s.log.Debug("profile batch fetched", "from", start, "to", end, "total", len(todo))
	}
	return fetched, nil
}

// PrefetchOrders warms the cache for the users of orders.
func (s *ProfileService) PrefetchOrders(ctx context.Context, orders []domain.Order) (int, error) {
	ids := make([]any, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.UserID)
	}
	return s.Prefetch(ctx, ids)
}
