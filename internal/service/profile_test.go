package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/session"
)

const profileCall = "GET /api/auth/profile"

func TestProfile_CachedAfterFirstRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.login(t, "admin@example.com")

	u, err := e.profiles.GetProfile(ctx, e.customerID())
	require.NoError(t, err)
	assert.Equal(t, "Jane Customer", u.Name)
	assert.Equal(t, "+1 555 0100", u.Phone)
	assert.Equal(t, domain.EntityID(e.customerID()), u.ID)
	assert.Equal(t, domain.RoleCustomer, u.Role)

	_, err = e.profiles.GetProfile(ctx, map[string]any{"$oid": e.customerID()})
	require.NoError(t, err)
	assert.Equal(t, 1, e.http.count(profileCall))
	assert.Equal(t, 1, e.cache.Len())
}

func TestProfile_AdminOnly(t *testing.T) {
	e := newEnv(t)
	e.login(t, "customer@example.com")

	_, err := e.profiles.GetProfile(context.Background(), e.customerID())
	require.ErrorIs(t, err, session.ErrUnauthorized)
	assert.Zero(t, e.http.total())
	assert.Equal(t, "Not authorized!", e.notes.Last().Text)
}

func TestProfile_FailureIsCachedAsAbsent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.login(t, "admin@example.com")
	missing := "65f000000000000000000001"

	_, err := e.profiles.GetProfile(ctx, missing)
	var perr *ProfileError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, ErrProfileUnavailable)
	assert.Equal(t, missing, perr.UserID)
	assert.Equal(t, "Failed to load customer details: user not found", e.notes.Last().Text)

	_, err = e.profiles.GetProfile(ctx, missing)
	require.ErrorIs(t, err, ErrProfileUnavailable)
	assert.Equal(t, 1, e.http.count(profileCall))
}

func TestProfile_EmptyAnswerIsAbsent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.login(t, "admin@example.com")
	for _, body := range []string{`{"user":null}`, `{}`} {
		require.NoError(t, e.profiles.cache.Clear(ctx))
		e.http.hook(profileCall, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, body)
		})

		u, err := e.profiles.GetProfile(ctx, e.customerID())
		require.ErrorIs(t, err, ErrProfileUnavailable, body)
		assert.Nil(t, u)
		assert.Equal(t, "Failed to load customer details: user not found", e.notes.Last().Text)

		v := e.profiles.CustomerFor(ctx, &domain.Order{ID: "o1", UserID: domain.EntityID(e.customerID())})
		assert.True(t, v.Unavailable, body)
		assert.Nil(t, v.Profile)
		assert.Equal(t, "User details not available", v.DisplayName())
	}
}

func TestProfile_ConcurrentLookupsShareOneRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.login(t, "admin@example.com")

	entered, release := e.http.block(profileCall)
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := e.profiles.GetProfile(ctx, e.customerID())
			if assert.NoError(t, err) {
				assert.Equal(t, "Jane Customer", u.Name)
			}
		}()
	}
	<-entered
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, e.http.count(profileCall))
}

// lateFillCache misses on the first read of an id and stores entry at that
// moment, as if another lookup finished right after the miss.
type lateFillCache struct {
	*repository.MemoryProfileCache
	entry *domain.ProfileEntry
	once  sync.Once
}

func (c *lateFillCache) Get(ctx context.Context, id domain.EntityID) (*domain.ProfileEntry, bool, error) {
	missed := false
	c.once.Do(func() {
		missed = true
		_ = c.MemoryProfileCache.Set(ctx, c.entry)
	})
	if missed {
		return nil, false, nil
	}
	return c.MemoryProfileCache.Get(ctx, id)
}

func TestProfile_LookupRechecksCacheBeforeFetching(t *testing.T) {
	api := &countingProfiles{}
	cache := &lateFillCache{
		MemoryProfileCache: repository.NewMemoryProfileCache(0),
		entry: &domain.ProfileEntry{UserID: "u1", Profile: &domain.User{ID: "u1", Name: "Filled"}, FetchedAt: time.Now()},
	}
	svc := NewProfileService(api, adminStore(), cache, nil, quietLog())

	u, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Filled", u.Name)
	assert.Zero(t, api.calls.Load())
}

func TestProfile_TeardownEmptiesCache(t *testing.T) {
	e := newEnv(t)
	e.login(t, "admin@example.com")

	_, err := e.profiles.GetProfile(context.Background(), e.customerID())
	require.NoError(t, err)
	require.Equal(t, 1, e.cache.Len())

	e.store.Teardown()
	assert.Zero(t, e.cache.Len())
}

func TestProfile_CustomerForKeepsFallbackSeparate(t *testing.T) {
	e := newEnv(t)
	e.login(t, "admin@example.com")

	order := &domain.Order{
		ID:       "o1",
		UserID:   "65f000000000000000000002",
		Customer: &domain.OrderCustomer{Name: "Old Name", Email: "old@example.com"},
	}
	v := e.profiles.CustomerFor(context.Background(), order)
	assert.True(t, v.Unavailable)
	assert.Nil(t, v.Profile)
	require.NotNil(t, v.Fallback)
	assert.Equal(t, "Old Name", v.Fallback.Name)
	assert.Equal(t, "Old Name (from order)", v.DisplayName())
	assert.NotEmpty(t, v.Reason)

	order.UserID = domain.EntityID(e.customerID())
	v = e.profiles.CustomerFor(context.Background(), order)
	assert.False(t, v.Unavailable)
	assert.Equal(t, "Jane Customer", v.DisplayName())

	v = e.profiles.CustomerFor(context.Background(), &domain.Order{ID: "o2"})
	assert.True(t, v.Unavailable)
	assert.Equal(t, "User details not available", v.DisplayName())
}

// countingProfiles serves synthetic profiles and records concurrency.
type countingProfiles struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	hold     chan struct{}
	started  chan struct{}
}

func (c *countingProfiles) GetProfile(ctx context.Context, id domain.EntityID) (*domain.User, error) {
	c.calls.Add(1)
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		m := c.maxSeen.Load()
		if n <= m || c.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if c.started != nil {
		c.started <- struct{}{}
	}
	if c.hold != nil {
		<-c.hold
	}
	time.Sleep(c.delay)
	if strings.HasPrefix(id.String(), "bad") {
		return nil, fmt.Errorf("no such user %s", id)
	}
	return &domain.User{Name: "user " + id.String()}, nil
}

func adminStore() *session.Store {
	s := session.NewStore(quietLog())
	s.Init(&domain.User{ID: "admin", Role: domain.RoleAdmin}, "tok")
	return s
}

func TestProfile_PrefetchBatchesAndBoundsConcurrency(t *testing.T) {
	api := &countingProfiles{delay: 5 * time.Millisecond}
	cache := repository.NewMemoryProfileCache(0)
	svc := NewProfileService(api, adminStore(), cache, nil, quietLog(),
		WithBatchSize(10), WithConcurrency(3), WithBatchRate(0))

	ids := make([]any, 0, 30)
	for i := range 25 {
		ids = append(ids, fmt.Sprintf("u%02d", i))
	}
	ids = append(ids, "u00", map[string]any{"_id": "u01"}, "bad1", "")

	n, err := svc.Prefetch(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 26, n)
	assert.Equal(t, int32(26), api.calls.Load())
	assert.LessOrEqual(t, api.maxSeen.Load(), int32(3))
	assert.Equal(t, 26, cache.Len())

	// everything is cached now, including the failure
	n, err = svc.Prefetch(context.Background(), ids)
	require.NoError(t, err)
	assert.Zero(t, n)

	u, err := svc.GetProfile(context.Background(), "u07")
	require.NoError(t, err)
	assert.Equal(t, domain.EntityID("u07"), u.ID)
	_, err = svc.GetProfile(context.Background(), "bad1")
	assert.ErrorIs(t, err, ErrProfileUnavailable)
	assert.Equal(t, int32(26), api.calls.Load())
}

func TestProfile_PrefetchStopsOnCancel(t *testing.T) {
	api := &countingProfiles{}
	svc := NewProfileService(api, adminStore(), nil, nil, quietLog(), WithBatchSize(2), WithBatchRate(0.001))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := svc.Prefetch(ctx, []any{"a", "b", "c"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Zero(t, api.calls.Load())
}

func TestProfile_ResultFromEndedSessionIsNotCached(t *testing.T) {
	api := &countingProfiles{hold: make(chan struct{}), started: make(chan struct{}, 1)}
	store := adminStore()
	cache := repository.NewMemoryProfileCache(0)
	svc := NewProfileService(api, store, cache, nil, quietLog())

	done := make(chan error, 1)
	go func() {
		_, err := svc.GetProfile(context.Background(), "u1")
		done <- err
	}()
	<-api.started
	store.Teardown()
	store.Init(&domain.User{ID: "admin2", Role: domain.RoleAdmin}, "tok2")
	close(api.hold)

	require.NoError(t, <-done)
	assert.Zero(t, cache.Len())
}

func TestCustomerView_DisplayName(t *testing.T) {
	v := CustomerView{Profile: &domain.User{Name: "Ann"}, Fallback: &domain.OrderCustomer{Name: "Old"}}
	assert.Equal(t, "Ann", v.DisplayName())
}
