package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"storefront/internal/apiclient"
	"storefront/internal/backend"
	"storefront/internal/repository"
	"storefront/internal/session"
)

func init() { gin.SetMode(gin.TestMode) }

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// interceptor counts requests per "METHOD /path" and lets a test take over
// selected requests.
type interceptor struct {
	next http.Handler

	mu    sync.Mutex
	calls map[string]int
	hooks map[string]http.HandlerFunc
}

func (i *interceptor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	i.mu.Lock()
	i.calls[key]++
	h := i.hooks[key]
	i.mu.Unlock()
	if h != nil {
		h(w, r)
		return
	}
	i.next.ServeHTTP(w, r)
}

func (i *interceptor) count(key string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls[key]
}

func (i *interceptor) total() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, c := range i.calls {
		n += c
	}
	return n
}

func (i *interceptor) reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls = map[string]int{}
}

func (i *interceptor) hook(key string, h http.HandlerFunc) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if h == nil {
		delete(i.hooks, key)
		return
	}
	i.hooks[key] = h
}

// fail answers key with status and a JSON message.
func (i *interceptor) fail(key string, status int, msg string) {
	i.hook(key, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"message":"`+msg+`"}`)
	})
}

// block holds key until release is closed, then passes it through. entered
// receives once per held request.
func (i *interceptor) block(key string) (entered chan struct{}, release chan struct{}) {
	entered = make(chan struct{}, 16)
	release = make(chan struct{})
	i.hook(key, func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		i.next.ServeHTTP(w, r)
	})
	return entered, release
}

type env struct {
	backend  *backend.Server
	seeded   *backend.Seeded
	http     *interceptor
	store    *session.Store
	client   *apiclient.Client
	notes    *Recorder
	cache    *repository.MemoryProfileCache
	carts    *CartService
	checkout *CheckoutService
	profiles *ProfileService
	orders   *OrderService
	products *ProductService
	auth     *AuthService
	confirm  bool
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := backend.New(repository.NewMemoryStore(), backend.Options{JWTSecret: "test", Pricing: backend.DefaultPricing(), Logger: quietLog()})
	seeded, err := srv.Seed(context.Background())
	require.NoError(t, err)

	ic := &interceptor{next: srv.Engine(), calls: map[string]int{}, hooks: map[string]http.HandlerFunc{}}
	ts := httptest.NewServer(ic)
	t.Cleanup(ts.Close)

	log := quietLog()
	e := &env{backend: srv, seeded: seeded, http: ic, store: session.NewStore(log), notes: &Recorder{}}
	e.client, err = apiclient.New(ts.URL+"/api", apiclient.WithTokenSource(e.store), apiclient.WithLogger(log))
	require.NoError(t, err)

	e.cache = repository.NewMemoryProfileCache(0)
	confirm := ConfirmFunc(func(context.Context, string) bool { return e.confirm })
	e.carts = NewCartService(e.client, e.store, e.notes, confirm, log)
	e.checkout = NewCheckoutService(e.client, e.carts, e.store, e.notes, "cod", log)
	e.profiles = NewProfileService(e.client, e.store, e.cache, e.notes, log, WithBatchRate(0))
	e.orders = NewOrderService(e.client, e.profiles, e.store, e.notes, log)
	e.products = NewProductService(e.client, e.store, e.notes, log)
	e.auth = NewAuthService(e.client, e.store, e.notes, log)
	return e
}

// login signs in and forgets the requests and notes it produced.
func (e *env) login(t *testing.T, email string) {
	t.Helper()
	_, err := e.auth.Login(context.Background(), email, backend.SeedPassword)
	require.NoError(t, err)
	e.http.reset()
	e.notes.Drain()
}

func (e *env) productID(i int) string { return e.seeded.Products[i].ID.Hex() }

func (e *env) customerID() string { return e.seeded.Customer.ID.Hex() }

func hasNote(notes []Note, level, text string) bool {
	for _, n := range notes {
		if n.Level == level && n.Text == text {
			return true
		}
	}
	return false
}
