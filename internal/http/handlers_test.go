package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"storefront/internal/apiclient"
	"storefront/internal/backend"
	"storefront/internal/pending"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"
)

func init() { gin.SetMode(gin.TestMode) }

func setupServer(t *testing.T) (*Server, *backend.Seeded) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	remote := backend.New(repository.NewMemoryStore(), backend.Options{JWTSecret: "test", Pricing: backend.DefaultPricing(), Logger: log})
	seeded, err := remote.Seed(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(remote.Engine())
	t.Cleanup(ts.Close)

	store := session.NewStore(log)
	client, err := apiclient.New(ts.URL+"/api", apiclient.WithTokenSource(store), apiclient.WithLogger(log))
	if err != nil {
		t.Fatal(err)
	}
	notes := &service.Recorder{}
	carts := service.NewCartService(client, store, notes, nil, log)
	profiles := service.NewProfileService(client, store, repository.NewMemoryProfileCache(0), notes, log, service.WithBatchRate(0))
	return NewServer(Services{
		Store:    store,
		Auth:     service.NewAuthService(client, store, notes, log),
		Cart:     carts,
		Checkout: service.NewCheckoutService(client, carts, store, notes, "cod", log),
		Orders:   service.NewOrderService(client, profiles, store, notes, log),
		Profiles: profiles,
		Products: service.NewProductService(client, store, notes, log),
		Notes:    notes,
	}, log), seeded
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func login(t *testing.T, s *Server, email string) {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/v1/session/login", map[string]string{"email": email, "password": backend.SeedPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %v %s", email, w.Code, w.Body)
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body, err)
	}
	return v
}

func TestCartFlow(t *testing.T) {
	s, seeded := setupServer(t)
	pid := seeded.Products[0].ID.Hex()

	w := doJSON(t, s, http.MethodGet, "/api/v1/cart", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("guest cart code %v", w.Code)
	}
	if eb := decode[errorBody](t, w); eb.Kind != "unauthenticated" {
		t.Fatalf("unexpected error body %+v", eb)
	}

	login(t, s, backend.SeedCustomerEmail)

	// add, with the id in extended JSON form
	w = doJSON(t, s, http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": map[string]string{"$oid": pid}, "qty": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("add code %v %s", w.Code, w.Body)
	}
	cart := decode[struct {
		Items []struct {
			ProductID string `json:"productId"`
			Qty       int    `json:"qty"`
		} `json:"items"`
		TotalPayable string `json:"totalPayable"`
	}](t, w)
	if len(cart.Items) != 1 || cart.Items[0].ProductID != pid || cart.Items[0].Qty != 2 {
		t.Fatalf("unexpected cart %+v", cart)
	}
	if cart.TotalPayable != "510" {
		t.Fatalf("unexpected total %s", cart.TotalPayable)
	}

	// invalid quantity never reaches the service
	w = doJSON(t, s, http.MethodPut, "/api/v1/cart/items/"+pid, map[string]int{"qty": 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("qty 0 code %v", w.Code)
	}
	if eb := decode[errorBody](t, w); eb.Error != "Quantity must be at least 1" {
		t.Fatalf("unexpected error %+v", eb)
	}

	w = doJSON(t, s, http.MethodPut, "/api/v1/cart/items/"+pid, map[string]int{"qty": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("update code %v %s", w.Code, w.Body)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/pending", nil)
	if p := decode[map[string][]string](t, w); len(p["pending"]) != 0 {
		t.Fatalf("expected nothing pending, got %v", p)
	}

	// clear needs confirmation
	w = doJSON(t, s, http.MethodDelete, "/api/v1/cart", nil)
	if w.Code != http.StatusPreconditionRequired {
		t.Fatalf("unconfirmed clear code %v", w.Code)
	}
	w = doJSON(t, s, http.MethodDelete, "/api/v1/cart?confirmed=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear code %v %s", w.Code, w.Body)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/notifications", nil)
	notes := decode[[]service.Note](t, w)
	if len(notes) == 0 || notes[len(notes)-1].Text != "Cart cleared successfully!" {
		t.Fatalf("unexpected notes %+v", notes)
	}
	w = doJSON(t, s, http.MethodGet, "/api/v1/notifications", nil)
	if notes := decode[[]service.Note](t, w); len(notes) != 0 {
		t.Fatalf("notifications not drained: %+v", notes)
	}
}

func TestCheckoutFlow(t *testing.T) {
	s, seeded := setupServer(t)
	login(t, s, backend.SeedCustomerEmail)

	w := doJSON(t, s, http.MethodPost, "/api/v1/checkout", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty cart checkout code %v %s", w.Code, w.Body)
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": seeded.Products[1].ID.Hex()})
	if w.Code != http.StatusOK {
		t.Fatalf("add code %v %s", w.Code, w.Body)
	}
	w = doJSON(t, s, http.MethodPost, "/api/v1/checkout", map[string]string{"paymentMethod": "card"})
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout code %v %s", w.Code, w.Body)
	}
	out := decode[checkoutResp](t, w)
	if out.OrderID.IsZero() || !out.Cart.IsEmpty() || out.ClearErr != "" {
		t.Fatalf("unexpected checkout result %+v", out)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/checkout", nil)
	if st := decode[map[string]string](t, w); st["state"] != "idle" || st["last"] != "succeeded" {
		t.Fatalf("unexpected state %v", st)
	}
}

func TestAdminViews(t *testing.T) {
	s, seeded := setupServer(t)
	login(t, s, backend.SeedCustomerEmail)
	doJSON(t, s, http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": seeded.Products[0].ID.Hex(), "qty": 1})
	w := doJSON(t, s, http.MethodPost, "/api/v1/checkout", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout code %v %s", w.Code, w.Body)
	}
	orderID := decode[checkoutResp](t, w).OrderID.String()

	w = doJSON(t, s, http.MethodGet, "/api/v1/admin/orders", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("customer listing code %v", w.Code)
	}

	login(t, s, backend.SeedAdminEmail)
	w = doJSON(t, s, http.MethodGet, "/api/v1/admin/orders?page=1&limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code %v %s", w.Code, w.Body)
	}
	page := decode[struct {
		Orders     []map[string]any `json:"orders"`
		TotalPages int              `json:"totalPages"`
	}](t, w)
	if len(page.Orders) != 1 || page.TotalPages != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/admin/orders/"+orderID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("order code %v %s", w.Code, w.Body)
	}
	if v := decode[map[string]any](t, w); v["customerName"] != "Jane Customer" {
		t.Fatalf("unexpected customer %v", v["customerName"])
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/admin/profiles/65f000000000000000000009", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing profile code %v", w.Code)
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/admin/orders/"+orderID+"/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel code %v %s", w.Code, w.Body)
	}
	w = doJSON(t, s, http.MethodPost, "/api/v1/admin/orders/"+orderID+"/cancel", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second cancel code %v", w.Code)
	}
}

func TestSessionEndpoints(t *testing.T) {
	s, _ := setupServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/v1/session", nil)
	if r := decode[sessionResp](t, w); r.Active || r.Role != "guest" {
		t.Fatalf("unexpected guest session %+v", r)
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/session/login", map[string]string{"email": backend.SeedCustomerEmail, "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login code %v", w.Code)
	}

	login(t, s, backend.SeedAdminEmail)
	w = doJSON(t, s, http.MethodGet, "/api/v1/session", nil)
	if r := decode[sessionResp](t, w); !r.Active || r.Role != "admin" {
		t.Fatalf("unexpected admin session %+v", r)
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/session/logout", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout code %v", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/v1/session", nil)
	if r := decode[sessionResp](t, w); r.Active {
		t.Fatalf("session still active")
	}
}

func TestProductEndpoints(t *testing.T) {
	s, _ := setupServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/v1/products?q=sunscreen", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code %v", w.Code)
	}
	if list := decode[[]map[string]any](t, w); len(list) != 1 {
		t.Fatalf("expected one match, got %d", len(list))
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/products", map[string]any{"name": "Toner", "price": "120"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("guest create code %v", w.Code)
	}

	login(t, s, backend.SeedAdminEmail)
	w = doJSON(t, s, http.MethodPost, "/api/v1/products", map[string]any{"name": "Toner", "price": "120"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create code %v %s", w.Code, w.Body)
	}
	id := decode[map[string]any](t, w)["id"].(string)

	w = doJSON(t, s, http.MethodDelete, "/api/v1/products/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete code %v", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/v1/products/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get deleted code %v", w.Code)
	}
}

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{session.ErrUnauthenticated, http.StatusUnauthorized},
		{session.ErrUnauthorized, http.StatusForbidden},
		{service.ErrInvalidQuantity, http.StatusBadRequest},
		{service.ErrEmptyCart, http.StatusBadRequest},
		{pending.ErrBusy, http.StatusConflict},
		{pending.ErrAbandoned, http.StatusConflict},
		{service.ErrClearNotConfirmed, http.StatusPreconditionRequired},
		{&service.ProfileError{UserID: "u", Cause: errors.New("gone")}, http.StatusNotFound},
		{&apiclient.NetworkError{Op: "GET /cart", Err: io.ErrUnexpectedEOF}, http.StatusBadGateway},
		{&apiclient.ServiceError{Status: http.StatusNotFound}, http.StatusNotFound},
		{&apiclient.ServiceError{Status: http.StatusInternalServerError}, http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", &apiclient.ServiceError{Status: http.StatusForbidden}), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := mapErrorToStatus(tc.err); got != tc.want {
			t.Fatalf("%v: got %d want %d", tc.err, got, tc.want)
		}
	}
}
