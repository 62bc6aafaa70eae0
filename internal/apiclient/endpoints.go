package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/domain"
)

// GetCart reads the authoritative cart. The service may answer with the bare
// cart or with {"cart": ...}.
func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/cart", nil, nil, &raw); err != nil {
		return nil, err
	}
	cart := &domain.Cart{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := unwrap(raw, "cart", cart); err != nil {
			return nil, err
		}
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}

func (c *Client) AddItem(ctx context.Context, productID domain.EntityID, qty int) error {
	in := map[string]any{"productId": productID, "qty": qty}
	return c.do(ctx, http.MethodPost, "/cart/items", nil, in, nil)
}

func (c *Client) UpdateItemQty(ctx context.Context, productID domain.EntityID, qty int) error {
	in := map[string]any{"qty": qty}
	return c.do(ctx, http.MethodPut, "/cart/items"+segment(productID.String()), nil, in, nil)
}

func (c *Client) RemoveItem(ctx context.Context, productID domain.EntityID) error {
	return c.do(ctx, http.MethodDelete, "/cart/items"+segment(productID.String()), nil, nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil, nil)
}

func (c *Client) PlaceOrder(ctx context.Context, paymentMethod string) (*domain.OrderReceipt, error) {
	in := map[string]any{"paymentMethod": paymentMethod}
	var r domain.OrderReceipt
	if err := c.do(ctx, http.MethodPost, "/orders", nil, in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) ListOrders(ctx context.Context, page, limit int) (*domain.OrderPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	var p domain.OrderPage
	if err := c.do(ctx, http.MethodGet, "/orders", q, nil, &p); err != nil {
		return nil, err
	}
	if p.Orders == nil {
		p.Orders = []domain.Order{}
		p.TotalPages = 1
	}
	return &p, nil
}

func (c *Client) GetOrder(ctx context.Context, id domain.EntityID) (*domain.Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/orders"+segment(id.String()), nil, nil, &raw); err != nil {
		return nil, err
	}
	var o domain.Order
	if err := unwrap(raw, "order", &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// CancelOrder cancels an order that has not shipped yet. Admin only.
func (c *Client) CancelOrder(ctx context.Context, id domain.EntityID) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodPut, "/orders"+segment(id.String())+"/cancel", nil, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetProfile reads a user profile. An empty id reads the caller's own.
func (c *Client) GetProfile(ctx context.Context, userID domain.EntityID) (*domain.User, error) {
	var q url.Values
	if !userID.IsZero() {
		q = url.Values{"userId": {userID.String()}}
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/auth/profile", q, nil, &raw); err != nil {
		return nil, err
	}
	var u domain.User
	if err := unwrap(raw, "user", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ProfileUpdate carries the editable profile fields; nil fields are left as
// they are.
type ProfileUpdate struct {
	Name    *string         `json:"name,omitempty"`
	Phone   *string         `json:"phone,omitempty"`
	Address *domain.Address `json:"address,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*domain.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, "/auth/profile", nil, in, &raw); err != nil {
		return nil, err
	}
	var u domain.User
	if err := unwrap(raw, "user", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AuthResult is the answer to login and register.
type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	in := map[string]string{"email": email, "password": password}
	var r AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	in := map[string]string{"name": name, "email": email, "password": password}
	var r AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) ListProducts(ctx context.Context, query string) ([]domain.Product, error) {
	var q url.Values
	if query != "" {
		q = url.Values{"q": {query}}
	}
	var out struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products", q, nil, &out); err != nil {
		return nil, err
	}
	if out.Products == nil {
		out.Products = []domain.Product{}
	}
	return out.Products, nil
}

func (c *Client) GetProduct(ctx context.Context, id domain.EntityID) (*domain.Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/products"+segment(id.String()), nil, nil, &raw); err != nil {
		return nil, err
	}
	var p domain.Product
	if err := unwrap(raw, "product", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductInput is the body of product create and update. Empty fields are
// left out, so an update only touches what is set.
type ProductInput struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Price       string         `json:"price,omitempty"`
	Images      []domain.Image `json:"images,omitempty"`
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/products", nil, in, &raw); err != nil {
		return nil, err
	}
	var p domain.Product
	if err := unwrap(raw, "product", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id domain.EntityID, in ProductInput) (*domain.Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, "/products"+segment(id.String()), nil, in, &raw); err != nil {
		return nil, err
	}
	var p domain.Product
	if err := unwrap(raw, "product", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id domain.EntityID) error {
	return c.do(ctx, http.MethodDelete, "/products"+segment(id.String()), nil, nil, nil)
}
