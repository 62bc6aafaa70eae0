package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of the server cart. LineTotal always comes from the
// server; the client never recomputes it.
type CartItem struct {
	ProductID EntityID        `json:"productId"`
	Product   Product         `json:"product"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// UnmarshalJSON falls back to the product snapshot id when the line carries
// no productId of its own.
func (it *CartItem) UnmarshalJSON(b []byte) error {
	type plain CartItem
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.ProductID.IsZero() {
		p.ProductID = p.Product.ID
	}
	if p.Product.ID.IsZero() {
		p.Product.ID = p.ProductID
	}
	*it = CartItem(p)
	return nil
}

// Cart is the authoritative cart as last read from the service.
type Cart struct {
	Items           []CartItem      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryCharge  decimal.Decimal `json:"deliveryCharge"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	TotalPayable    decimal.Decimal `json:"totalPayable"`
}

func (c *Cart) IsEmpty() bool { return c == nil || len(c.Items) == 0 }

// Line returns the line for productID, which may be any identifier shape.
func (c *Cart) Line(productID any) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	id := Normalize(productID)
	if id.IsZero() {
		return CartItem{}, false
	}
	for _, it := range c.Items {
		if it.ProductID == id {
			return it, true
		}
	}
	return CartItem{}, false
}

// Quantity is the number of units across all lines.
func (c *Cart) Quantity() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, it := range c.Items {
		n += it.Qty
	}
	return n
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderCustomer is the customer data denormalized into an order document.
// It is display-only and never stands in for a profile.
type OrderCustomer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (c *OrderCustomer) isZero() bool { return c == nil || *c == OrderCustomer{} }

// Order is created at checkout from the current cart and is immutable on the
// client.
type Order struct {
	ID             EntityID        `json:"id"`
	Status         OrderStatus     `json:"status"`
	PaymentMethod  string          `json:"paymentMethod"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalPayable   decimal.Decimal `json:"totalPayable"`
	Items          []CartItem      `json:"items"`
	UserID         EntityID        `json:"user"`
	Customer       *OrderCustomer  `json:"customer,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// UnmarshalJSON accepts the order user as a bare id or a populated user
// document; the latter also fills Customer.
func (o *Order) UnmarshalJSON(b []byte) error {
	var w struct {
		ID             EntityID        `json:"id"`
		MongoID        EntityID        `json:"_id"`
		OrderID        EntityID        `json:"orderId"`
		Status         OrderStatus     `json:"status"`
		PaymentMethod  string          `json:"paymentMethod"`
		Subtotal       decimal.Decimal `json:"subtotal"`
		DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
		DiscountAmount decimal.Decimal `json:"discountAmount"`
		TotalPayable   decimal.Decimal `json:"totalPayable"`
		Items          []CartItem      `json:"items"`
		User           json.RawMessage `json:"user"`
		Customer       *OrderCustomer  `json:"customer"`
		CreatedAt      time.Time       `json:"createdAt"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*o = Order{
		ID:             firstID(w.ID, w.MongoID, w.OrderID),
		Status:         w.Status,
		PaymentMethod:  w.PaymentMethod,
		Subtotal:       w.Subtotal,
		DeliveryCharge: w.DeliveryCharge,
		DiscountAmount: w.DiscountAmount,
		TotalPayable:   w.TotalPayable,
		Items:          w.Items,
		UserID:         Normalize(w.User),
		Customer:       w.Customer,
		CreatedAt:      w.CreatedAt,
	}
	if u := bytes.TrimSpace(w.User); len(u) > 0 && u[0] == '{' {
		var c OrderCustomer
		if err := json.Unmarshal(u, &c); err == nil && !c.isZero() {
			o.Customer = &c
		}
	}
	return nil
}

// OrderReceipt acknowledges a placed order.
type OrderReceipt struct {
	OrderID EntityID `json:"orderId"`
	Order   *Order   `json:"order,omitempty"`
}

func (r *OrderReceipt) UnmarshalJSON(b []byte) error {
	var w struct {
		OrderID EntityID `json:"orderId"`
		ID      EntityID `json:"id"`
		MongoID EntityID `json:"_id"`
		Order   *Order   `json:"order"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	r.OrderID = firstID(w.OrderID, w.MongoID, w.ID)
	r.Order = w.Order
	if r.OrderID.IsZero() && w.Order != nil {
		r.OrderID = w.Order.ID
	}
	return nil
}

// OrderPage is one page of the admin order listing.
type OrderPage struct {
	Orders     []Order `json:"orders"`
	TotalPages int     `json:"totalPages"`
}

func (p *OrderPage) UnmarshalJSON(b []byte) error {
	type plain OrderPage
	var w plain
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Orders == nil {
		w.Orders = []Order{}
	}
	if w.TotalPages < 1 {
		w.TotalPages = 1
	}
	*p = OrderPage(w)
	return nil
}
