package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/session"
)

// placeOrders has the seeded customer place n orders of one unit each.
func placeOrders(t *testing.T, e *env, n int) []domain.EntityID {
	t.Helper()
	ctx := context.Background()
	e.login(t, "customer@example.com")
	ids := make([]domain.EntityID, 0, n)
	for i := range n {
		_, err := e.carts.AddItem(ctx, e.productID(i%len(e.seeded.Products)), 1)
		require.NoError(t, err)
		res, err := e.checkout.Checkout(ctx, "cod")
		require.NoError(t, err)
		ids = append(ids, res.Receipt.OrderID)
	}
	return ids
}

func TestOrders_ListPrefetchesCustomers(t *testing.T) {
	e := newEnv(t)
	placeOrders(t, e, 3)
	e.login(t, "admin@example.com")

	p, err := e.orders.ListOrders(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Len(t, p.Orders, 2)
	assert.Equal(t, 2, p.TotalPages)
	assert.Equal(t, 1, e.http.count(profileCall))
	assert.Equal(t, 1, e.cache.Len())
	for _, o := range p.Orders {
		assert.Equal(t, domain.EntityID(e.customerID()), o.UserID)
	}

	p, err = e.orders.ListOrders(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, p.Orders, 1)
	assert.Equal(t, 1, e.http.count(profileCall))
}

func TestOrders_ViewResolvesCustomer(t *testing.T) {
	e := newEnv(t)
	ids := placeOrders(t, e, 1)
	e.login(t, "admin@example.com")

	v, err := e.orders.ViewOrder(context.Background(), ids[0].String())
	require.NoError(t, err)
	assert.Equal(t, ids[0], v.Order.ID)
	assert.False(t, v.Customer.Unavailable)
	assert.Equal(t, "Jane Customer", v.Customer.DisplayName())

	_, err = e.orders.ViewOrder(context.Background(), map[string]any{"$oid": ids[0].String()})
	require.NoError(t, err)
	assert.Equal(t, 1, e.http.count(profileCall))
	assert.Equal(t, 2, e.http.count("GET /api/orders/"+ids[0].String()))
}

func TestOrders_AdminOnly(t *testing.T) {
	e := newEnv(t)
	ids := placeOrders(t, e, 1)
	e.http.reset()

	_, err := e.orders.ListOrders(context.Background(), 1, 10)
	require.ErrorIs(t, err, session.ErrUnauthorized)
	_, err = e.orders.ViewOrder(context.Background(), ids[0])
	require.ErrorIs(t, err, session.ErrUnauthorized)
	_, err = e.orders.CancelOrder(context.Background(), ids[0])
	require.ErrorIs(t, err, session.ErrUnauthorized)
	assert.Zero(t, e.http.total())
}

func TestOrders_Cancel(t *testing.T) {
	e := newEnv(t)
	ids := placeOrders(t, e, 1)
	e.login(t, "admin@example.com")

	o, err := e.orders.CancelOrder(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, o.Status)
	assert.Equal(t, Note{Level: "success", Text: "Order cancelled"}, e.notes.Last())

	_, err = e.orders.CancelOrder(context.Background(), ids[0])
	require.Error(t, err)
	assert.Equal(t, KindService, Classify(err))
}

func TestOrders_ViewRejectsEmptyID(t *testing.T) {
	e := newEnv(t)
	e.login(t, "admin@example.com")

	_, err := e.orders.ViewOrder(context.Background(), nil)
	require.ErrorIs(t, err, ErrInvalidID)
	assert.Zero(t, e.http.total())
}
