package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_RoleCanonicalization(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Role
	}{
		{"isAdmin without role", `{"_id":"u1","isAdmin":true}`, RoleAdmin},
		{"explicit admin", `{"id":"u1","role":"Admin"}`, RoleAdmin},
		{"explicit role wins over flag", `{"id":"u1","role":"customer","isAdmin":true}`, RoleCustomer},
		{"unknown role string", `{"id":"u1","role":"user"}`, RoleCustomer},
		{"isAdmin false", `{"id":"u1","isAdmin":false}`, RoleCustomer},
		{"no role data", `{"id":"u1"}`, RoleCustomer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var u User
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &u))
			assert.Equal(t, tc.want, u.Role)
			assert.Equal(t, EntityID("u1"), u.ID)
		})
	}
}

func TestRoleOf(t *testing.T) {
	assert.Equal(t, RoleGuest, RoleOf(nil))
	assert.Equal(t, RoleAdmin, RoleOf(&User{Role: RoleAdmin}))
}

func TestUser_RoundTripKeepsCanonicalRole(t *testing.T) {
	in := User{ID: "u1", Name: "Ann", Role: RoleAdmin, Address: Address{City: "Dhaka"}}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	var out User
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestAddress_StringAndObject(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u","address":"221B Baker St"}`), &u))
	assert.Equal(t, "221B Baker St", u.Address.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id":"u","address":{"line1":"House 4","city":"Dhaka","postalCode":"1207","country":"BD"}}`), &u))
	assert.Equal(t, "House 4, Dhaka, 1207, BD", u.Address.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id":"u","address":null}`), &u))
	assert.True(t, u.Address.IsZero())
	assert.Equal(t, "", u.Address.String())
}

func TestCartItem_ProductIDFallback(t *testing.T) {
	raw := `{
		"items": [
			{"product": {"_id": {"$oid": "p1"}, "name": "Serum", "price": 300, "images": [{"url": "a.png"}]}, "qty": 2, "lineTotal": 600},
			{"productId": "p2", "product": "p2", "qty": 1, "lineTotal": 200}
		],
		"subtotal": 800, "deliveryCharge": 60, "discountPercent": 10, "discountAmount": 80, "totalPayable": 780
	}`
	var c Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	require.Len(t, c.Items, 2)

	line, ok := c.Line(map[string]any{"$oid": "p1"})
	require.True(t, ok)
	assert.Equal(t, 2, line.Qty)
	assert.True(t, decimal.NewFromInt(600).Equal(line.LineTotal))
	assert.Equal(t, "a.png", line.Product.Images[0].URL)

	line, ok = c.Line("p2")
	require.True(t, ok)
	assert.Equal(t, EntityID("p2"), line.Product.ID)

	assert.Equal(t, 3, c.Quantity())
	assert.True(t, decimal.NewFromInt(780).Equal(c.TotalPayable))
	assert.False(t, c.IsEmpty())

	var empty *Cart
	assert.True(t, empty.IsEmpty())
}

func TestOrder_PopulatedUser(t *testing.T) {
	var o Order
	raw := `{"_id":"o1","status":"pending","user":{"_id":"u9","name":"Rina","email":"r@x.io"},"totalPayable":"780"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &o))
	assert.Equal(t, EntityID("o1"), o.ID)
	assert.Equal(t, EntityID("u9"), o.UserID)
	require.NotNil(t, o.Customer)
	assert.Equal(t, "Rina", o.Customer.Name)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"o2","user":"u3"}`), &o))
	assert.Equal(t, EntityID("u3"), o.UserID)
	assert.Nil(t, o.Customer)
}

func TestOrderReceiptAndPage(t *testing.T) {
	var r OrderReceipt
	require.NoError(t, json.Unmarshal([]byte(`{"orderId":{"$oid":"o1"},"message":"ok"}`), &r))
	assert.Equal(t, EntityID("o1"), r.OrderID)

	require.NoError(t, json.Unmarshal([]byte(`{"order":{"_id":"o2"}}`), &r))
	assert.Equal(t, EntityID("o2"), r.OrderID)

	var p OrderPage
	require.NoError(t, json.Unmarshal([]byte(`{}`), &p))
	assert.Equal(t, 1, p.TotalPages)
	assert.NotNil(t, p.Orders)
}
