package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Role is the canonical authorization role of a user.
type Role string

const (
	RoleGuest    Role = "guest"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a role string to a known Role, ignoring case.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleGuest:
		return RoleGuest, true
	case RoleCustomer:
		return RoleCustomer, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// CanonicalRole unifies the two role encodings of user records: an explicit
// role wins, then the isAdmin flag. A user record with neither is a customer.
func CanonicalRole(role string, isAdmin *bool) Role {
	if r, ok := ParseRole(role); ok {
		return r
	}
	if strings.TrimSpace(role) == "" && isAdmin != nil && *isAdmin {
		return RoleAdmin
	}
	return RoleCustomer
}

// RoleOf returns the role of u, guest for a nil user.
func RoleOf(u *User) Role {
	if u == nil || u.Role == "" {
		return RoleGuest
	}
	return u.Role
}

// User is a signed-in user or a customer profile.
type User struct {
	ID      EntityID `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone,omitempty"`
	Address Address  `json:"address"`
	Role    Role     `json:"role"`
}

func (u *User) UnmarshalJSON(b []byte) error {
	var w struct {
		ID      EntityID `json:"id"`
		MongoID EntityID `json:"_id"`
		UserID  EntityID `json:"userId"`
		Name    string   `json:"name"`
		Email   string   `json:"email"`
		Phone   string   `json:"phone"`
		Address Address  `json:"address"`
		Role    string   `json:"role"`
		IsAdmin *bool    `json:"isAdmin"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*u = User{
		ID:      firstID(w.ID, w.MongoID, w.UserID),
		Name:    w.Name,
		Email:   w.Email,
		Phone:   w.Phone,
		Address: w.Address,
		Role:    CanonicalRole(w.Role, w.IsAdmin),
	}
	return nil
}

// Address is either a structured postal address or a free-form line.
type Address struct {
	Line1      string `json:"line1,omitempty" bson:"line1,omitempty"`
	Line2      string `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string `json:"city,omitempty" bson:"city,omitempty"`
	State      string `json:"state,omitempty" bson:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty" bson:"postalCode,omitempty"`
	Country    string `json:"country,omitempty" bson:"country,omitempty"`
	Text       string `json:"text,omitempty" bson:"text,omitempty"`
}

func (a *Address) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*a = Address{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Address{Text: s}
		return nil
	}
	type plain Address
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*a = Address(p)
	return nil
}

func (a Address) IsZero() bool { return a == Address{} }

// String renders the address on one line, skipping empty parts.
func (a Address) String() string {
	if a.Text != "" {
		return a.Text
	}
	parts := []string{
		strings.TrimSpace(a.Line1 + " " + a.Line2),
		a.City,
		strings.TrimSpace(a.State + " " + a.PostalCode),
		a.Country,
	}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// Image is a product picture.
type Image struct {
	URL string `json:"url"`
}

func (i *Image) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &i.URL)
	}
	type plain Image
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*i = Image(p)
	return nil
}

// Product is a catalogue entry. The cart core treats products as read-only.
type Product struct {
	ID          EntityID        `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Images      []Image         `json:"images,omitempty"`
}

// UnmarshalJSON accepts a full product document or a bare product reference.
func (p *Product) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		*p = Product{ID: Normalize(json.RawMessage(b))}
		return nil
	}
	var w struct {
		ID          EntityID        `json:"id"`
		MongoID     EntityID        `json:"_id"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Images      []Image         `json:"images"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*p = Product{
		ID:          firstID(w.ID, w.MongoID),
		Name:        w.Name,
		Description: w.Description,
		Price:       w.Price,
		Images:      w.Images,
	}
	return nil
}
