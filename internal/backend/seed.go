package backend

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// Demo credentials created by Seed.
const (
	SeedAdminEmail    = "admin@example.com"
	SeedCustomerEmail = "customer@example.com"
	SeedPassword      = "secret123"
)

// Seeded is what Seed created.
type Seeded struct {
	Admin    *repository.UserRecord
	Customer *repository.UserRecord
	Products []repository.ProductRecord
}

// Seed creates an admin (flagged by isAdmin only), a customer and a small
// catalogue.
func (s *Server) Seed(ctx context.Context) (*Seeded, error) {
	admin, err := s.accounts.CreateAdmin(ctx, "Store Admin", SeedAdminEmail, SeedPassword)
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	customer, _, err := s.accounts.Register(ctx, "Jane Customer", SeedCustomerEmail, SeedPassword)
	if err != nil {
		return nil, fmt.Errorf("seed customer: %w", err)
	}
	phone := "+1 555 0100"
	addr := domain.Address{Line1: "12 Harbour Road", City: "Springfield", PostalCode: "49007"}
	if customer, err = s.accounts.UpdateProfile(ctx, customer, ProfilePatch{Phone: &phone, Address: &addr}); err != nil {
		return nil, fmt.Errorf("seed customer profile: %w", err)
	}

	out := &Seeded{Admin: admin, Customer: customer}
	for _, p := range []repository.ProductRecord{
		{Name: "Gentle Face Wash", Description: "Daily foaming cleanser", Price: decimal.NewFromInt(250), Images: []string{"/img/facewash.jpg"}, Stock: 50},
		{Name: "Hydrating Moisturizer", Description: "Light gel cream", Price: decimal.NewFromInt(400), Images: []string{"/img/moisture.jpg"}, Stock: 30},
		{Name: "Mineral Sunscreen SPF 50", Price: decimal.RequireFromString("349.50"), Stock: 20},
	} {
		created, err := s.catalog.Create(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("seed product %q: %w", p.Name, err)
		}
		out.Products = append(out.Products, *created)
	}
	return out, nil
}
