// Package backend is a reference implementation of the remote cart/order
// service. cmd/mockapi serves it and the client packages test against it
// in process.
package backend

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/repository"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrProductNotFound = errors.New("product not found")
)

// Catalog инкапсулирует бизнес-логику вокруг товаров
type Catalog struct {
	repo repository.ProductRepository
}

func NewCatalog(repo repository.ProductRepository) *Catalog {
	return &Catalog{repo: repo}
}

func (s *Catalog) Create(ctx context.Context, p repository.ProductRecord) (*repository.ProductRecord, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.Price.IsNegative() || p.Stock < 0 {
		return nil, ErrInvalidInput
	}
	cp := p
	cp.ID = primitive.NilObjectID
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Catalog) GetByID(ctx context.Context, id primitive.ObjectID) (*repository.ProductRecord, error) {
	if id.IsZero() {
		return nil, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// ProductPatch carries the fields of a product update; nil fields are kept.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Images      []string
	Stock       *int
}

func (s *Catalog) Update(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*repository.ProductRecord, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Images != nil {
		p.Images = patch.Images
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if p.Name == "" || p.Price.IsNegative() || p.Stock < 0 {
		return nil, ErrInvalidInput
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Catalog) Delete(ctx context.Context, id primitive.ObjectID) error {
	if id.IsZero() {
		return ErrInvalidInput
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (s *Catalog) List(ctx context.Context, f repository.ProductFilter) ([]repository.ProductRecord, error) {
	return s.repo.List(ctx, f)
}
