package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/apiclient"
	"storefront/internal/domain"
	"storefront/internal/session"
)

// CatalogAPI is the product part of the remote service.
type CatalogAPI interface {
	ListProducts(ctx context.Context, query string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id domain.EntityID) (*domain.Product, error)
	CreateProduct(ctx context.Context, in apiclient.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id domain.EntityID, in apiclient.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id domain.EntityID) error
}

// ProductService инкапсулирует работу с каталогом: чтение для всех,
// изменение только для администратора
type ProductService struct {
	api    CatalogAPI
	store  *session.Store
	notify Notifier
	log    *slog.Logger
}

func NewProductService(api CatalogAPI, store *session.Store, n Notifier, log *slog.Logger) *ProductService {
	if log == nil {
		log = slog.Default()
	}
	return &ProductService{api: api, store: store, notify: n, log: log}
}

func (s *ProductService) List(ctx context.Context, query string) ([]domain.Product, error) {
	ps, err := s.api.ListProducts(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, notify(s.notify, err, "", "Failed to load products")
	}
	return ps, nil
}

func (s *ProductService) GetByID(ctx context.Context, id any) (*domain.Product, error) {
	const fallback = "Failed to load product"
	pid := domain.Normalize(id)
	if pid.IsZero() {
		return nil, notify(s.notify, ErrInvalidID, "", fallback)
	}
	p, err := s.api.GetProduct(ctx, pid)
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	return p, nil
}

func validProduct(in apiclient.ProductInput, create bool) error {
	if create && (strings.TrimSpace(in.Name) == "" || in.Price == "") {
		return ErrInvalidInput
	}
	if in.Price != "" {
		d, err := decimal.NewFromString(in.Price)
		if err != nil || d.IsNegative() {
			return ErrInvalidInput
		}
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, in apiclient.ProductInput) (*domain.Product, error) {
	const fallback = "Failed to add product"
	if err := session.Authorize(s.store.User(), session.ActionAdminWrite); err != nil {
		return nil, notify(s.notify, err, "", "Unauthorized: Admin access required")
	}
	if err := validProduct(in, true); err != nil {
		return nil, notify(s.notify, err, "", "Name and a non-negative price are required")
	}
	p, err := s.api.CreateProduct(ctx, in)
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	s.log.Info("product created", "product", p.ID)
	notify(s.notify, nil, "Product added successfully!", "")
	return p, nil
}

// Update changes the set fields of a product.
func (s *ProductService) Update(ctx context.Context, id any, in apiclient.ProductInput) (*domain.Product, error) {
	const fallback = "Failed to update product"
	if err := session.Authorize(s.store.User(), session.ActionAdminWrite); err != nil {
		return nil, notify(s.notify, err, "", "Unauthorized: Admin access required")
	}
	pid := domain.Normalize(id)
	if pid.IsZero() {
		return nil, notify(s.notify, ErrInvalidID, "", fallback)
	}
	if err := validProduct(in, false); err != nil {
		return nil, notify(s.notify, err, "", "Price must be a non-negative number")
	}
	p, err := s.api.UpdateProduct(ctx, pid, in)
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	notify(s.notify, nil, "Product updated successfully!", "")
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id any) error {
	const fallback = "Failed to delete product"
	if err := session.Authorize(s.store.User(), session.ActionAdminDelete); err != nil {
		return notify(s.notify, err, "", "Unauthorized: Admin access required")
	}
	pid := domain.Normalize(id)
	if pid.IsZero() {
		return notify(s.notify, ErrInvalidID, "", fallback)
	}
	if err := s.api.DeleteProduct(ctx, pid); err != nil {
		return notify(s.notify, err, "", fallback)
	}
	s.log.Info("product deleted", "product", pid)
	notify(s.notify, nil, "Product deleted successfully!", "")
	return nil
}
