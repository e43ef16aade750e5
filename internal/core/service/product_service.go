package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcastell/homestock/internal/core/domain"
	"github.com/rcastell/homestock/internal/port"
)

var ErrProductNotFound = errors.New("product not found")

// ProductService covers the single-record CRUD paths. Each operation is the
// degenerate one-descriptor case of the store contract the sync engine uses,
// except that a missing record is an error here rather than a no-op.
type ProductService struct {
	products port.ProductRepository
}

func NewProductService(products port.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) Add(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.OwnerID == "" {
		return domain.Product{}, ErrEmptyOwner
	}
	if reason := validateFields(p); reason != "" {
		return domain.Product{}, &ChangeError{Reason: reason}
	}

	p.ID = "" // ids are store-assigned on the create path
	created, err := s.products.Create(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

func (s *ProductService) GetAll(ctx context.Context, ownerID string) ([]domain.Product, error) {
	if ownerID == "" {
		return nil, ErrEmptyOwner
	}
	products, err := s.products.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) Update(ctx context.Context, p domain.Product) error {
	if p.OwnerID == "" {
		return ErrEmptyOwner
	}
	if reason := validateFields(p); reason != "" {
		return &ChangeError{Reason: reason}
	}

	existing, err := s.products.Find(ctx, p.ID, p.OwnerID)
	if err != nil {
		return fmt.Errorf("find product: %w", err)
	}
	if existing == nil {
		return ErrProductNotFound
	}

	if err := s.products.Replace(ctx, p); err != nil {
		return fmt.Errorf("replace product: %w", err)
	}
	return nil
}

func (s *ProductService) Delete(ctx context.Context, id, ownerID string) error {
	if ownerID == "" {
		return ErrEmptyOwner
	}
	deleted, err := s.products.Delete(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if !deleted {
		return ErrProductNotFound
	}
	return nil
}

func validateFields(p domain.Product) string {
	return validateUpsert(domain.Change{
		Action:       domain.ActionUpsert,
		Name:         p.Name,
		Quantity:     p.Quantity,
		Price:        p.Price,
		PurchaseDate: p.PurchaseDate,
		Store:        p.Store,
		Location:     p.Location,
	})
}
