package repositories

import (
	"fmt"

	"inventory/internal/apperrors"
	"inventory/internal/models"
)

// ProductFilter narrows a List call. Zero values mean "no constraint".
type ProductFilter struct {
	Query    string   // case-insensitive substring match on name or category
	Category string   // exact category match
	MinStock *float64 // inclusive lower stock bound
	MaxStock *float64 // inclusive upper stock bound
}

// ProductPatch carries the fields a partial update touches. Nil pointers
// leave the corresponding column untouched.
type ProductPatch struct {
	Name     *string
	Category *string
	Stock    *int
	Price    *float64
}

// ProductRepository defines the interface for product data access.
//
// Implementations must execute AdjustStock as a single atomic
// read-modify-write: concurrent deltas against the same id must never lose
// an update or drive stock below zero.
type ProductRepository interface {
	// List returns products matching the filter, newest first. An empty
	// result is a nil-free empty slice, not an error.
	List(filter ProductFilter) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	// Create assigns the id and timestamps on the given product.
	Create(product *models.Product) error
	// Replace overwrites every field of the identified record.
	Replace(id string, product *models.Product) (*models.Product, error)
	// Patch updates only the fields set on the patch.
	Patch(id string, patch ProductPatch) (*models.Product, error)
	// AdjustStock sets stock to max(0, stock+delta) atomically.
	AdjustStock(id string, delta int) (*models.Product, error)
	Delete(id string) error
}

// validateProduct enforces the record-level field constraints every write
// path must satisfy.
func validateProduct(p *models.Product) error {
	if p.Name == "" {
		return apperrors.NewValidation("Name is required")
	}
	if len(p.Name) > 200 {
		return apperrors.NewValidation("Name must be at most 200 characters")
	}
	if len(p.Category) > 120 {
		return apperrors.NewValidation("Category must be at most 120 characters")
	}
	if p.Stock < 0 {
		return apperrors.NewValidation("Stock must be non-negative")
	}
	if p.Price < 0 {
		return apperrors.NewValidation("Price must be non-negative")
	}
	return nil
}

// notFound wraps ErrNotFound with the offending id for log context.
func notFound(id string) error {
	return fmt.Errorf("product %s: %w", id, apperrors.ErrNotFound)
}
