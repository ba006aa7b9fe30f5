package services

import (
	"log"
	"math"
	"strconv"
	"strings"

	"inventory/internal/apperrors"
	"inventory/internal/models"
	"inventory/internal/repositories"
)

// StockEventPublisher publishes stock-change events after successful
// adjustments. A nil publisher disables publishing.
type StockEventPublisher interface {
	PublishStockChanged(productID string, delta, stock int) error
}

// ProductInput is the validated-input shape for create and full replace.
// Pointer fields distinguish "absent" from a zero value.
type ProductInput struct {
	Name     string
	Category *string
	Stock    *float64
	Price    *float64
}

// ProductPatchInput carries only the fields present in a partial update.
type ProductPatchInput struct {
	Name     *string
	Category *string
	Stock    *float64
	Price    *float64
}

// ProductService handles business logic related to products: input
// normalization, validation and delegation to the repository.
type ProductService struct {
	repo   repositories.ProductRepository
	events StockEventPublisher
}

// NewProductService creates a new ProductService. events may be nil.
func NewProductService(repo repositories.ProductRepository, events StockEventPublisher) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
	}
}

// ListProducts queries products with permissive filtering: stock bounds that
// do not parse to a finite number are ignored, never rejected.
func (s *ProductService) ListProducts(query, category, minStock, maxStock string) ([]models.Product, error) {
	filter := repositories.ProductFilter{
		Query:    query,
		Category: category,
		MinStock: parseBound(minStock),
		MaxStock: parseBound(maxStock),
	}
	return s.repo.List(filter)
}

// parseBound converts query-string text to a stock bound, returning nil for
// anything that is not a finite number.
func parseBound(raw string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || !isFinite(f) {
		return nil
	}
	return &f
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct normalizes the input and creates a new product. Name is
// required after trimming; a negative stock or price is clamped to zero
// rather than rejected.
func (s *ProductService) CreateProduct(input ProductInput) (*models.Product, error) {
	product, err := buildProduct(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// ReplaceProduct overwrites every field of an existing product. Fields
// absent from the input are reset to their defaults — a true overwrite, not
// a merge.
func (s *ProductService) ReplaceProduct(id string, input ProductInput) (*models.Product, error) {
	product, err := buildProduct(input)
	if err != nil {
		return nil, err
	}
	return s.repo.Replace(id, product)
}

// buildProduct applies the shared create/replace coercion rules.
func buildProduct(input ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidation("Name is required")
	}

	product := &models.Product{Name: name}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.Stock != nil && isFinite(*input.Stock) {
		stock := int(math.Floor(*input.Stock))
		if stock < 0 {
			stock = 0
		}
		product.Stock = stock
	}
	if input.Price != nil && isFinite(*input.Price) {
		product.Price = math.Max(0, *input.Price)
	}
	return product, nil
}

// PatchProduct updates only the fields present in the input. Unlike create
// and replace, a present name may be empty after trimming.
func (s *ProductService) PatchProduct(id string, input ProductPatchInput) (*models.Product, error) {
	var patch repositories.ProductPatch
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		patch.Name = &name
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		patch.Category = &category
	}
	if input.Stock != nil {
		if !isFinite(*input.Stock) || math.Floor(*input.Stock) < 0 {
			return nil, apperrors.NewValidation("Invalid stock")
		}
		stock := int(math.Floor(*input.Stock))
		patch.Stock = &stock
	}
	if input.Price != nil {
		if !isFinite(*input.Price) || *input.Price < 0 {
			return nil, apperrors.NewValidation("Invalid price")
		}
		patch.Price = input.Price
	}
	return s.repo.Patch(id, patch)
}

// AdjustStock applies a signed delta to a product's stock. The integer part
// of the delta (truncated toward zero) is added atomically with a floor of
// zero by the repository.
func (s *ProductService) AdjustStock(id string, delta *float64) (*models.Product, error) {
	if delta == nil || !isFinite(*delta) {
		return nil, apperrors.NewValidation("delta must be a number")
	}
	d := int(math.Trunc(*delta))

	product, err := s.repo.AdjustStock(id, d)
	if err != nil {
		return nil, err
	}

	// Publishing is best effort; a broker failure never fails the request.
	if s.events != nil {
		if err := s.events.PublishStockChanged(product.ID, d, product.Stock); err != nil {
			log.Printf("Failed to publish stock event for product %s: %v", product.ID, err)
		}
	}
	return product, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
