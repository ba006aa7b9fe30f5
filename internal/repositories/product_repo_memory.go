package repositories

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"inventory/internal/apperrors"
	"inventory/internal/models"
)

// InMemoryProductRepository is a map-backed implementation of
// ProductRepository. It serves local runs without a database and doubles as
// a test fixture. The mutex upholds the AdjustStock atomicity contract.
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

// NewInMemoryProductRepository creates an empty in-memory repository.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// List returns products matching the filter, newest first.
func (r *InMemoryProductRepository) List(filter ProductFilter) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if matchesFilter(&p, filter) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func matchesFilter(p *models.Product, filter ProductFilter) bool {
	if filter.Query != "" {
		q := strings.ToLower(filter.Query)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) {
			return false
		}
	}
	if filter.Category != "" && p.Category != filter.Category {
		return false
	}
	if filter.MinStock != nil && float64(p.Stock) < *filter.MinStock {
		return false
	}
	if filter.MaxStock != nil && float64(p.Stock) > *filter.MaxStock {
		return false
	}
	return true
}

// GetByID returns a product by its ID.
func (r *InMemoryProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, notFound(id)
	}
	return &product, nil
}

// Create adds a new product, assigning its ID and timestamps.
func (r *InMemoryProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Category == "" {
		product.Category = models.DefaultCategory
	}
	if err := validateProduct(product); err != nil {
		return err
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Replace overwrites every field of an existing product.
func (r *InMemoryProductRepository) Replace(id string, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return nil, notFound(id)
	}
	product.ID = current.ID
	product.CreatedAt = current.CreatedAt
	if product.Category == "" {
		product.Category = models.DefaultCategory
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now()
	r.products[id] = *product
	return product, nil
}

// Patch updates only the fields set on the patch.
func (r *InMemoryProductRepository) Patch(id string, patch ProductPatch) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return nil, notFound(id)
	}
	if patch.Name != nil {
		if len(*patch.Name) > 200 {
			return nil, apperrors.NewValidation("Name must be at most 200 characters")
		}
		current.Name = *patch.Name
	}
	if patch.Category != nil {
		if len(*patch.Category) > 120 {
			return nil, apperrors.NewValidation("Category must be at most 120 characters")
		}
		current.Category = *patch.Category
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, apperrors.NewValidation("Stock must be non-negative")
		}
		current.Stock = *patch.Stock
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, apperrors.NewValidation("Price must be non-negative")
		}
		current.Price = *patch.Price
	}
	current.UpdatedAt = time.Now()
	r.products[id] = current
	return &current, nil
}

// AdjustStock applies a signed delta with a floor of zero under the write
// lock, making the read-add-clamp-write sequence atomic.
func (r *InMemoryProductRepository) AdjustStock(id string, delta int) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return nil, notFound(id)
	}
	next := current.Stock + delta
	if next < 0 {
		next = 0
	}
	current.Stock = next
	current.UpdatedAt = time.Now()
	r.products[id] = current
	return &current, nil
}

// Delete removes a product by its ID.
func (r *InMemoryProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return notFound(id)
	}
	delete(r.products, id)
	return nil
}
