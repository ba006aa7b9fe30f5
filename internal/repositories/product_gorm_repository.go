package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inventory/internal/apperrors"
	"inventory/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List retrieves all products matching the filter, newest first.
func (r *GORMProductRepository) List(filter ProductFilter) ([]models.Product, error) {
	tx := r.db.Model(&models.Product{})
	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		tx = tx.Where("category = ?", filter.Category)
	}
	if filter.MinStock != nil {
		tx = tx.Where("stock >= ?", *filter.MinStock)
	}
	if filter.MaxStock != nil {
		tx = tx.Where("stock <= ?", *filter.MaxStock)
	}

	products := make([]models.Product, 0)
	if err := tx.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product, assigning its ID and applying the category
// default before the record-level constraints are checked.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Category == "" {
		product.Category = models.DefaultCategory
	}
	if err := validateProduct(product); err != nil {
		return err
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Replace overwrites every field of an existing product. The stored ID and
// creation time are preserved; everything else comes from the caller.
func (r *GORMProductRepository) Replace(id string, product *models.Product) (*models.Product, error) {
	current, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	product.ID = current.ID
	product.CreatedAt = current.CreatedAt
	if product.Category == "" {
		product.Category = models.DefaultCategory
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	// Save updates all fields, including zero values.
	if err := r.db.Save(product).Error; err != nil {
		return nil, fmt.Errorf("failed to replace product %s: %w", id, err)
	}
	return product, nil
}

// Patch updates only the fields set on the patch and returns the stored
// record after the update.
func (r *GORMProductRepository) Patch(id string, patch ProductPatch) (*models.Product, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		if len(*patch.Name) > 200 {
			return nil, apperrors.NewValidation("Name must be at most 200 characters")
		}
		updates["name"] = *patch.Name
	}
	if patch.Category != nil {
		if len(*patch.Category) > 120 {
			return nil, apperrors.NewValidation("Category must be at most 120 characters")
		}
		updates["category"] = *patch.Category
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, apperrors.NewValidation("Stock must be non-negative")
		}
		updates["stock"] = *patch.Stock
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, apperrors.NewValidation("Price must be non-negative")
		}
		updates["price"] = *patch.Price
	}
	if len(updates) == 0 {
		return r.GetByID(id)
	}

	res := r.db.Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to patch product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound(id)
	}
	return r.GetByID(id)
}

// AdjustStock applies a signed delta with a floor of zero in a single
// conditional UPDATE, so concurrent deltas against the same id serialize at
// the database and never lose an update.
func (r *GORMProductRepository) AdjustStock(id string, delta int) (*models.Product, error) {
	res := r.db.Model(&models.Product{}).Where("id = ?", id).
		Update("stock", gorm.Expr("CASE WHEN stock + ? < 0 THEN 0 ELSE stock + ? END", delta, delta))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to adjust stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound(id)
	}
	return r.GetByID(id)
}

// Delete removes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}
