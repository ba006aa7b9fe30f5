package models

import "time"

// Product represents a single inventory record. The store assigns the ID and
// maintains both timestamps; deletes are hard deletes, so there is no
// soft-delete column.
type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name      string    `json:"name" gorm:"type:varchar(200);index:idx_category_name,priority:2" validate:"required,max=200"`
	Category  string    `json:"category" gorm:"type:varchar(120);index:idx_category_name,priority:1" validate:"max=120"`
	Stock     int       `json:"stock" validate:"gte=0"`
	Price     float64   `json:"price" validate:"gte=0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultCategory is applied when a product is written without a category.
const DefaultCategory = "Uncategorized"
