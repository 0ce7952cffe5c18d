package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("item not found")
	ErrNameRequired     = errors.New("item name is required")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrNegativePrice    = errors.New("price must not be negative")
)

// DefaultCategories is the category list offered by the UI. The field is an
// open string set; items may carry categories outside this list.
var DefaultCategories = []string{"Electronics", "Clothing", "Food", "Books", "Other"}

// Item is one inventory record. There are no relationships between items
// and no cross-item invariants.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	Description string    `json:"description,omitempty"`
	Supplier    string    `json:"supplier,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TotalValue is the item's quantity multiplied by its unit price
func (i *Item) TotalValue() float64 {
	return float64(i.Quantity) * i.Price
}

// ItemInput carries the writable fields of an item
type ItemInput struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Supplier    string  `json:"supplier"`
}

// Validate enforces the field-level constraints: non-empty name and
// non-negative quantity and price
func (in ItemInput) Validate() error {
	if in.Name == "" {
		return ErrNameRequired
	}
	if in.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if in.Price < 0 {
		return ErrNegativePrice
	}
	return nil
}
