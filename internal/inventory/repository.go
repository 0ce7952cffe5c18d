package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"stocktrack/internal/database"
)

// Repository handles inventory persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new item
func (r *Repository) Create(ctx context.Context, in ItemInput, createdBy string) (*Item, error) {
	dbItem := &database.InventoryItem{
		Name:        in.Name,
		Category:    in.Category,
		Quantity:    in.Quantity,
		Price:       in.Price,
		Description: in.Description,
		Supplier:    in.Supplier,
		CreatedBy:   createdBy,
		UpdatedBy:   createdBy,
	}

	_, err := r.db.NewInsert().
		Model(dbItem).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return mapDBItemToModel(dbItem), nil
}

// GetByID retrieves an item by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	dbItem := new(database.InventoryItem)
	err := r.db.NewSelect().
		Model(dbItem).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return mapDBItemToModel(dbItem), nil
}

// List returns the full collection, newest first
func (r *Repository) List(ctx context.Context) ([]*Item, error) {
	var dbItems []*database.InventoryItem
	err := r.db.NewSelect().
		Model(&dbItems).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	items := make([]*Item, 0, len(dbItems))
	for _, dbi := range dbItems {
		items = append(items, mapDBItemToModel(dbi))
	}

	return items, nil
}

// Update overwrites an item's writable fields. There is no concurrency
// token; the last writer wins.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in ItemInput, updatedBy string) (*Item, error) {
	result, err := r.db.NewUpdate().
		Model((*database.InventoryItem)(nil)).
		Set("name = ?", in.Name).
		Set("category = ?", in.Category).
		Set("quantity = ?", in.Quantity).
		Set("price = ?", in.Price).
		Set("description = ?", in.Description).
		Set("supplier = ?", in.Supplier).
		Set("updated_by = ?", updatedBy).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes an item
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.InventoryItem)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func mapDBItemToModel(dbi *database.InventoryItem) *Item {
	return &Item{
		ID:          dbi.ID,
		Name:        dbi.Name,
		Category:    dbi.Category,
		Quantity:    dbi.Quantity,
		Price:       dbi.Price,
		Description: dbi.Description,
		Supplier:    dbi.Supplier,
		CreatedBy:   dbi.CreatedBy,
		UpdatedBy:   dbi.UpdatedBy,
		CreatedAt:   dbi.CreatedAt,
		UpdatedAt:   dbi.UpdatedAt,
	}
}
