package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateTables creates the application tables from the bun models if they
// do not exist yet. The users table's unique constraints on username and
// email are part of the model definitions.
func CreateTables(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*PasswordReset)(nil),
		(*InventoryItem)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	// Expiry sweeps and verification both scan by owner
	if _, err := db.NewCreateIndex().
		Model((*PasswordReset)(nil)).
		Index("idx_password_resets_user_id").
		Column("user_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create password reset index: %w", err)
	}

	return nil
}
