package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"stocktrack/internal/database"
)

// ErrResetCodeNotFound is returned when no unconsumed record matches
var ErrResetCodeNotFound = errors.New("reset code not found")

// ResetCode is one emailed password reset code
type ResetCode struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Code      string
	Consumed  bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ResetCodeRepository persists reset codes in the password_resets table
type ResetCodeRepository struct {
	db *bun.DB
}

func NewResetCodeRepository(db *bun.DB) *ResetCodeRepository {
	return &ResetCodeRepository{db: db}
}

// Create inserts a fresh unconsumed reset code. Existing codes for the same
// user are left alone; verification accepts any live one.
func (r *ResetCodeRepository) Create(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*ResetCode, error) {
	dbReset := &database.PasswordReset{
		UserID:    userID,
		Code:      code,
		Consumed:  false,
		ExpiresAt: expiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbReset).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to store reset code: %w", err)
	}

	return mapDBResetToModel(dbReset), nil
}

// FindByUserAndCode returns the first unconsumed record matching the pair.
// Expiry is not checked here; the caller decides between expired and invalid.
func (r *ResetCodeRepository) FindByUserAndCode(ctx context.Context, userID uuid.UUID, code string) (*ResetCode, error) {
	dbReset := new(database.PasswordReset)
	err := r.db.NewSelect().
		Model(dbReset).
		Where("user_id = ?", userID).
		Where("code = ?", code).
		Where("consumed = ?", false).
		Order("created_at ASC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResetCodeNotFound
		}
		return nil, fmt.Errorf("failed to find reset code: %w", err)
	}

	return mapDBResetToModel(dbReset), nil
}

// Consume flips consumed to true with a conditional update, so two callers
// racing on the same code cannot both succeed. Returns false when another
// caller got there first.
func (r *ResetCodeRepository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.NewUpdate().
		Model((*database.PasswordReset)(nil)).
		Set("consumed = ?", true).
		Where("id = ?", id).
		Where("consumed = ?", false).
		Exec(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to consume reset code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// SweepExpired deletes every record past its expiration, consumed or not.
// Running it twice in a row is harmless; the second pass deletes nothing.
func (r *ResetCodeRepository) SweepExpired(ctx context.Context) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*database.PasswordReset)(nil)).
		Where("expires_at < NOW()").
		Exec(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired reset codes: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func mapDBResetToModel(dbr *database.PasswordReset) *ResetCode {
	return &ResetCode{
		ID:        dbr.ID,
		UserID:    dbr.UserID,
		Code:      dbr.Code,
		Consumed:  dbr.Consumed,
		ExpiresAt: dbr.ExpiresAt,
		CreatedAt: dbr.CreatedAt,
	}
}
