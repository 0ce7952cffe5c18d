package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"stocktrack/internal/database"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already registered")
)

// NewAccount carries the fields needed to create an account
type NewAccount struct {
	Username     string
	Email        string
	FullName     string
	Department   string
	Reason       string
	PasswordHash string
	Role         string
	Status       string
}

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. The unique constraints on username and email
// decide races between concurrent registrations: exactly one insert wins,
// the rest surface as duplicate errors.
func (r *Repository) Create(ctx context.Context, acc NewAccount) (*User, error) {
	dbUser := &database.User{
		Username:     acc.Username,
		Email:        acc.Email,
		FullName:     acc.FullName,
		Department:   acc.Department,
		Reason:       acc.Reason,
		PasswordHash: acc.PasswordHash,
		Role:         acc.Role,
		Status:       acc.Status,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if dupErr := mapUniqueViolation(err); dupErr != nil {
			return nil, dupErr
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByUsername retrieves a user by username
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("username = ?", username).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// ListPending returns all accounts awaiting administrator review,
// oldest registration first.
func (r *Repository) ListPending(ctx context.Context) ([]*User, error) {
	var dbUsers []*database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		Where("status = ?", StatusPending).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list pending users: %w", err)
	}

	return mapDBUsersToModels(dbUsers), nil
}

// ListAll returns every account
func (r *Repository) ListAll(ctx context.Context) ([]*User, error) {
	var dbUsers []*database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return mapDBUsersToModels(dbUsers), nil
}

// SetStatus overwrites an account's status and records the decision time.
// The previous status is not checked, so re-approving an approved account
// is a no-op in effect.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("status = ?", status).
		Set("updated_at = NOW()").
		Where("id = ?", id)

	switch status {
	case StatusApproved:
		q = q.Set("approved_at = NOW()")
	case StatusRejected:
		q = q.Set("rejected_at = NOW()")
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set user status: %w", err)
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

// UpdateProfile changes the email and, when newPasswordHash is non-empty,
// the password hash of an account.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, email, newPasswordHash string) error {
	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("email = ?", email).
		Set("updated_at = NOW()").
		Where("id = ?", id)

	if newPasswordHash != "" {
		q = q.Set("password_hash = ?", newPasswordHash)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		if dupErr := mapUniqueViolation(err); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("failed to update profile: %w", err)
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

// UpdatePassword updates a user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
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

// Delete removes an account permanently
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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

// CountByStatus returns a status -> account count breakdown
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}

	err := r.db.NewSelect().
		Model((*database.User)(nil)).
		ColumnExpr("status").
		ColumnExpr("COUNT(*) AS count").
		Group("status").
		Scan(ctx, &rows)

	if err != nil {
		return nil, fmt.Errorf("failed to count users by status: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

// CountAdmins returns the number of administrator accounts
func (r *Repository) CountAdmins(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("role = ?", RoleAdmin).
		Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}

	return count, nil
}

// mapUniqueViolation translates Postgres unique constraint violations into
// the duplicate sentinel for the column involved. Returns nil for other errors.
func mapUniqueViolation(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value violates unique constraint") {
		return nil
	}
	if strings.Contains(msg, "email") {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		Username:     dbu.Username,
		Email:        dbu.Email,
		FullName:     dbu.FullName,
		Department:   dbu.Department,
		Reason:       dbu.Reason,
		PasswordHash: dbu.PasswordHash,
		Role:         dbu.Role,
		Status:       dbu.Status,
		ApprovedAt:   dbu.ApprovedAt,
		RejectedAt:   dbu.RejectedAt,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}

func mapDBUsersToModels(dbUsers []*database.User) []*User {
	users := make([]*User, 0, len(dbUsers))
	for _, dbu := range dbUsers {
		users = append(users, mapDBUserToModel(dbu))
	}
	return users
}
