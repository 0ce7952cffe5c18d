package account

import (
	"context"

	"github.com/google/uuid"

	"stocktrack/internal/user"
)

// UserStore is the slice of the user repository the account handlers need
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, email, newPasswordHash string) error
	ListAll(ctx context.Context) ([]*user.User, error)
	ListPending(ctx context.Context) ([]*user.User, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountAdmins(ctx context.Context) (int, error)
}
