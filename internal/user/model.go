package user

import (
	"time"

	"github.com/google/uuid"
)

// Account roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account statuses. Registration creates pending accounts; an administrator
// moves them to approved or rejected. Both outcomes are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Department   string     `json:"department,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	PasswordHash string     `json:"-"` // Never expose password hash in JSON
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the account has the administrator role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanLogin reports whether the status gate allows authentication.
// Administrators pass regardless of status.
func (u *User) CanLogin() bool {
	return u.Status == StatusApproved || u.IsAdmin()
}
