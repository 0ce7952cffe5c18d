package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted shape of an account in the users table.
// Username and email carry UNIQUE constraints so concurrent registrations
// with the same identity cannot both succeed.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Username     string     `bun:"username,notnull,unique"`
	Email        string     `bun:"email,notnull,unique"`
	FullName     string     `bun:"full_name,notnull"`
	Department   string     `bun:"department"`
	Reason       string     `bun:"reason"`
	PasswordHash string     `bun:"password_hash,notnull"`
	Role         string     `bun:"role,notnull,default:'user'"`
	Status       string     `bun:"status,notnull,default:'pending'"`
	ApprovedAt   *time.Time `bun:"approved_at"`
	RejectedAt   *time.Time `bun:"rejected_at"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// PasswordReset is one emailed reset code. Codes stay in the table after
// consumption until the expired-code sweep removes them.
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_resets,alias:pr"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull"`
	Code      string    `bun:"code,notnull"`
	Consumed  bool      `bun:"consumed,notnull,default:false"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// InventoryItem is one row of the inventory table
type InventoryItem struct {
	bun.BaseModel `bun:"table:inventory,alias:i"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name        string    `bun:"name,notnull"`
	Category    string    `bun:"category,notnull"`
	Quantity    int       `bun:"quantity,notnull,default:0"`
	Price       float64   `bun:"price,notnull,default:0"`
	Description string    `bun:"description"`
	Supplier    string    `bun:"supplier"`
	CreatedBy   string    `bun:"created_by"`
	UpdatedBy   string    `bun:"updated_by"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
