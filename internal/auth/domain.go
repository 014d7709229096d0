package auth

import "time"

// Roles understood by the storeroom API.
const (
	RoleAdmin       = "admin"
	RoleStorekeeper = "storekeeper"
)

// User represents an authenticated back-office account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
