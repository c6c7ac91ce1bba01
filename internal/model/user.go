package model

import "time"

// Roles stored in users.role.  The column is an ENUM so any other value is
// rejected by the database as well.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a row in the `users` table.  PasswordHash never leaves the
// server; the json tag strips it from every response.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// PasswordResetToken models a row in `password_reset_tokens`.  Only the
// SHA-256 hash of the token is stored; the raw value is mailed to the user
// and seen by the server exactly twice (issue and redeem).
type PasswordResetToken struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
