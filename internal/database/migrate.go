package database

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/davidokumbo/cyberdocs/pkg/logger"
)

// Schema statements are idempotent so Init can run on every startup.  The
// process must not serve traffic over a half-created schema; callers treat
// any error here as fatal.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		phone VARCHAR(20) NULL,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('user','admin') NOT NULL DEFAULT 'user',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS password_reset_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash VARCHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		long_description TEXT NULL,
		image_path VARCHAR(255) NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		preview_text TEXT NULL,
		category VARCHAR(50) NOT NULL DEFAULT 'other',
		document_path VARCHAR(255) NOT NULL,
		thumbnail_path VARCHAR(255) NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
}

// Init creates the schema and guarantees at least one admin account exists.
// adminPassword may be empty, in which case no bootstrap admin is created
// when the table has none; that is logged loudly since the back-office
// becomes unreachable.
func Init(ctx context.Context, db *sql.DB, adminEmail, adminPassword string, bcryptCost int) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return bootstrapAdmin(ctx, db, adminEmail, adminPassword, bcryptCost)
}

func bootstrapAdmin(ctx context.Context, db *sql.DB, email, password string, cost int) error {
	var n int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role='admin'").Scan(&n); err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return nil
	}
	if password == "" {
		lg := logger.Get()
		lg.Warn().Msg("no admin account exists and ADMIN_PASSWORD is unset; back-office is unreachable")
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?, 'admin')",
		email, string(hash)); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	lg := logger.Get()
	lg.Info().Str("email", email).Msg("bootstrap admin user created")
	return nil
}
