package repository

import (
	"context"
	"database/sql"
	"time"
)

// ResetTokenRepo persists password-reset tokens.  A user has at most one
// live token: issuing a new one deletes whatever came before it.
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Replace deletes any prior token for the user and stores the new hash.
func (r *ResetTokenRepo) Replace(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	if _, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE user_id=?", userID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// FindValid returns the owning user of a non-expired token hash.  Missing
// and expired rows both yield ErrTokenInvalid.
func (r *ResetTokenRepo) FindValid(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM password_reset_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt)
	if err == sql.ErrNoRows {
		return 0, ErrTokenInvalid
	}
	if err != nil {
		return 0, err
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}

// DeleteForUser removes all tokens held by the user, consuming a redeemed
// token so it cannot be replayed.
func (r *ResetTokenRepo) DeleteForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE user_id=?", userID)
	return err
}
