package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/davidokumbo/cyberdocs/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,email,phone,password_hash,role,created_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// Create inserts a user and returns the stored record.
func (r *UserRepo) Create(ctx context.Context, email string, phone *string, passwordHash, role string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, phone, password_hash, role) VALUES (?,?,?,?)",
		email, phone, passwordHash, role)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns all users, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserUpdate carries the optional fields of a partial user update.  Nil
// means "leave unchanged".
type UserUpdate struct {
	Email        *string
	Phone        *string
	Role         *string
	PasswordHash *string
}

// Update applies the supplied fields only and returns the fresh record.
// With no fields set it is a no-op read.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) (model.User, error) {
	set := []string{}
	args := []any{}
	if upd.Email != nil {
		set = append(set, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.Phone != nil {
		set = append(set, "phone=?")
		args = append(args, nullable(*upd.Phone))
	}
	if upd.Role != nil {
		set = append(set, "role=?")
		args = append(args, *upd.Role)
	}
	if upd.PasswordHash != nil {
		set = append(set, "password_hash=?")
		args = append(args, *upd.PasswordHash)
	}
	if len(set) > 0 {
		args = append(args, id)
		// RowsAffected is not checked: zero can mean identical values.
		// Existence is confirmed by the read below.
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...); err != nil {
			if isDuplicate(err) {
				return model.User{}, ErrEmailExists
			}
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// UpdatePassword stores a new password hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user.  Reset tokens cascade via the foreign key.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicate detects the MySQL 1062 duplicate-key error.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
