package repository

import (
	"context"
	"database/sql"

	"github.com/davidokumbo/cyberdocs/internal/model"
)

type ServiceRepo struct{ DB *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{DB: db} }

const serviceCols = "id,title,description,long_description,image_path,created_at,updated_at"

// List returns every service in the catalog.
func (r *ServiceRepo) List(ctx context.Context) ([]model.Service, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+serviceCols+" FROM services ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []model.Service{}
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.LongDescription,
			&s.ImagePath, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	var s model.Service
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+serviceCols+" FROM services WHERE id=? LIMIT 1", id).
		Scan(&s.ID, &s.Title, &s.Description, &s.LongDescription,
			&s.ImagePath, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

// Create inserts a service and returns the stored record.
func (r *ServiceRepo) Create(ctx context.Context, s model.Service) (model.Service, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO services (title, description, long_description, image_path) VALUES (?,?,?,?)",
		s.Title, s.Description, s.LongDescription, s.ImagePath)
	if err != nil {
		return model.Service{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Service{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update overwrites all mutable columns with the values carried by s.
// Partial-update merging happens in the handler, which loads the current
// row first and copies over only the supplied fields.
func (r *ServiceRepo) Update(ctx context.Context, s model.Service) (model.Service, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE services SET title=?, description=?, long_description=?, image_path=? WHERE id=?",
		s.Title, s.Description, s.LongDescription, s.ImagePath, s.ID)
	if err != nil {
		return model.Service{}, err
	}
	return r.GetByID(ctx, s.ID)
}

func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM services WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
