package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/davidokumbo/cyberdocs/internal/model"
)

type DocumentRepo struct{ DB *sql.DB }

func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{DB: db} }

const documentCols = "id,title,description,preview_text,category,document_path,thumbnail_path,created_at,updated_at"

// DocumentFilter narrows a listing.  Category matches exactly ("" or "all"
// disables it); Search matches title or description as a case-insensitive
// substring.  Both together combine as AND.
type DocumentFilter struct {
	Category string
	Search   string
}

// whereClause builds the WHERE fragment and its arguments for a filter.
// Split out so the AND-combination logic is testable without a database.
func (f DocumentFilter) whereClause() (string, []any) {
	where := []string{}
	args := []any{}
	if f.Category != "" && f.Category != "all" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Search != "" {
		term := "%" + strings.ToLower(f.Search) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, term, term)
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// List returns documents matching the filter.
func (r *DocumentRepo) List(ctx context.Context, f DocumentFilter) ([]model.Document, error) {
	cond, args := f.whereClause()
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+documentCols+" FROM documents"+cond+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []model.Document{}
	for rows.Next() {
		var d model.Document
		if err := scanDocument(rows, &d); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func scanDocument(rows *sql.Rows, d *model.Document) error {
	return rows.Scan(&d.ID, &d.Title, &d.Description, &d.PreviewText, &d.Category,
		&d.DocumentPath, &d.ThumbnailPath, &d.CreatedAt, &d.UpdatedAt)
}

func (r *DocumentRepo) GetByID(ctx context.Context, id uint64) (model.Document, error) {
	var d model.Document
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+documentCols+" FROM documents WHERE id=? LIMIT 1", id).
		Scan(&d.ID, &d.Title, &d.Description, &d.PreviewText, &d.Category,
			&d.DocumentPath, &d.ThumbnailPath, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	return d, err
}

// Create inserts a document and returns the stored record.
func (r *DocumentRepo) Create(ctx context.Context, d model.Document) (model.Document, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO documents (title, description, preview_text, category, document_path, thumbnail_path) VALUES (?,?,?,?,?,?)",
		d.Title, d.Description, d.PreviewText, d.Category, d.DocumentPath, d.ThumbnailPath)
	if err != nil {
		return model.Document{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Document{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update overwrites all mutable columns; the handler merges partial input
// into the current row before calling this.
func (r *DocumentRepo) Update(ctx context.Context, d model.Document) (model.Document, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE documents SET title=?, description=?, preview_text=?, category=?, document_path=?, thumbnail_path=? WHERE id=?",
		d.Title, d.Description, d.PreviewText, d.Category, d.DocumentPath, d.ThumbnailPath, d.ID)
	if err != nil {
		return model.Document{}, err
	}
	return r.GetByID(ctx, d.ID)
}

func (r *DocumentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM documents WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
