package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/displaydb/internal/model"
)

// ModelRepo provides the statements issued against the Model table.
type ModelRepo struct {
	db *sql.DB
}

// NewModelRepo constructs a ModelRepo with the given DB handle.
func NewModelRepo(db *sql.DB) *ModelRepo {
	return &ModelRepo{db: db}
}

// GetByModelNo retrieves a model by exact model number.  It returns
// ErrModelNotFound when no row matches.
func (r *ModelRepo) GetByModelNo(ctx context.Context, modelNo string) (*model.Model, error) {
	const q = `SELECT modelNo, width, height, weight, depth, screenSize FROM Model WHERE modelNo = ?`
	var m model.Model
	err := r.db.QueryRowContext(ctx, q, modelNo).
		Scan(&m.ModelNo, &m.Width, &m.Height, &m.Weight, &m.Depth, &m.ScreenSize)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrModelNotFound
		}
		return nil, err
	}
	return &m, nil
}

// List returns every model row.
func (r *ModelRepo) List(ctx context.Context) ([]model.Model, error) {
	const q = `SELECT modelNo, width, height, weight, depth, screenSize FROM Model`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Model
	for rows.Next() {
		var m model.Model
		if err := rows.Scan(&m.ModelNo, &m.Width, &m.Height, &m.Weight, &m.Depth, &m.ScreenSize); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a model row.
func (r *ModelRepo) Create(ctx context.Context, m *model.Model) error {
	const q = `INSERT INTO Model (modelNo, width, height, weight, depth, screenSize)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, m.ModelNo, m.Width, m.Height, m.Weight, m.Depth, m.ScreenSize)
	return err
}

// Delete removes a model row.  Callers must make sure no display still
// references it.  Returns ErrModelNotFound when no row matched.
func (r *ModelRepo) Delete(ctx context.Context, modelNo string) error {
	const q = `DELETE FROM Model WHERE modelNo = ?`
	res, err := r.db.ExecContext(ctx, q, modelNo)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrModelNotFound
	}
	return nil
}
