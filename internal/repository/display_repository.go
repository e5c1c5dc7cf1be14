package repository // repository holds data access logic for displays and models

import (
	"context"      // context carries cancellation from the session
	"database/sql" // sql provides DB primitives
	"errors"

	"github.com/iliyamo/displaydb/internal/model"
)

// DisplayRepo provides the statements issued against the DigitalDisplay
// table.  Every method runs exactly one parameterized statement.
type DisplayRepo struct {
	db *sql.DB // db is the session's single connection
}

// NewDisplayRepo constructs a DisplayRepo with the given DB handle.
func NewDisplayRepo(db *sql.DB) *DisplayRepo {
	return &DisplayRepo{db: db}
}

// List returns every display in whatever order the engine yields them.
func (r *DisplayRepo) List(ctx context.Context) ([]model.Display, error) {
	const q = `SELECT serialNo, schedulerSystem, modelNo FROM DigitalDisplay`
	return r.query(ctx, q)
}

// SearchByScheduler returns the displays whose scheduler system equals
// schedulerSystem.  Case sensitivity follows the column collation.
func (r *DisplayRepo) SearchByScheduler(ctx context.Context, schedulerSystem string) ([]model.Display, error) {
	const q = `SELECT serialNo, schedulerSystem, modelNo FROM DigitalDisplay WHERE schedulerSystem = ?`
	return r.query(ctx, q, schedulerSystem)
}

// GetBySerial retrieves a display by serial number.  It returns
// ErrDisplayNotFound when no row matches.
func (r *DisplayRepo) GetBySerial(ctx context.Context, serialNo string) (*model.Display, error) {
	const q = `SELECT serialNo, schedulerSystem, modelNo FROM DigitalDisplay WHERE serialNo = ?`
	var d model.Display
	err := r.db.QueryRowContext(ctx, q, serialNo).Scan(&d.SerialNo, &d.SchedulerSystem, &d.ModelNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisplayNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Create inserts a new display.  The referenced model must already exist;
// a duplicate serial number surfaces as the driver's constraint error.
func (r *DisplayRepo) Create(ctx context.Context, d *model.Display) error {
	const q = `INSERT INTO DigitalDisplay (serialNo, schedulerSystem, modelNo) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, d.SerialNo, d.SchedulerSystem, d.ModelNo)
	return err
}

// UpdateBySerial overwrites the scheduler system and model number of the
// display identified by d.SerialNo.  Returns ErrDisplayNotFound when no
// row matched.
func (r *DisplayRepo) UpdateBySerial(ctx context.Context, d *model.Display) error {
	const q = `UPDATE DigitalDisplay SET schedulerSystem = ?, modelNo = ? WHERE serialNo = ?`
	res, err := r.db.ExecContext(ctx, q, d.SchedulerSystem, d.ModelNo, d.SerialNo)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDisplayNotFound
	}
	return nil
}

// DeleteBySerial physically removes a display.  Returns ErrDisplayNotFound
// when no row matched.
func (r *DisplayRepo) DeleteBySerial(ctx context.Context, serialNo string) error {
	const q = `DELETE FROM DigitalDisplay WHERE serialNo = ?`
	res, err := r.db.ExecContext(ctx, q, serialNo)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDisplayNotFound
	}
	return nil
}

// CountByModel reports how many displays still reference modelNo.
func (r *DisplayRepo) CountByModel(ctx context.Context, modelNo string) (int, error) {
	const q = `SELECT COUNT(*) FROM DigitalDisplay WHERE modelNo = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, modelNo).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *DisplayRepo) query(ctx context.Context, q string, args ...any) ([]model.Display, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Display
	for rows.Next() {
		var d model.Display
		if err := rows.Scan(&d.SerialNo, &d.SchedulerSystem, &d.ModelNo); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
