// Package testutil provides shared fixtures for package tests: an
// in-memory SQLite database carrying the inventory schema, and seeding
// helpers.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/iliyamo/displaydb/internal/model"
)

// Schema is the two-table inventory schema in a dialect both MySQL and
// SQLite accept.
const Schema = `
CREATE TABLE Model (
	modelNo    VARCHAR(64) PRIMARY KEY,
	width      REAL,
	height     REAL,
	weight     REAL,
	depth      REAL,
	screenSize REAL
);
CREATE TABLE DigitalDisplay (
	serialNo        VARCHAR(64) PRIMARY KEY,
	schedulerSystem VARCHAR(64),
	modelNo         VARCHAR(64) REFERENCES Model(modelNo)
);
`

// NewSQLiteDB opens a private in-memory database pinned to a single
// connection, applies Schema and closes it when the test ends.
func NewSQLiteDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(Schema)
	require.NoError(t, err)
	return db
}

// SeedModel inserts a model row.
func SeedModel(t testing.TB, db *sql.DB, m model.Model) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO Model (modelNo, width, height, weight, depth, screenSize) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ModelNo, m.Width, m.Height, m.Weight, m.Depth, m.ScreenSize)
	require.NoError(t, err)
}

// SeedDisplay inserts a display row.  The model must already exist.
func SeedDisplay(t testing.TB, db *sql.DB, d model.Display) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO DigitalDisplay (serialNo, schedulerSystem, modelNo) VALUES (?, ?, ?)`,
		d.SerialNo, d.SchedulerSystem, d.ModelNo)
	require.NoError(t, err)
}

// CountRows returns the number of rows in table.
func CountRows(t testing.TB, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

// Chdir changes the working directory to dir and restores the previous
// one when the test ends, like testing.T.Chdir on newer Go releases.
func Chdir(t testing.TB, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
