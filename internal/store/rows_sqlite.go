package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const rowsDBFileName = "sections.sqlite"

// ErrRowNotFound is returned when a row id does not exist in the section.
var ErrRowNotFound = errors.New("row not found")

// StoredRow is one persisted section row. Values hold the submitted text of
// every field.
type StoredRow struct {
	ID        int64
	Values    map[string]string
	UpdatedAt time.Time
}

// RowDB persists section rows for the mock server, keyed by (project, section).
type RowDB struct {
	db  *sql.DB
	now func() time.Time
}

// RowsPath is the default database location inside the store.
func (s Store) RowsPath() string {
	return s.path(rowsDBFileName)
}

// OpenRows opens (and migrates) the row database. path ":memory:" keeps the
// data in process.
func OpenRows(ctx context.Context, path string) (*RowDB, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked" flakiness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateRows(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &RowDB{db: db, now: time.Now}, nil
}

func migrateRows(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS section_rows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL,
			section_key TEXT NOT NULL,
			json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_section_rows_owner ON section_rows(project_id, section_key, id);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate rows: %w", err)
		}
	}
	return nil
}

func (r *RowDB) Close() error { return r.db.Close() }

// List returns the section rows in insertion order.
func (r *RowDB) List(ctx context.Context, projectID, section string) ([]StoredRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, json, updated_at_unixms FROM section_rows WHERE project_id = ? AND section_key = ? ORDER BY id`,
		projectID, section)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (StoredRow, error) {
	var (
		id      int64
		raw     string
		updated int64
	)
	if err := sc.Scan(&id, &raw, &updated); err != nil {
		return StoredRow{}, err
	}
	vals := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &vals); err != nil {
		return StoredRow{}, fmt.Errorf("row %d: %w", id, err)
	}
	return StoredRow{ID: id, Values: vals, UpdatedAt: time.UnixMilli(updated).UTC()}, nil
}

func (r *RowDB) Get(ctx context.Context, projectID, section string, id int64) (StoredRow, error) {
	row, err := scanRow(r.db.QueryRowContext(ctx,
		`SELECT id, json, updated_at_unixms FROM section_rows WHERE project_id = ? AND section_key = ? AND id = ?`,
		projectID, section, id))
	if errors.Is(err, sql.ErrNoRows) {
		return StoredRow{}, ErrRowNotFound
	}
	return row, err
}

// First returns the oldest row of a section; singleton sections use it as
// their only record.
func (r *RowDB) First(ctx context.Context, projectID, section string) (StoredRow, bool, error) {
	row, err := scanRow(r.db.QueryRowContext(ctx,
		`SELECT id, json, updated_at_unixms FROM section_rows WHERE project_id = ? AND section_key = ? ORDER BY id LIMIT 1`,
		projectID, section))
	if errors.Is(err, sql.ErrNoRows) {
		return StoredRow{}, false, nil
	}
	if err != nil {
		return StoredRow{}, false, err
	}
	return row, true, nil
}

func (r *RowDB) Insert(ctx context.Context, projectID, section string, values map[string]string) (StoredRow, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return StoredRow{}, err
	}
	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO section_rows(project_id, section_key, json, created_at_unixms, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		projectID, section, string(raw), now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return StoredRow{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return StoredRow{}, err
	}
	return StoredRow{ID: id, Values: values, UpdatedAt: time.UnixMilli(now.UnixMilli()).UTC()}, nil
}

func (r *RowDB) Update(ctx context.Context, projectID, section string, id int64, values map[string]string) (StoredRow, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return StoredRow{}, err
	}
	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE section_rows SET json = ?, updated_at_unixms = ? WHERE project_id = ? AND section_key = ? AND id = ?`,
		string(raw), now.UnixMilli(), projectID, section, id)
	if err != nil {
		return StoredRow{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return StoredRow{}, ErrRowNotFound
	}
	return StoredRow{ID: id, Values: values, UpdatedAt: time.UnixMilli(now.UnixMilli()).UTC()}, nil
}

func (r *RowDB) Delete(ctx context.Context, projectID, section string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM section_rows WHERE project_id = ? AND section_key = ? AND id = ?`,
		projectID, section, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRowNotFound
	}
	return nil
}
