package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"complyview/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Fixed width so stored timestamps also sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection; one connection keeps them in force.
	db.SetMaxOpenConns(1)
	// WAL lets the web server read while the CLI imports.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			batch_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			product TEXT NOT NULL DEFAULT '',
			imported_at TEXT NOT NULL,
			entry_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS entries (
			batch_id TEXT NOT NULL REFERENCES batches(batch_id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			chunk_index INTEGER NOT NULL,
			parameter TEXT NOT NULL,
			actual_value TEXT NOT NULL,
			expected_value TEXT NOT NULL,
			is_compliant INTEGER NOT NULL,
			explanation TEXT NOT NULL,
			PRIMARY KEY (batch_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS standard_params (
			batch_id TEXT NOT NULL REFERENCES batches(batch_id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (batch_id, name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_batches_imported_at ON batches(imported_at);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// ImportOptions describes where a result set came from.
type ImportOptions struct {
	Source  string
	Product string
	// OnProgress, when set, is called after each stored entry.
	OnProgress func(done, total int)
}

// Import stores a result set as a new batch in one transaction.
func (s Store) Import(ctx context.Context, rs ResultSet, opt ImportOptions) (model.Batch, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Batch{}, err
	}
	defer db.Close()

	b := model.Batch{
		ID:         "batch-" + uuid.NewString(),
		Source:     strings.TrimSpace(opt.Source),
		Product:    strings.TrimSpace(opt.Product),
		ImportedAt: time.Now().UTC(),
		EntryCount: len(rs.Entries),
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.Batch{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batches(batch_id, source, product, imported_at, entry_count) VALUES(?, ?, ?, ?, ?)`,
		b.ID, b.Source, b.Product, b.ImportedAt.Format(timeLayout), b.EntryCount,
	); err != nil {
		return model.Batch{}, fmt.Errorf("insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries(batch_id, seq, chunk_index, parameter, actual_value, expected_value, is_compliant, explanation) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return model.Batch{}, err
	}
	defer stmt.Close()

	for i, e := range rs.Entries {
		if _, err := stmt.ExecContext(ctx, b.ID, i, e.ChunkIndex, e.Parameter, e.ActualValue, e.ExpectedValue, boolToInt(e.IsCompliant), e.Explanation); err != nil {
			return model.Batch{}, fmt.Errorf("insert entry %d: %w", i, err)
		}
		if opt.OnProgress != nil {
			opt.OnProgress(i+1, len(rs.Entries))
		}
	}
	for _, p := range rs.StandardParams {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO standard_params(batch_id, name, value) VALUES(?, ?, ?)`, b.ID, p.Name, p.Value); err != nil {
			return model.Batch{}, fmt.Errorf("insert standard param %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Batch{}, err
	}
	return b, nil
}

// Batches lists imported batches, newest first.
func (s Store) Batches(ctx context.Context) ([]model.Batch, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT batch_id, source, product, imported_at, entry_count FROM batches ORDER BY rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LatestBatch returns the most recently imported batch; ok is false when
// nothing has been imported.
func (s Store) LatestBatch(ctx context.Context) (model.Batch, bool, error) {
	bs, err := s.Batches(ctx)
	if err != nil {
		return model.Batch{}, false, err
	}
	if len(bs) == 0 {
		return model.Batch{}, false, nil
	}
	return bs[0], true, nil
}

func (s Store) Batch(ctx context.Context, id string) (model.Batch, error) {
	id = strings.TrimSpace(id)
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Batch{}, err
	}
	defer db.Close()

	row := db.QueryRowContext(ctx, `SELECT batch_id, source, product, imported_at, entry_count FROM batches WHERE batch_id = ?`, id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Batch{}, NotFoundError{Kind: "batch", ID: id}
	}
	return b, err
}

// ResolveBatch returns the named batch, or the latest one when id is empty.
func (s Store) ResolveBatch(ctx context.Context, id string) (model.Batch, error) {
	if strings.TrimSpace(id) != "" {
		return s.Batch(ctx, id)
	}
	b, ok, err := s.LatestBatch(ctx)
	if err != nil {
		return model.Batch{}, err
	}
	if !ok {
		return model.Batch{}, ErrNoBatches
	}
	return b, nil
}

// Entries returns a batch's entries in file order.
func (s Store) Entries(ctx context.Context, batchID string) ([]model.Entry, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT chunk_index, parameter, actual_value, expected_value, is_compliant, explanation FROM entries WHERE batch_id = ? ORDER BY seq`, strings.TrimSpace(batchID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Entry
	for rows.Next() {
		var e model.Entry
		var compliant int
		if err := rows.Scan(&e.ChunkIndex, &e.Parameter, &e.ActualValue, &e.ExpectedValue, &compliant, &e.Explanation); err != nil {
			return nil, err
		}
		e.IsCompliant = compliant != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s Store) StandardParams(ctx context.Context, batchID string) ([]model.StandardParam, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT name, value FROM standard_params WHERE batch_id = ? ORDER BY name`, strings.TrimSpace(batchID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StandardParam
	for rows.Next() {
		var p model.StandardParam
		if err := rows.Scan(&p.Name, &p.Value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s Store) DeleteBatch(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, `DELETE FROM batches WHERE batch_id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError{Kind: "batch", ID: id}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(r rowScanner) (model.Batch, error) {
	var b model.Batch
	var at string
	if err := r.Scan(&b.ID, &b.Source, &b.Product, &at, &b.EntryCount); err != nil {
		return model.Batch{}, err
	}
	t, err := time.Parse(timeLayout, at)
	if err != nil {
		return model.Batch{}, fmt.Errorf("batch %s: bad imported_at %q: %w", b.ID, at, err)
	}
	b.ImportedAt = t
	return b, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Results is a batch with everything needed to render it.
type Results struct {
	Batch          model.Batch
	Entries        []model.Entry
	StandardParams []model.StandardParam
}

// LoadResults loads a batch (the latest when batchID is empty).
func (s Store) LoadResults(ctx context.Context, batchID string) (Results, error) {
	b, err := s.ResolveBatch(ctx, batchID)
	if err != nil {
		return Results{}, err
	}
	entries, err := s.Entries(ctx, b.ID)
	if err != nil {
		return Results{}, err
	}
	params, err := s.StandardParams(ctx, b.ID)
	if err != nil {
		return Results{}, err
	}
	return Results{Batch: b, Entries: entries, StandardParams: params}, nil
}
