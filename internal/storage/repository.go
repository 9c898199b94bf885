package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendboard/internal/core"
	"spendboard/internal/sources"

	_ "modernc.org/sqlite"
)

// ErrNoImports is returned by LatestImport before anything was imported.
var ErrNoImports = errors.New("no imports recorded")

// Import describes one snapshot written by ReplaceAll.
type Import struct {
	ID          int64     `json:"id"`
	Source      string    `json:"source"`
	RecordCount int       `json:"recordCount"`
	ImportedAt  time.Time `json:"importedAt"`
}

type SQLiteRepository struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Ensure interface conformance
var (
	_ sources.RecordSource = (*SQLiteRepository)(nil)
	_ sources.RecordWriter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Name() string { return "sqlite:" + r.path }

// ReplaceAll swaps the stored snapshot for records in one transaction and
// returns the id of the new import.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, source string, records []core.SpendRecord) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO imports (source, record_count, imported_at) VALUES (?, ?, ?)`,
		source, len(records), r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	importID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("import id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM spend_records`); err != nil {
		return 0, fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO spend_records
		(import_id, company, invoice, po_number, txn_date, supplier, country, level1, level2, level3, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, importID,
			rec.Company, rec.Invoice, rec.PONumber, rec.Date, rec.Supplier,
			rec.Country, rec.Level1, rec.Level2, rec.Level3, rec.Amount); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Spend snapshot replaced",
		"import_id", importID,
		"source", source,
		"records", len(records))
	return importID, nil
}

// Load returns the stored records in insertion order.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.SpendRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT company, invoice, po_number, txn_date, supplier,
		country, level1, level2, level3, amount FROM spend_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []core.SpendRecord{}
	for rows.Next() {
		var rec core.SpendRecord
		if err := rows.Scan(&rec.Company, &rec.Invoice, &rec.PONumber, &rec.Date, &rec.Supplier,
			&rec.Country, &rec.Level1, &rec.Level2, &rec.Level3, &rec.Amount); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// LatestImport returns the most recent import.
func (r *SQLiteRepository) LatestImport(ctx context.Context) (Import, error) {
	imports, err := r.Imports(ctx, 1)
	if err != nil {
		return Import{}, err
	}
	if len(imports) == 0 {
		return Import{}, ErrNoImports
	}
	return imports[0], nil
}

// Imports lists up to limit imports, newest first.
func (r *SQLiteRepository) Imports(ctx context.Context, limit int) ([]Import, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, record_count, imported_at FROM imports ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		var (
			imp Import
			at  string
		)
		if err := rows.Scan(&imp.ID, &imp.Source, &imp.RecordCount, &at); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imp.ImportedAt, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse import time %q: %w", at, err)
		}
		out = append(out, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imports: %w", err)
	}
	return out, nil
}
