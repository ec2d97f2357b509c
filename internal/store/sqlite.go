// Package store persists imported snapshots of the bulletin collection.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cvedash/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrNoSnapshot is returned when nothing was imported yet.
var ErrNoSnapshot = errors.New("no snapshot imported")

// recordColumns follows model.ExportColumns.
var recordColumns = []string{
	"title", "bulletin_type", "publication_date", "cve_id", "cvss_score",
	"base_severity", "cwe_type", "epss_score", "link", "description",
	"vendor", "product", "affected_versions",
}

// SnapshotInfo describes the stored snapshot.
type SnapshotInfo struct {
	ID          int64     `json:"id" yaml:"id"`
	Origin      string    `json:"origin" yaml:"origin"`
	RecordCount int       `json:"recordCount" yaml:"recordCount"`
	ImportedAt  time.Time `json:"importedAt" yaml:"importedAt"`
}

// SQLiteStore keeps at most one snapshot in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens the database and applies migrations
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		origin TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		imported_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS records (
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		bulletin_type TEXT NOT NULL,
		publication_date TEXT NOT NULL,
		cve_id TEXT NOT NULL,
		cvss_score TEXT NOT NULL,
		base_severity TEXT NOT NULL,
		cwe_type TEXT NOT NULL,
		epss_score TEXT NOT NULL,
		link TEXT NOT NULL,
		description TEXT NOT NULL,
		vendor TEXT NOT NULL,
		product TEXT NOT NULL,
		affected_versions TEXT NOT NULL,
		PRIMARY KEY (snapshot_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_records_cve ON records(cve_id);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRecords replaces the stored snapshot with records in one transaction.
func (s *SQLiteStore) SaveRecords(ctx context.Context, origin string, records []model.VulnerabilityRecord) (SnapshotInfo, error) {
	info := SnapshotInfo{Origin: origin, RecordCount: len(records), ImportedAt: s.now().UTC()}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return SnapshotInfo{}, fmt.Errorf("clear records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return SnapshotInfo{}, fmt.Errorf("clear snapshots: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (origin, record_count, imported_at) VALUES (?, ?, ?)`,
		info.Origin, info.RecordCount, info.ImportedAt)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("insert snapshot: %w", err)
	}
	if info.ID, err = res.LastInsertId(); err != nil {
		return SnapshotInfo{}, fmt.Errorf("snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (snapshot_id, position, title, bulletin_type,
		publication_date, cve_id, cvss_score, base_severity, cwe_type, epss_score, link, description,
		vendor, product, affected_versions) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		args := []interface{}{info.ID, i}
		for _, v := range r.ExportRow() {
			args = append(args, v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return SnapshotInfo{}, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return SnapshotInfo{}, fmt.Errorf("commit import: %w", err)
	}
	return info, nil
}

// Info describes the stored snapshot.
func (s *SQLiteStore) Info(ctx context.Context) (SnapshotInfo, error) {
	var info SnapshotInfo
	err := s.db.QueryRowContext(ctx,
		`SELECT id, origin, record_count, imported_at FROM snapshots ORDER BY id DESC LIMIT 1`).
		Scan(&info.ID, &info.Origin, &info.RecordCount, &info.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotInfo{}, ErrNoSnapshot
	}
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("query snapshot: %w", err)
	}
	return info, nil
}

// Fetch loads the stored collection in import order.
func (s *SQLiteStore) Fetch(ctx context.Context) ([]model.VulnerabilityRecord, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT title, bulletin_type, publication_date, cve_id, cvss_score, base_severity,
		cwe_type, epss_score, link, description, vendor, product, affected_versions
		FROM records WHERE snapshot_id = ? ORDER BY position`
	rows, err := s.db.QueryContext(ctx, query, info.ID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := make([]model.VulnerabilityRecord, 0, info.RecordCount)
	for rows.Next() {
		values := make([]string, len(recordColumns))
		dest := make([]interface{}, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, model.FromRow(model.ExportColumns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
