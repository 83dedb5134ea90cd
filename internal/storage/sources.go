package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clayarnold/crosstrainer/internal/domain"
)

// Source is a registered origin of corpus solves, either a local directory
// or a git repository URL.
type Source struct {
	ID          int64
	Path        string
	Type        string
	LastScanned sql.NullTime
}

// InsertSource registers a new source and returns its ID.
func (db *DB) InsertSource(ctx context.Context, path, sourceType string) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO sources (path, type) VALUES (?, ?)`, path, sourceType)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("source %s: %w", path, domain.ErrDuplicate)
		}
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get source ID: %w", err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path, (nil, nil) if absent.
func (db *DB) FindSourceByPath(ctx context.Context, path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, path, type, last_scanned FROM sources WHERE path = ?`, path)
	if err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves every registered source.
func (db *DB) GetAllSources(ctx context.Context) ([]Source, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, path, type, last_scanned FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned stamps the source with the time of a completed scan.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE sources SET last_scanned = ? WHERE id = ?`, at, sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source %d: %w", sourceID, err)
	}
	return nil
}
