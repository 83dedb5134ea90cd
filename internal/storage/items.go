package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clayarnold/crosstrainer/internal/domain"
)

const itemColumns = `id, solve_id, depth, ease_factor, interval_days, next_review_at,
	times_correct, times_incorrect, is_active, notes, created_at`

type itemScanner interface {
	Scan(dest ...any) error
}

func scanItem(row itemScanner) (*domain.SRSItem, error) {
	var it domain.SRSItem
	var next sql.NullTime
	err := row.Scan(
		&it.ID,
		&it.SolveID,
		&it.Depth,
		&it.EaseFactor,
		&it.IntervalDays,
		&next,
		&it.TimesCorrect,
		&it.TimesWrong,
		&it.IsActive,
		&it.Notes,
		&it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if next.Valid {
		t := next.Time
		it.NextReviewAt = &t
	}
	return &it, nil
}

// InsertItem creates a new scheduling item in its initial state. It returns
// domain.ErrDuplicate if an item already exists for the (solve, depth) pair.
func (db *DB) InsertItem(ctx context.Context, solveID int64, depth domain.Depth, ease float64, notes string, now time.Time) (*domain.SRSItem, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO srs_items (solve_id, depth, ease_factor, interval_days, notes, created_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, solveID, depth, ease, notes, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("srs item for solve %d depth %d: %w", solveID, depth, domain.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert srs item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get srs item ID: %w", err)
	}
	return db.FindItem(ctx, id)
}

// FindItem retrieves an item by ID. It returns (nil, nil) when no such item
// exists.
func (db *DB) FindItem(ctx context.Context, id int64) (*domain.SRSItem, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM srs_items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find srs item %d: %w", id, err)
	}
	return it, nil
}

// FindItemBySolveDepth retrieves an item by its natural (solve, depth) key.
// It returns (nil, nil) when no such item exists.
func (db *DB) FindItemBySolveDepth(ctx context.Context, solveID int64, depth domain.Depth) (*domain.SRSItem, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM srs_items WHERE solve_id = ? AND depth = ?`, solveID, depth)
	it, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find srs item for solve %d depth %d: %w", solveID, depth, err)
	}
	return it, nil
}

// DeleteItem removes an item and, via the schema cascade, its review history.
// The second return reports whether a row was actually deleted.
func (db *DB) DeleteItem(ctx context.Context, id int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM srs_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete srs item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return n > 0, nil
}

// DeleteItemBySolveDepth removes an item keyed by the natural pair.
func (db *DB) DeleteItemBySolveDepth(ctx context.Context, solveID int64, depth domain.Depth) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM srs_items WHERE solve_id = ? AND depth = ?`, solveID, depth)
	if err != nil {
		return false, fmt.Errorf("failed to delete srs item for solve %d depth %d: %w", solveID, depth, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return n > 0, nil
}

// SetItemActive flips the active flag, leaving every scheduling field alone.
// It returns (nil, nil) when no such item exists.
func (db *DB) SetItemActive(ctx context.Context, id int64, active bool) (*domain.SRSItem, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE srs_items SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return nil, fmt.Errorf("failed to set active for srs item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to count updated rows: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return db.FindItem(ctx, id)
}

// DueItems returns active items whose next review time has arrived or is
// unset, never-reviewed items first, then by ascending due time with
// created_at as the tie-break.
func (db *DB) DueItems(ctx context.Context, depth *domain.Depth, limit int, now time.Time) ([]domain.SRSItem, error) {
	query := `SELECT ` + itemColumns + ` FROM srs_items
		WHERE is_active = 1 AND (next_review_at IS NULL OR next_review_at <= ?)`
	args := []any{now}
	if depth != nil {
		query += ` AND depth = ?`
		args = append(args, *depth)
	}
	query += ` ORDER BY next_review_at ASC NULLS FIRST, created_at ASC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query due items: %w", err)
	}
	defer rows.Close()

	var items []domain.SRSItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// ItemFilter restricts and pages an item listing.
type ItemFilter struct {
	ActiveOnly bool
	Depth      *domain.Depth
	Limit      int
	Offset     int
}

// ListItems returns one page of items plus the total count over the same
// predicate.
func (db *DB) ListItems(ctx context.Context, f ItemFilter) ([]domain.SRSItem, int, error) {
	where := ` WHERE 1=1`
	var args []any
	if f.ActiveOnly {
		where += ` AND is_active = 1`
	}
	if f.Depth != nil {
		where += ` AND depth = ?`
		args = append(args, *f.Depth)
	}

	var total int
	row := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM srs_items`+where, args...)
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count srs items: %w", err)
	}

	query := `SELECT ` + itemColumns + ` FROM srs_items` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list srs items: %w", err)
	}
	defer rows.Close()

	var items []domain.SRSItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan srs item: %w", err)
		}
		items = append(items, *it)
	}
	return items, total, rows.Err()
}

// RecordReview loads the item inside a transaction, asks decide for the new
// state and the history event, and persists both. Either both writes commit
// or neither does. It returns (nil, nil) when the item does not exist.
func (db *DB) RecordReview(ctx context.Context, itemID int64, decide func(domain.SRSItem) (domain.SRSItem, domain.ReviewEvent, error)) (*domain.SRSItem, error) {
	var updated *domain.SRSItem
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+itemColumns+` FROM srs_items WHERE id = ?`, itemID)
		it, err := scanItem(row)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return fmt.Errorf("failed to load srs item %d: %w", itemID, err)
		}

		next, ev, err := decide(*it)
		if err != nil {
			return err
		}

		var nextReview any
		if next.NextReviewAt != nil {
			nextReview = *next.NextReviewAt
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE srs_items
			SET ease_factor = ?, interval_days = ?, next_review_at = ?,
			    times_correct = ?, times_incorrect = ?
			WHERE id = ?
		`,
			next.EaseFactor,
			next.IntervalDays,
			nextReview,
			next.TimesCorrect,
			next.TimesWrong,
			itemID,
		); err != nil {
			return fmt.Errorf("failed to update srs item %d: %w", itemID, err)
		}

		var responseTime any
		if ev.ResponseTimeMs != nil {
			responseTime = *ev.ResponseTimeMs
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO srs_reviews (srs_item_id, quality, response_time_ms, reviewed_at, user_solution, notes)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			itemID,
			ev.Quality,
			responseTime,
			ev.ReviewedAt,
			ev.UserSolution,
			ev.Notes,
		); err != nil {
			return fmt.Errorf("failed to insert review event: %w", err)
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReviewsForItem returns the full review history of one item, oldest first.
func (db *DB) ReviewsForItem(ctx context.Context, itemID int64) ([]domain.ReviewEvent, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, srs_item_id, quality, response_time_ms, reviewed_at, user_solution, notes
		FROM srs_reviews WHERE srs_item_id = ? ORDER BY reviewed_at ASC, id ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews for item %d: %w", itemID, err)
	}
	defer rows.Close()

	var events []domain.ReviewEvent
	for rows.Next() {
		var ev domain.ReviewEvent
		var rt sql.NullInt64
		if err := rows.Scan(&ev.ID, &ev.SRSItemID, &ev.Quality, &rt, &ev.ReviewedAt, &ev.UserSolution, &ev.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan review event: %w", err)
		}
		if rt.Valid {
			ms := int(rt.Int64)
			ev.ResponseTimeMs = &ms
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
