package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/clayarnold/crosstrainer/internal/domain"
)

// DepthStats aggregates the items scheduled at one depth.
type DepthStats struct {
	Count   int     `json:"count"`
	Active  int     `json:"active"`
	AvgEase float64 `json:"avg_ease"`
}

// Stats is the aggregate view over items and review history. RetentionRate is
// a percentage over the trailing window, nil when the window holds no reviews.
type Stats struct {
	TotalItems      int                         `json:"total_items"`
	ActiveItems     int                         `json:"active_items"`
	DueToday        int                         `json:"due_today"`
	ReviewsLast7    int                         `json:"reviews_last_7_days"`
	RetentionRate   *float64                    `json:"retention_rate"`
	AvgResponseMs   *float64                    `json:"avg_response_ms"`
	ByDepth         map[domain.Depth]DepthStats `json:"by_depth"`
	RetentionWindow int                         `json:"retention_window_days"`
}

// ItemStats computes the aggregate snapshot at the given time. Everything is
// derived from persisted rows; nothing is cached.
func (db *DB) ItemStats(ctx context.Context, now time.Time, retentionWindowDays int) (*Stats, error) {
	stats := &Stats{
		ByDepth:         make(map[domain.Depth]DepthStats),
		RetentionWindow: retentionWindowDays,
	}

	row := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(is_active), 0),
		       COALESCE(SUM(CASE WHEN is_active = 1 AND (next_review_at IS NULL OR next_review_at <= ?) THEN 1 ELSE 0 END), 0)
		FROM srs_items
	`, now)
	if err := row.Scan(&stats.TotalItems, &stats.ActiveItems, &stats.DueToday); err != nil {
		return nil, fmt.Errorf("failed to aggregate srs items: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT depth, COUNT(*), COALESCE(SUM(is_active), 0), AVG(ease_factor)
		FROM srs_items GROUP BY depth ORDER BY depth
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by depth: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d domain.Depth
		var ds DepthStats
		if err := rows.Scan(&d, &ds.Count, &ds.Active, &ds.AvgEase); err != nil {
			return nil, fmt.Errorf("failed to scan depth stats: %w", err)
		}
		stats.ByDepth[d] = ds
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	weekAgo := now.AddDate(0, 0, -7)
	row = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM srs_reviews WHERE reviewed_at >= ?`, weekAgo)
	if err := row.Scan(&stats.ReviewsLast7); err != nil {
		return nil, fmt.Errorf("failed to count recent reviews: %w", err)
	}

	windowStart := now.AddDate(0, 0, -retentionWindowDays)
	var windowTotal, windowCorrect int
	var avgResponse *float64
	row = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN quality >= ? THEN 1 ELSE 0 END), 0),
		       AVG(response_time_ms)
		FROM srs_reviews WHERE reviewed_at >= ?
	`, successThreshold, windowStart)
	if err := row.Scan(&windowTotal, &windowCorrect, &avgResponse); err != nil {
		return nil, fmt.Errorf("failed to compute retention: %w", err)
	}
	if windowTotal > 0 {
		rate := 100 * float64(windowCorrect) / float64(windowTotal)
		stats.RetentionRate = &rate
	}
	stats.AvgResponseMs = avgResponse

	return stats, nil
}

// Mirrors the scheduler's success threshold; a quality of 3 or better counts
// as a retained item.
const successThreshold = 3
