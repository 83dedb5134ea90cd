package storage

import (
	"context"
	"fmt"

	"github.com/clayarnold/crosstrainer/internal/domain"
)

// InsertScramble adds a scramble to the practice pool. Inserting the same
// scramble text twice is a silent no-op.
func (db *DB) InsertScramble(ctx context.Context, moves int, scramble string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO scrambles (moves, scramble) VALUES (?, ?)`, moves, scramble)
	if err != nil {
		return fmt.Errorf("failed to insert scramble: %w", err)
	}
	return nil
}

// RandomScrambles picks up to count scrambles with the given cross move count.
func (db *DB) RandomScrambles(ctx context.Context, moves, count int) ([]domain.Scramble, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, moves, scramble FROM scrambles
		WHERE moves = ? ORDER BY RANDOM() LIMIT ?
	`, moves, count)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrambles: %w", err)
	}
	defer rows.Close()

	scrambles := []domain.Scramble{}
	for rows.Next() {
		var s domain.Scramble
		if err := rows.Scan(&s.ID, &s.Moves, &s.Scramble); err != nil {
			return nil, fmt.Errorf("failed to scan scramble: %w", err)
		}
		scrambles = append(scrambles, s)
	}
	return scrambles, rows.Err()
}

// ScrambleCounts returns how many scrambles the pool holds per move count.
func (db *DB) ScrambleCounts(ctx context.Context) (map[int]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT moves, COUNT(*) FROM scrambles GROUP BY moves ORDER BY moves`)
	if err != nil {
		return nil, fmt.Errorf("failed to count scrambles: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var moves, n int
		if err := rows.Scan(&moves, &n); err != nil {
			return nil, fmt.Errorf("failed to scan scramble count: %w", err)
		}
		counts[moves] = n
	}
	return counts, rows.Err()
}
