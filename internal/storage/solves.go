package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clayarnold/crosstrainer/internal/domain"
)

const solveColumns = `id, solver, result, competition, solve_date, scramble, reconstruction,
	cross_type, stm_cross, stm_pair1, stm_pair2, stm_pair3, stm_f2l, stm_total, hash`

func scanSolve(row itemScanner) (*domain.Solve, error) {
	var s domain.Solve
	var competition, crossType sql.NullString
	var solveDate sql.NullTime
	var cross, p1, p2, p3, f2l, total sql.NullInt64
	err := row.Scan(
		&s.ID,
		&s.Solver,
		&s.Result,
		&competition,
		&solveDate,
		&s.Scramble,
		&s.Reconstruction,
		&crossType,
		&cross, &p1, &p2, &p3, &f2l, &total,
		&s.Hash,
	)
	if err != nil {
		return nil, err
	}
	s.Competition = competition.String
	s.CrossType = crossType.String
	if solveDate.Valid {
		t := solveDate.Time
		s.SolveDate = &t
	}
	for _, c := range []struct {
		src sql.NullInt64
		dst **int
	}{
		{cross, &s.MovesCross},
		{p1, &s.MovesPair1},
		{p2, &s.MovesPair2},
		{p3, &s.MovesPair3},
		{f2l, &s.MovesF2L},
		{total, &s.MovesTotal},
	} {
		if c.src.Valid {
			v := int(c.src.Int64)
			*c.dst = &v
		}
	}
	return &s, nil
}

// InsertSolve stores a corpus solve and returns its assigned ID. A zero
// sourceID stores NULL. It returns domain.ErrDuplicate when a solve with the
// same hash exists.
func (db *DB) InsertSolve(ctx context.Context, s *domain.Solve, sourceID int64) (int64, error) {
	var src any
	if sourceID != 0 {
		src = sourceID
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO solves (solver, result, competition, solve_date, scramble, reconstruction,
			cross_type, stm_cross, stm_pair1, stm_pair2, stm_pair3, stm_f2l, stm_total, hash, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.Solver,
		s.Result,
		nullString(s.Competition),
		s.SolveDate,
		s.Scramble,
		s.Reconstruction,
		nullString(s.CrossType),
		s.MovesCross,
		s.MovesPair1,
		s.MovesPair2,
		s.MovesPair3,
		s.MovesF2L,
		s.MovesTotal,
		s.Hash,
		src,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("solve %s: %w", s.Hash, domain.ErrDuplicate)
		}
		return 0, fmt.Errorf("failed to insert solve %s: %w", s.Hash, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get solve ID: %w", err)
	}
	return id, nil
}

// FindSolve retrieves a solve by ID, with the depths it is scheduled at.
// It returns (nil, nil) when no such solve exists.
func (db *DB) FindSolve(ctx context.Context, id int64) (*domain.Solve, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+solveColumns+` FROM solves WHERE id = ?`, id)
	s, err := scanSolve(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find solve %d: %w", id, err)
	}
	if s.InSRS, err = db.depthsInSRS(ctx, id); err != nil {
		return nil, err
	}
	return s, nil
}

// FindSolveByHash retrieves a solve by its content hash, (nil, nil) if absent.
func (db *DB) FindSolveByHash(ctx context.Context, hash string) (*domain.Solve, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+solveColumns+` FROM solves WHERE hash = ?`, hash)
	s, err := scanSolve(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find solve by hash %s: %w", hash, err)
	}
	return s, nil
}

func (db *DB) depthsInSRS(ctx context.Context, solveID int64) ([]domain.Depth, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT depth FROM srs_items WHERE solve_id = ? ORDER BY depth`, solveID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled depths for solve %d: %w", solveID, err)
	}
	defer rows.Close()

	depths := []domain.Depth{}
	for rows.Next() {
		var d domain.Depth
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan depth: %w", err)
		}
		depths = append(depths, d)
	}
	return depths, rows.Err()
}

// SolveFilter restricts, orders, and pages a solve listing. Nil bounds are
// not applied.
type SolveFilter struct {
	Solver    string
	MinResult *float64
	MaxResult *float64
	MinCross  *int
	MaxCross  *int
	MinPair1  *int
	MaxPair1  *int
	MinPair2  *int
	MaxPair2  *int
	MinPair3  *int
	MaxPair3  *int
	MinF2L    *int
	MaxF2L    *int
	MinTotal  *int
	MaxTotal  *int
	CrossType string
	SortBy    string
	SortDesc  bool
	Limit     int
	Offset    int
}

// Whitelist of sortable columns; anything else falls back to result.
var solveSortColumns = map[string]string{
	"result": "result",
	"cross":  "stm_cross",
	"pair1":  "stm_pair1",
	"pair2":  "stm_pair2",
	"pair3":  "stm_pair3",
	"f2l":    "stm_f2l",
	"total":  "stm_total",
	"date":   "solve_date",
}

func (f SolveFilter) where() (string, []any) {
	where := ` WHERE 1=1`
	var args []any
	if f.Solver != "" {
		where += ` AND solver LIKE ?`
		args = append(args, "%"+f.Solver+"%")
	}
	if f.CrossType != "" {
		where += ` AND cross_type = ?`
		args = append(args, f.CrossType)
	}
	if f.MinResult != nil {
		where += ` AND result >= ?`
		args = append(args, *f.MinResult)
	}
	if f.MaxResult != nil {
		where += ` AND result <= ?`
		args = append(args, *f.MaxResult)
	}
	for _, b := range []struct {
		col      string
		min, max *int
	}{
		{"stm_cross", f.MinCross, f.MaxCross},
		{"stm_pair1", f.MinPair1, f.MaxPair1},
		{"stm_pair2", f.MinPair2, f.MaxPair2},
		{"stm_pair3", f.MinPair3, f.MaxPair3},
		{"stm_f2l", f.MinF2L, f.MaxF2L},
		{"stm_total", f.MinTotal, f.MaxTotal},
	} {
		if b.min != nil {
			where += ` AND ` + b.col + ` >= ?`
			args = append(args, *b.min)
		}
		if b.max != nil {
			where += ` AND ` + b.col + ` <= ?`
			args = append(args, *b.max)
		}
	}
	return where, args
}

// ListSolves returns one page of the corpus plus the total count over the
// same predicate.
func (db *DB) ListSolves(ctx context.Context, f SolveFilter) ([]domain.Solve, int, error) {
	where, args := f.where()

	var total int
	row := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM solves`+where, args...)
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count solves: %w", err)
	}

	sortCol, ok := solveSortColumns[f.SortBy]
	if !ok {
		sortCol = "result"
	}
	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}
	query := `SELECT ` + solveColumns + ` FROM solves` + where +
		` ORDER BY ` + sortCol + ` ` + direction + ` NULLS LAST LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list solves: %w", err)
	}
	defer rows.Close()

	var solves []domain.Solve
	for rows.Next() {
		s, err := scanSolve(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan solve: %w", err)
		}
		solves = append(solves, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range solves {
		if solves[i].InSRS, err = db.depthsInSRS(ctx, solves[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return solves, total, nil
}

// SolveHashesBySource returns the content hashes of every solve imported from
// the given source.
func (db *DB) SolveHashesBySource(ctx context.Context, sourceID int64) (map[string]int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT hash, id FROM solves WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query solves for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	hashes := make(map[string]int64)
	for rows.Next() {
		var h string
		var id int64
		if err := rows.Scan(&h, &id); err != nil {
			return nil, fmt.Errorf("failed to scan solve hash: %w", err)
		}
		hashes[h] = id
	}
	return hashes, rows.Err()
}

// DeleteSolveIfUnscheduled removes a solve only when no SRS item references
// it; scheduled solves stay even after their source file disappears.
func (db *DB) DeleteSolveIfUnscheduled(ctx context.Context, id int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM solves
		WHERE id = ? AND NOT EXISTS (SELECT 1 FROM srs_items WHERE solve_id = solves.id)
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete solve %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return n > 0, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
