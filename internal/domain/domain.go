package domain

import "time"

// Depth is how much of the solve an item drills beyond the cross.
// 0 is cross only, 1-3 add that many F2L pairs.
type Depth int

const (
	DepthCross Depth = iota
	DepthPair1
	DepthPair2
	DepthPair3
)

var depthLabels = [...]string{"Cross", "+1 pair", "+2 pairs", "+3 pairs"}

// Valid reports whether d is one of the four defined depths.
func (d Depth) Valid() bool {
	return d >= DepthCross && d <= DepthPair3
}

func (d Depth) String() string {
	if !d.Valid() {
		return "unknown"
	}
	return depthLabels[d]
}

// SRSItem is one scheduled reviewable unit: a solve drilled to a given depth.
// Scheduling fields are mutated only by a recorded review or an explicit
// activation toggle.
type SRSItem struct {
	ID           int64      `json:"id"`
	SolveID      int64      `json:"solve_id"`
	Depth        Depth      `json:"depth"`
	EaseFactor   float64    `json:"ease_factor"`
	IntervalDays int        `json:"interval_days"`
	NextReviewAt *time.Time `json:"next_review_at"`
	TimesCorrect int        `json:"times_correct"`
	TimesWrong   int        `json:"times_incorrect"`
	IsActive     bool       `json:"is_active"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Repetitions is the number of reviews recorded so far, the n fed into the
// interval ladder.
func (it *SRSItem) Repetitions() int {
	return it.TimesCorrect + it.TimesWrong
}

// ReviewEvent is one immutable entry in an item's review history.
type ReviewEvent struct {
	ID             int64     `json:"id"`
	SRSItemID      int64     `json:"srs_item_id"`
	Quality        int       `json:"quality"`
	ResponseTimeMs *int      `json:"response_time_ms,omitempty"`
	ReviewedAt     time.Time `json:"reviewed_at"`
	UserSolution   string    `json:"user_solution,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

// Solve is a historical attempt from the corpus: scramble plus reconstruction
// with per-segment move counts. The SRS engine references solves but never
// mutates them.
type Solve struct {
	ID             int64      `json:"id"`
	Solver         string     `json:"solver"`
	Result         float64    `json:"result"`
	Competition    string     `json:"competition,omitempty"`
	SolveDate      *time.Time `json:"solve_date,omitempty"`
	Scramble       string     `json:"scramble"`
	Reconstruction string     `json:"reconstruction"`
	CrossType      string     `json:"cross_type,omitempty"`
	MovesCross     *int       `json:"stm_cross,omitempty"`
	MovesPair1     *int       `json:"stm_pair1,omitempty"`
	MovesPair2     *int       `json:"stm_pair2,omitempty"`
	MovesPair3     *int       `json:"stm_pair3,omitempty"`
	MovesF2L       *int       `json:"stm_f2l,omitempty"`
	MovesTotal     *int       `json:"stm_total,omitempty"`
	Hash           string     `json:"-"`
	InSRS          []Depth    `json:"in_srs"`
}

// Scramble is one entry in the practice scramble pool, keyed by the number of
// moves the cross solution needs.
type Scramble struct {
	ID       int64  `json:"id"`
	Moves    int    `json:"moves"`
	Scramble string `json:"scramble"`
}
