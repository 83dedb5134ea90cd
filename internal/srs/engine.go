// Package srs is the spaced-repetition scheduling engine: it decides which
// solves are due for review and applies review outcomes to their schedules.
package srs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/clayarnold/crosstrainer/internal/domain"
	"github.com/clayarnold/crosstrainer/internal/sm2"
	"github.com/clayarnold/crosstrainer/internal/storage"
)

const (
	// Defaults and caps for paged reads.
	DefaultListLimit = 20
	DefaultDueLimit  = 10
	MaxLimit         = 100

	// Trailing window the retention rate is computed over.
	DefaultRetentionWindowDays = 30
)

// Engine orchestrates the item store and the scheduler. It holds no
// scheduling state of its own; due-ness is recomputed from persisted rows on
// every call.
type Engine struct {
	db                  *storage.DB
	validate            *validator.Validate
	retentionWindowDays int
	now                 func() time.Time
}

// New creates an engine over the given store.
func New(db *storage.DB) *Engine {
	return &Engine{
		db:                  db,
		validate:            validator.New(),
		retentionWindowDays: DefaultRetentionWindowDays,
		now:                 time.Now,
	}
}

func (e *Engine) check(req any) error {
	if err := e.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// AddItemRequest creates one scheduling item for a corpus solve.
type AddItemRequest struct {
	SolveID int64 `validate:"required,min=1"`
	Depth   int   `validate:"min=0,max=3"`
	Notes   string
}

// AddItem schedules a solve at a depth. The solve must exist; a second item
// for the same (solve, depth) pair fails with domain.ErrDuplicate.
func (e *Engine) AddItem(ctx context.Context, req AddItemRequest) (*domain.SRSItem, error) {
	if err := e.check(req); err != nil {
		return nil, err
	}
	solve, err := e.db.FindSolve(ctx, req.SolveID)
	if err != nil {
		return nil, err
	}
	if solve == nil {
		return nil, fmt.Errorf("solve %d: %w", req.SolveID, domain.ErrNotFound)
	}
	return e.db.InsertItem(ctx, req.SolveID, domain.Depth(req.Depth), sm2.InitialEase, req.Notes, e.now())
}

// RemoveItem hard-deletes an item and its review history.
func (e *Engine) RemoveItem(ctx context.Context, itemID int64) error {
	deleted, err := e.db.DeleteItem(ctx, itemID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("srs item %d: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

// RemoveByDepth removes the item keyed by the natural (solve, depth) pair.
func (e *Engine) RemoveByDepth(ctx context.Context, solveID int64, depth domain.Depth) error {
	if !depth.Valid() {
		return fmt.Errorf("depth %d: %w", depth, domain.ErrInvalidInput)
	}
	deleted, err := e.db.DeleteItemBySolveDepth(ctx, solveID, depth)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("srs item for solve %d depth %d: %w", solveID, depth, domain.ErrNotFound)
	}
	return nil
}

// SetActive flips the active flag without touching scheduling fields.
// Setting the current value again is a no-op.
func (e *Engine) SetActive(ctx context.Context, itemID int64, active bool) (*domain.SRSItem, error) {
	it, err := e.db.SetItemActive(ctx, itemID, active)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("srs item %d: %w", itemID, domain.ErrNotFound)
	}
	return it, nil
}

// ListItemsRequest pages through items, optionally restricted to active ones
// or to one depth.
type ListItemsRequest struct {
	ActiveOnly bool
	Depth      *int `validate:"omitempty,min=0,max=3"`
	Limit      int  `validate:"min=0,max=100"`
	Offset     int  `validate:"min=0"`
}

// ListItems returns one page plus the total over the same predicate.
func (e *Engine) ListItems(ctx context.Context, req ListItemsRequest) ([]domain.SRSItem, int, error) {
	if err := e.check(req); err != nil {
		return nil, 0, err
	}
	if req.Limit == 0 {
		req.Limit = DefaultListLimit
	}
	f := storage.ItemFilter{
		ActiveOnly: req.ActiveOnly,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}
	if req.Depth != nil {
		d := domain.Depth(*req.Depth)
		f.Depth = &d
	}
	return e.db.ListItems(ctx, f)
}

// GetDue returns the review work list: active items whose next review time
// has arrived or was never set, most overdue first.
func (e *Engine) GetDue(ctx context.Context, depth *int, limit int) ([]domain.SRSItem, error) {
	if depth != nil && !domain.Depth(*depth).Valid() {
		return nil, fmt.Errorf("depth %d: %w", *depth, domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultDueLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	var d *domain.Depth
	if depth != nil {
		dd := domain.Depth(*depth)
		d = &dd
	}
	return e.db.DueItems(ctx, d, limit, e.now())
}

// ReviewRequest is one review outcome to record.
type ReviewRequest struct {
	ItemID         int64 `validate:"required,min=1"`
	Quality        int   `validate:"min=0,max=5"`
	ResponseTimeMs *int  `validate:"omitempty,min=0"`
	Notes          string
	UserSolution   string
}

// RecordReview applies one review: it runs the scheduler against the item's
// current state and persists the new state together with an immutable history
// event, in a single transaction. Reviewing an inactive item is allowed and
// does not reactivate it.
func (e *Engine) RecordReview(ctx context.Context, req ReviewRequest) (*domain.SRSItem, error) {
	if err := e.check(req); err != nil {
		return nil, err
	}
	reviewedAt := e.now()

	updated, err := e.db.RecordReview(ctx, req.ItemID, func(it domain.SRSItem) (domain.SRSItem, domain.ReviewEvent, error) {
		state := sm2.State{
			EaseFactor:   it.EaseFactor,
			IntervalDays: it.IntervalDays,
			Repetitions:  it.Repetitions(),
		}
		res, err := sm2.Schedule(state, req.Quality, reviewedAt)
		if err != nil {
			return domain.SRSItem{}, domain.ReviewEvent{}, err
		}

		it.EaseFactor = res.EaseFactor
		it.IntervalDays = res.IntervalDays
		next := res.NextReviewAt
		it.NextReviewAt = &next
		if res.Correct {
			it.TimesCorrect++
		} else {
			it.TimesWrong++
		}

		ev := domain.ReviewEvent{
			SRSItemID:      it.ID,
			Quality:        req.Quality,
			ResponseTimeMs: req.ResponseTimeMs,
			ReviewedAt:     reviewedAt,
			UserSolution:   req.UserSolution,
			Notes:          req.Notes,
		}
		return it, ev, nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("srs item %d: %w", req.ItemID, domain.ErrNotFound)
	}
	return updated, nil
}

// History returns an item's full review log, oldest first.
func (e *Engine) History(ctx context.Context, itemID int64) ([]domain.ReviewEvent, error) {
	it, err := e.db.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("srs item %d: %w", itemID, domain.ErrNotFound)
	}
	return e.db.ReviewsForItem(ctx, itemID)
}

// Stats computes the aggregate snapshot from persisted state.
func (e *Engine) Stats(ctx context.Context) (*storage.Stats, error) {
	return e.db.ItemStats(ctx, e.now(), e.retentionWindowDays)
}
