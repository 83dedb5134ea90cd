package sm2

import (
	"fmt"
	"math"
	"time"

	"github.com/clayarnold/crosstrainer/internal/domain"
)

// SM-2 constants. InitialEase is the ease a freshly created item starts with;
// MinEase is the floor below which repeated lapses cannot push it.
const (
	InitialEase = 2.5
	MinEase     = 1.3

	// Interval ladder for the first two successful reviews, in days.
	firstInterval  = 1
	secondInterval = 6

	// Quality at or above this counts as a successful recall.
	SuccessThreshold = 3

	MinQuality = 0
	MaxQuality = 5
)

// State is the scheduling state of an item as the scheduler sees it.
type State struct {
	EaseFactor   float64
	IntervalDays int
	// Repetitions is the number of reviews recorded before this one,
	// successes and lapses both.
	Repetitions int
}

// Result is the outcome of scheduling one review.
type Result struct {
	EaseFactor   float64
	IntervalDays int
	NextReviewAt time.Time
	Correct      bool
}

// NewState is the state every item starts in: never scheduled, default ease.
func NewState() State {
	return State{EaseFactor: InitialEase, IntervalDays: 0, Repetitions: 0}
}

// Schedule computes the next scheduling state for a review of the given
// quality at the given time. Pure: no I/O, no mutation of its inputs.
//
// The ease delta follows the classic SM-2 formula. A lapse (quality below 3)
// resets the interval to one day but keeps most of the accumulated ease, so
// a relearned item regrows its interval quickly. A success grows the interval
// along the 1, 6, round(interval*ease) ladder keyed by the repetition count.
func Schedule(s State, quality int, reviewedAt time.Time) (Result, error) {
	if quality < MinQuality || quality > MaxQuality {
		return Result{}, fmt.Errorf("%w: quality %d outside [%d,%d]",
			domain.ErrInvalidInput, quality, MinQuality, MaxQuality)
	}

	miss := float64(MaxQuality - quality)
	ease := s.EaseFactor + (0.1 - miss*(0.08+miss*0.02))
	if ease < MinEase {
		ease = MinEase
	}

	var interval int
	correct := quality >= SuccessThreshold
	if !correct {
		interval = firstInterval
	} else {
		switch {
		case s.Repetitions == 0:
			interval = firstInterval
		case s.Repetitions == 1:
			interval = secondInterval
		default:
			interval = int(math.Round(float64(s.IntervalDays) * ease))
			if interval < firstInterval {
				interval = firstInterval
			}
		}
	}

	return Result{
		EaseFactor:   ease,
		IntervalDays: interval,
		NextReviewAt: reviewedAt.AddDate(0, 0, interval),
		Correct:      correct,
	}, nil
}
