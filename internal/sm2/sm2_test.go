package sm2

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/clayarnold/crosstrainer/internal/domain"
)

const epsilon = 1e-9

func assertEase(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("ease = %.6f, want %.6f", got, want)
	}
}

func TestScheduleRejectsOutOfRangeQuality(t *testing.T) {
	now := time.Now()
	for _, q := range []int{-1, 6, 42} {
		_, err := Schedule(NewState(), q, now)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("quality %d: expected ErrInvalidInput, got %v", q, err)
		}
	}
}

func TestScheduleGrowthLadder(t *testing.T) {
	// The worked example: a fresh item reviewed 5, 5, 4, then a lapse at 1.
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewState()

	t.Run("first success", func(t *testing.T) {
		r, err := Schedule(s, 5, now)
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		if r.IntervalDays != 1 {
			t.Errorf("interval = %d, want 1", r.IntervalDays)
		}
		assertEase(t, r.EaseFactor, 2.6)
		if want := now.AddDate(0, 0, 1); !r.NextReviewAt.Equal(want) {
			t.Errorf("next review = %v, want %v", r.NextReviewAt, want)
		}
		s = State{EaseFactor: r.EaseFactor, IntervalDays: r.IntervalDays, Repetitions: 1}
	})

	t.Run("second success", func(t *testing.T) {
		r, err := Schedule(s, 5, now)
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		if r.IntervalDays != 6 {
			t.Errorf("interval = %d, want 6", r.IntervalDays)
		}
		assertEase(t, r.EaseFactor, 2.7)
		s = State{EaseFactor: r.EaseFactor, IntervalDays: r.IntervalDays, Repetitions: 2}
	})

	t.Run("third success compounds", func(t *testing.T) {
		// d = 0.1 - 1*(0.08 + 1*0.02) = 0, so ease stays 2.7 and the
		// interval becomes round(6 * 2.7) = 16.
		r, err := Schedule(s, 4, now)
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		assertEase(t, r.EaseFactor, 2.7)
		if r.IntervalDays != 16 {
			t.Errorf("interval = %d, want 16", r.IntervalDays)
		}
		s = State{EaseFactor: r.EaseFactor, IntervalDays: r.IntervalDays, Repetitions: 3}
	})

	t.Run("lapse resets interval", func(t *testing.T) {
		// d = 0.1 - 4*(0.08 + 4*0.02) = -0.54.
		r, err := Schedule(s, 1, now)
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		if r.IntervalDays != 1 {
			t.Errorf("interval = %d, want 1", r.IntervalDays)
		}
		assertEase(t, r.EaseFactor, 2.16)
		if r.Correct {
			t.Error("quality 1 should not count as correct")
		}
	})
}

func TestScheduleEaseNeverBelowFloor(t *testing.T) {
	now := time.Now()
	s := NewState()
	for i := 0; i < 20; i++ {
		r, err := Schedule(s, 0, now)
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		if r.EaseFactor < MinEase {
			t.Fatalf("review %d: ease %.4f dropped below %.2f", i, r.EaseFactor, MinEase)
		}
		s = State{EaseFactor: r.EaseFactor, IntervalDays: r.IntervalDays, Repetitions: s.Repetitions + 1}
	}
	assertEase(t, s.EaseFactor, MinEase)
}

func TestScheduleSuccessAlwaysAtLeastOneDay(t *testing.T) {
	now := time.Now()
	for q := SuccessThreshold; q <= MaxQuality; q++ {
		for _, reps := range []int{0, 1, 2, 7} {
			r, err := Schedule(State{EaseFactor: MinEase, IntervalDays: 0, Repetitions: reps}, q, now)
			if err != nil {
				t.Fatalf("Schedule: %v", err)
			}
			if r.IntervalDays < 1 {
				t.Errorf("q=%d reps=%d: interval %d < 1", q, reps, r.IntervalDays)
			}
			if !r.NextReviewAt.After(now) {
				t.Errorf("q=%d reps=%d: next review %v not after %v", q, reps, r.NextReviewAt, now)
			}
		}
	}
}

func TestScheduleLapseRegrowsThroughEase(t *testing.T) {
	now := time.Now()
	// After a lapse the next success multiplies the reset 1-day interval by
	// the ease instead of replaying the 1/6 ladder.
	r, err := Schedule(State{EaseFactor: 2.16, IntervalDays: 1, Repetitions: 4}, 5, now)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if want := int(math.Round(1 * 2.26)); r.IntervalDays != want {
		t.Errorf("interval = %d, want %d", r.IntervalDays, want)
	}
}
