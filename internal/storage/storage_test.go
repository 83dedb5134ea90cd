package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/clayarnold/crosstrainer/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertTestSolve(t *testing.T, db *DB, tag string) int64 {
	t.Helper()
	id, err := db.InsertSolve(context.Background(), &domain.Solve{
		Solver:         "Solver " + tag,
		Result:         7.5,
		Scramble:       "R U R' U' " + tag,
		Reconstruction: "z y U R2 " + tag,
		Hash:           "hash-" + tag,
	}, 0)
	if err != nil {
		t.Fatalf("Failed to insert solve %s: %v", tag, err)
	}
	return id
}

func TestInsertItemDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	solveID := insertTestSolve(t, db, "a")
	now := time.Now()

	first, err := db.InsertItem(ctx, solveID, domain.DepthCross, 2.5, "", now)
	if err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if first.EaseFactor != 2.5 || first.IntervalDays != 0 || first.NextReviewAt != nil || !first.IsActive {
		t.Errorf("Unexpected initial state: %+v", first)
	}

	if _, err := db.InsertItem(ctx, solveID, domain.DepthCross, 2.5, "", now); !errors.Is(err, domain.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	// Same solve at another depth is a different item.
	if _, err := db.InsertItem(ctx, solveID, domain.DepthPair1, 2.5, "", now); err != nil {
		t.Errorf("Different depth should insert: %v", err)
	}

	_, total, err := db.ListItems(ctx, ItemFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected 2 items in store, got %d", total)
	}
}

func TestFindItemMissing(t *testing.T) {
	db := newTestDB(t)
	it, err := db.FindItem(context.Background(), 999)
	if err != nil {
		t.Fatalf("FindItem returned error: %v", err)
	}
	if it != nil {
		t.Errorf("Expected nil for missing item, got %+v", it)
	}
}

// reviewTo pins an item's scheduling fields through the review transaction.
func reviewTo(t *testing.T, db *DB, itemID int64, next *time.Time, quality int) {
	t.Helper()
	_, err := db.RecordReview(context.Background(), itemID, func(it domain.SRSItem) (domain.SRSItem, domain.ReviewEvent, error) {
		it.NextReviewAt = next
		if quality >= 3 {
			it.TimesCorrect++
		} else {
			it.TimesWrong++
		}
		ev := domain.ReviewEvent{SRSItemID: it.ID, Quality: quality, ReviewedAt: time.Now()}
		return it, ev, nil
	})
	if err != nil {
		t.Fatalf("RecordReview failed: %v", err)
	}
}

func TestDueItemsOrderingAndFiltering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	mkItem := func(tag string, depth domain.Depth, createdAt time.Time) *domain.SRSItem {
		it, err := db.InsertItem(ctx, insertTestSolve(t, db, tag), depth, 2.5, "", createdAt)
		if err != nil {
			t.Fatalf("InsertItem %s: %v", tag, err)
		}
		return it
	}

	overdueFar := now.Add(-48 * time.Hour)
	overdueNear := now.Add(-1 * time.Hour)
	future := now.Add(72 * time.Hour)

	neverNewer := mkItem("never-newer", domain.DepthCross, now)
	neverOlder := mkItem("never-older", domain.DepthCross, now.Add(-time.Minute))
	far := mkItem("far", domain.DepthCross, now)
	reviewTo(t, db, far.ID, &overdueFar, 5)
	near := mkItem("near", domain.DepthPair1, now)
	reviewTo(t, db, near.ID, &overdueNear, 5)
	scheduled := mkItem("future", domain.DepthCross, now)
	reviewTo(t, db, scheduled.ID, &future, 5)
	inactive := mkItem("inactive", domain.DepthCross, now)
	if _, err := db.SetItemActive(ctx, inactive.ID, false); err != nil {
		t.Fatalf("SetItemActive: %v", err)
	}

	due, err := db.DueItems(ctx, nil, 10, now)
	if err != nil {
		t.Fatalf("DueItems failed: %v", err)
	}
	wantOrder := []int64{neverOlder.ID, neverNewer.ID, far.ID, near.ID}
	if len(due) != len(wantOrder) {
		t.Fatalf("Expected %d due items, got %d", len(wantOrder), len(due))
	}
	for i, want := range wantOrder {
		if due[i].ID != want {
			t.Errorf("Position %d: expected item %d, got %d", i, want, due[i].ID)
		}
	}
	for _, it := range due {
		if !it.IsActive {
			t.Errorf("Due list contains inactive item %d", it.ID)
		}
	}

	depth := domain.DepthPair1
	due, err = db.DueItems(ctx, &depth, 10, now)
	if err != nil {
		t.Fatalf("DueItems with depth failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != near.ID {
		t.Errorf("Depth filter: expected only item %d, got %+v", near.ID, due)
	}

	due, err = db.DueItems(ctx, nil, 2, now)
	if err != nil {
		t.Fatalf("DueItems with limit failed: %v", err)
	}
	if len(due) != 2 {
		t.Errorf("Expected limit to truncate to 2, got %d", len(due))
	}
}

func TestListItemsTotalsMatchFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		it, err := db.InsertItem(ctx, insertTestSolve(t, db, fmt.Sprintf("s%d", i)), domain.Depth(i%2), 2.5, "", now)
		if err != nil {
			t.Fatalf("InsertItem: %v", err)
		}
		if i >= 3 {
			if _, err := db.SetItemActive(ctx, it.ID, false); err != nil {
				t.Fatalf("SetItemActive: %v", err)
			}
		}
	}

	all, total, err := db.ListItems(ctx, ItemFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if total != 5 || len(all) != 5 {
		t.Errorf("Unfiltered: expected 5/5, got %d/%d", len(all), total)
	}

	active, total, err := db.ListItems(ctx, ItemFilter{ActiveOnly: true, Limit: 10})
	if err != nil {
		t.Fatalf("ListItems active failed: %v", err)
	}
	if total != 3 || len(active) != 3 {
		t.Errorf("Active: expected 3/3, got %d/%d", len(active), total)
	}
	for _, it := range active {
		if !it.IsActive {
			t.Errorf("Active-only page contains inactive item %d", it.ID)
		}
	}

	page, total, err := db.ListItems(ctx, ItemFilter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("ListItems paged failed: %v", err)
	}
	if total != 5 {
		t.Errorf("Paged total should stay 5, got %d", total)
	}
	if len(page) != 1 {
		t.Errorf("Expected 1 item on the last page, got %d", len(page))
	}
}

func TestSetItemActivePreservesScheduling(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	it, err := db.InsertItem(ctx, insertTestSolve(t, db, "a"), domain.DepthCross, 2.5, "", time.Now())
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}
	next := time.Now().Add(24 * time.Hour)
	reviewTo(t, db, it.ID, &next, 5)
	before, err := db.FindItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("FindItem: %v", err)
	}

	off, err := db.SetItemActive(ctx, it.ID, false)
	if err != nil {
		t.Fatalf("SetItemActive off: %v", err)
	}
	if off.IsActive {
		t.Error("Expected item to be inactive")
	}
	on, err := db.SetItemActive(ctx, it.ID, true)
	if err != nil {
		t.Fatalf("SetItemActive on: %v", err)
	}
	if !on.IsActive {
		t.Error("Expected item to be active again")
	}
	if on.EaseFactor != before.EaseFactor || on.IntervalDays != before.IntervalDays ||
		on.TimesCorrect != before.TimesCorrect || on.TimesWrong != before.TimesWrong {
		t.Errorf("Toggling touched scheduling fields: before %+v after %+v", before, on)
	}
	if on.NextReviewAt == nil || !on.NextReviewAt.Equal(*before.NextReviewAt) {
		t.Errorf("Toggling touched next review: before %v after %v", before.NextReviewAt, on.NextReviewAt)
	}

	missing, err := db.SetItemActive(ctx, 999, true)
	if err != nil {
		t.Fatalf("SetItemActive missing: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing item, got %+v", missing)
	}
}

func TestRecordReviewRollsBackOnDecideError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	it, err := db.InsertItem(ctx, insertTestSolve(t, db, "a"), domain.DepthCross, 2.5, "", time.Now())
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}

	wantErr := errors.New("boom")
	_, err = db.RecordReview(ctx, it.ID, func(domain.SRSItem) (domain.SRSItem, domain.ReviewEvent, error) {
		return domain.SRSItem{}, domain.ReviewEvent{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected decide error to surface, got %v", err)
	}

	after, err := db.FindItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("FindItem: %v", err)
	}
	if after.TimesCorrect != 0 || after.TimesWrong != 0 || after.NextReviewAt != nil {
		t.Errorf("Aborted review mutated the item: %+v", after)
	}
	events, err := db.ReviewsForItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("ReviewsForItem: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Aborted review left %d events behind", len(events))
	}
}

func TestRecordReviewPersistsBothWrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	it, err := db.InsertItem(ctx, insertTestSolve(t, db, "a"), domain.DepthCross, 2.5, "", time.Now())
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}

	next := time.Now().Add(24 * time.Hour)
	ms := 4200
	updated, err := db.RecordReview(ctx, it.ID, func(cur domain.SRSItem) (domain.SRSItem, domain.ReviewEvent, error) {
		cur.EaseFactor = 2.6
		cur.IntervalDays = 1
		cur.NextReviewAt = &next
		cur.TimesCorrect++
		ev := domain.ReviewEvent{
			SRSItemID:      cur.ID,
			Quality:        5,
			ResponseTimeMs: &ms,
			ReviewedAt:     time.Now(),
			UserSolution:   "z y U R2",
			Notes:          "smooth",
		}
		return cur, ev, nil
	})
	if err != nil {
		t.Fatalf("RecordReview failed: %v", err)
	}
	if updated.EaseFactor != 2.6 || updated.IntervalDays != 1 || updated.TimesCorrect != 1 {
		t.Errorf("Unexpected updated item: %+v", updated)
	}

	events, err := db.ReviewsForItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("ReviewsForItem: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Quality != 5 || ev.UserSolution != "z y U R2" || ev.Notes != "smooth" {
		t.Errorf("Unexpected event: %+v", ev)
	}
	if ev.ResponseTimeMs == nil || *ev.ResponseTimeMs != 4200 {
		t.Errorf("Expected response time 4200, got %v", ev.ResponseTimeMs)
	}

	missing, err := db.RecordReview(ctx, 999, func(cur domain.SRSItem) (domain.SRSItem, domain.ReviewEvent, error) {
		return cur, domain.ReviewEvent{}, nil
	})
	if err != nil {
		t.Fatalf("RecordReview missing: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing item, got %+v", missing)
	}
}

func TestDeleteItemCascadesHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	it, err := db.InsertItem(ctx, insertTestSolve(t, db, "a"), domain.DepthCross, 2.5, "", time.Now())
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}
	next := time.Now().Add(24 * time.Hour)
	reviewTo(t, db, it.ID, &next, 5)

	deleted, err := db.DeleteItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if !deleted {
		t.Fatal("Expected DeleteItem to report a deletion")
	}

	events, err := db.ReviewsForItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("ReviewsForItem: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected history to cascade away, found %d events", len(events))
	}

	deleted, err = db.DeleteItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("Second DeleteItem: %v", err)
	}
	if deleted {
		t.Error("Second delete should report nothing deleted")
	}
}

func TestItemStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	a, err := db.InsertItem(ctx, insertTestSolve(t, db, "a"), domain.DepthCross, 2.5, "", now)
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}
	b, err := db.InsertItem(ctx, insertTestSolve(t, db, "b"), domain.DepthPair2, 2.5, "", now)
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}

	future := now.Add(48 * time.Hour)
	reviewTo(t, db, a.ID, &future, 5) // success, scheduled out
	reviewTo(t, db, b.ID, nil, 2)     // lapse, still due

	stats, err := db.ItemStats(ctx, now, 30)
	if err != nil {
		t.Fatalf("ItemStats: %v", err)
	}
	if stats.TotalItems != 2 || stats.ActiveItems != 2 {
		t.Errorf("Expected 2 total / 2 active, got %d/%d", stats.TotalItems, stats.ActiveItems)
	}
	if stats.DueToday != 1 {
		t.Errorf("Expected 1 due, got %d", stats.DueToday)
	}
	if stats.ReviewsLast7 != 2 {
		t.Errorf("Expected 2 recent reviews, got %d", stats.ReviewsLast7)
	}
	if stats.RetentionRate == nil || *stats.RetentionRate != 50 {
		t.Errorf("Expected retention rate 50, got %v", stats.RetentionRate)
	}
	if len(stats.ByDepth) != 2 {
		t.Errorf("Expected stats for 2 depths, got %d", len(stats.ByDepth))
	}
	if ds := stats.ByDepth[domain.DepthCross]; ds.Count != 1 || ds.Active != 1 {
		t.Errorf("Unexpected cross depth stats: %+v", ds)
	}
}

func TestScramblePool(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := db.InsertScramble(ctx, 4, fmt.Sprintf("R U R' D%d", i)); err != nil {
			t.Fatalf("InsertScramble: %v", err)
		}
	}
	// Duplicate text is ignored.
	if err := db.InsertScramble(ctx, 4, "R U R' D0"); err != nil {
		t.Fatalf("Duplicate InsertScramble: %v", err)
	}
	if err := db.InsertScramble(ctx, 6, "F2 L D R'"); err != nil {
		t.Fatalf("InsertScramble: %v", err)
	}

	counts, err := db.ScrambleCounts(ctx)
	if err != nil {
		t.Fatalf("ScrambleCounts: %v", err)
	}
	if counts[4] != 3 || counts[6] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}

	got, err := db.RandomScrambles(ctx, 4, 2)
	if err != nil {
		t.Fatalf("RandomScrambles: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 scrambles, got %d", len(got))
	}
	for _, sc := range got {
		if sc.Moves != 4 {
			t.Errorf("Wrong move count in result: %+v", sc)
		}
	}

	got, err = db.RandomScrambles(ctx, 7, 5)
	if err != nil {
		t.Fatalf("RandomScrambles empty: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no scrambles for moves=7, got %d", len(got))
	}
}

func TestListSolvesFiltersAndTotal(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mk := func(tag, solver string, result float64, cross int) int64 {
		id, err := db.InsertSolve(ctx, &domain.Solve{
			Solver:         solver,
			Result:         result,
			Scramble:       "scr " + tag,
			Reconstruction: "rec " + tag,
			CrossType:      "neutral",
			MovesCross:     &cross,
			Hash:           "hash-" + tag,
		}, 0)
		if err != nil {
			t.Fatalf("InsertSolve %s: %v", tag, err)
		}
		return id
	}
	fast := mk("a", "Feliks Zemdegs", 5.5, 6)
	mk("b", "Max Park", 6.4, 8)
	mk("c", "Feliks Zemdegs", 8.1, 9)

	minR, maxR := 5.0, 7.0
	solves, total, err := db.ListSolves(ctx, SolveFilter{
		Solver:    "feliks",
		MinResult: &minR,
		MaxResult: &maxR,
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("ListSolves: %v", err)
	}
	if total != 1 || len(solves) != 1 || solves[0].ID != fast {
		t.Errorf("Expected only the fast Feliks solve, got total=%d %+v", total, solves)
	}

	maxCross := 8
	solves, total, err = db.ListSolves(ctx, SolveFilter{MaxCross: &maxCross, SortBy: "cross", Limit: 10})
	if err != nil {
		t.Fatalf("ListSolves by cross: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected 2 solves with cross <= 8, got %d", total)
	}
	if len(solves) == 2 && *solves[0].MovesCross > *solves[1].MovesCross {
		t.Errorf("Expected ascending cross sort, got %d then %d", *solves[0].MovesCross, *solves[1].MovesCross)
	}

	// Paged total still reflects the whole predicate.
	_, total, err = db.ListSolves(ctx, SolveFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListSolves paged: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected total 3, got %d", total)
	}
}

func TestFindSolveReportsScheduledDepths(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	solveID := insertTestSolve(t, db, "a")

	s, err := db.FindSolve(ctx, solveID)
	if err != nil {
		t.Fatalf("FindSolve: %v", err)
	}
	if len(s.InSRS) != 0 {
		t.Errorf("Fresh solve should not be scheduled, got %v", s.InSRS)
	}

	for _, d := range []domain.Depth{domain.DepthPair2, domain.DepthCross} {
		if _, err := db.InsertItem(ctx, solveID, d, 2.5, "", time.Now()); err != nil {
			t.Fatalf("InsertItem depth %d: %v", d, err)
		}
	}
	s, err = db.FindSolve(ctx, solveID)
	if err != nil {
		t.Fatalf("FindSolve: %v", err)
	}
	if len(s.InSRS) != 2 || s.InSRS[0] != domain.DepthCross || s.InSRS[1] != domain.DepthPair2 {
		t.Errorf("Expected depths [0 2], got %v", s.InSRS)
	}
}

func TestDeleteSolveIfUnscheduled(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	scheduled := insertTestSolve(t, db, "scheduled")
	free := insertTestSolve(t, db, "free")
	if _, err := db.InsertItem(ctx, scheduled, domain.DepthCross, 2.5, "", time.Now()); err != nil {
		t.Fatalf("InsertItem: %v", err)
	}

	deleted, err := db.DeleteSolveIfUnscheduled(ctx, scheduled)
	if err != nil {
		t.Fatalf("DeleteSolveIfUnscheduled: %v", err)
	}
	if deleted {
		t.Error("Scheduled solve must not be deleted")
	}

	deleted, err = db.DeleteSolveIfUnscheduled(ctx, free)
	if err != nil {
		t.Fatalf("DeleteSolveIfUnscheduled: %v", err)
	}
	if !deleted {
		t.Error("Unscheduled solve should be deleted")
	}
}
