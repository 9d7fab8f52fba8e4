package predictor

import (
	"testing"

	"github.com/kallhauge/schedcore/pkg/schedule/constraint"
	"github.com/kallhauge/schedcore/pkg/schedule/model"
)

type fakePlan struct {
	items map[int64]*model.ScheduledItem
}

func newFakePlan() *fakePlan {
	return &fakePlan{items: make(map[int64]*model.ScheduledItem)}
}

func (f *fakePlan) put(item model.Schedulable, start int) {
	f.items[item.ID()] = model.NewScheduledItem(item, start)
}

func (f *fakePlan) Get(id int64) (*model.ScheduledItem, bool) {
	si, ok := f.items[id]
	return si, ok
}

// noOverlap is a minimal single-lane mutual-exclusion constraint used only
// to exercise the predictor: two items on the same lane conflict whenever
// their intervals overlap, with no conflict once either is safely before or
// after the other.
type noOverlap struct{ weight int }

func (n noOverlap) NeedsChecking(a, b *model.Item) bool { return true }

func (n noOverlap) Check(a, b *model.ScheduledItem) constraint.Decision {
	aEnd := a.MaxEnd()
	bEnd := b.MaxEnd()
	if a.Start() >= bEnd || b.Start() >= aEnd {
		return constraint.Decision{Hard: true, Fulfilled: true}
	}
	return constraint.Decision{Hard: true, Fulfilled: false, ViolationValue: n.weight}
}

func (n noOverlap) PredictDecision(moved *model.Item, fixItem *model.ScheduledItem) constraint.Prediction {
	return constraint.Prediction{
		Before:                 constraint.NoConflict,
		Together:               constraint.Conflict,
		After:                  constraint.NoConflict,
		PredictedConflictValue: n.weight,
	}
}

func lane0Item(t *testing.T, id int64, dur int, required ...int64) *model.Item {
	t.Helper()
	it, err := model.NewItem(id, model.Durations{model.NewLane(0): dur}, required)
	if err != nil {
		t.Fatalf("NewItem(%d): %v", id, err)
	}
	return it
}

func TestPredictorQueryReflectsOverlap(t *testing.T) {
	a := lane0Item(t, 1, 5)
	b := lane0Item(t, 2, 5)

	pl := newFakePlan()
	pl.put(a, 0)
	pl.put(b, 100)

	p := New(nil)
	p.Initialize(pl, []model.Schedulable{a, b}, []constraint.ItemPairConstraint{noOverlap{weight: 3}})

	if c, _ := p.Query(a.ID(), 100); c != 0 {
		t.Fatalf("Query(a at 100) = %d, want 0 (no overlap with b at 100)", c)
	}
	if c, _ := p.Query(a.ID(), 98); c != 3 {
		t.Fatalf("Query(a at 98) = %d, want 3 (overlaps b at 100)", c)
	}
	if c, _ := p.Query(a.ID(), 95); c != 0 {
		t.Fatalf("Query(a at 95) = %d, want 0 (ends exactly when b starts)", c)
	}
}

func TestPredictorItemMovedInvalidatesPartnerAggregate(t *testing.T) {
	a := lane0Item(t, 1, 5)
	b := lane0Item(t, 2, 5)

	pl := newFakePlan()
	pl.put(a, 0)
	pl.put(b, 100)

	p := New(nil)
	p.Initialize(pl, []model.Schedulable{a, b}, []constraint.ItemPairConstraint{noOverlap{weight: 1}})

	if c, _ := p.Query(b.ID(), 100); c != 0 {
		t.Fatalf("Query(b at 100) = %d, want 0 (a currently at 0, no overlap yet)", c)
	}

	pl.put(a, 98)
	p.ItemMoved(a.ID())

	if c, _ := p.Query(b.ID(), 100); c != 1 {
		t.Fatalf("Query(b at 100) after a moved to 98 = %d, want 1 (now overlapping)", c)
	}
}

func TestPredictorRebuildMatchesIncrementalPatch(t *testing.T) {
	a := lane0Item(t, 1, 5)
	partners := []*model.Item{
		lane0Item(t, 2, 5),
		lane0Item(t, 3, 5),
		lane0Item(t, 4, 5),
		lane0Item(t, 5, 5),
	}
	items := []model.Schedulable{a}
	for _, it := range partners {
		items = append(items, it)
	}

	pl := newFakePlan()
	pl.put(a, 0)
	for i, it := range partners {
		pl.put(it, 50+i*20)
	}

	p := New(nil)
	p.Initialize(pl, items, []constraint.ItemPairConstraint{noOverlap{weight: 2}})

	// Build a's cached aggregate first, so the next query patches it.
	if c, _ := p.Query(a.ID(), 0); c != 0 {
		t.Fatalf("Query(a at 0) before any move = %d, want 0", c)
	}

	// Move one of four partners (below the half-partner rebuild threshold):
	// the aggregate should patch incrementally and still reflect the move.
	pl.put(partners[0], 2)
	p.ItemMoved(partners[0].ID())

	if c, _ := p.Query(a.ID(), 0); c != 2 {
		t.Fatalf("Query(a at 0) after incremental patch = %d, want 2", c)
	}

	// Force a full rebuild by invalidating a majority of partners and
	// confirm the result still matches what a from-scratch Initialize
	// would produce.
	for _, it := range partners[1:] {
		p.ItemMoved(it.ID())
	}
	if c, _ := p.Query(a.ID(), 0); c != 2 {
		t.Fatalf("Query(a at 0) after rebuild = %d, want 2", c)
	}
}
