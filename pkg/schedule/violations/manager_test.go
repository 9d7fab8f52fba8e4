package violations

import (
	"testing"

	"github.com/kallhauge/schedcore/pkg/schedule/constraint"
	"github.com/kallhauge/schedcore/pkg/schedule/model"
	"github.com/kallhauge/schedcore/pkg/schedule/plan"
)

type noOverlap struct{ weight int }

func (n noOverlap) NeedsChecking(a, b *model.Item) bool {
	_, aok := a.Duration(model.NewLane(0))
	_, bok := b.Duration(model.NewLane(0))
	return aok && bok
}

func (n noOverlap) Check(a, b *model.ScheduledItem) constraint.Decision {
	if a.Start() >= b.MaxEnd() || b.Start() >= a.MaxEnd() {
		return constraint.Decision{Hard: true, Fulfilled: true}
	}
	return constraint.Decision{Hard: true, Fulfilled: false, ViolationValue: n.weight}
}

func (n noOverlap) PredictDecision(moved *model.Item, fixItem *model.ScheduledItem) constraint.Prediction {
	return constraint.Prediction{Before: constraint.NoConflict, Together: constraint.Conflict, After: constraint.NoConflict, PredictedConflictValue: n.weight}
}

type startNow struct{}

func (startNow) Check(si *model.ScheduledItem) constraint.Decision {
	if si.Start() == 0 {
		return constraint.Decision{Hard: false, Fulfilled: true}
	}
	return constraint.Decision{Hard: false, Fulfilled: false, ViolationValue: si.Start()}
}

func lane0(t *testing.T, id int64, dur int, required ...int64) *model.Item {
	t.Helper()
	it, err := model.NewItem(id, model.Durations{model.NewLane(0): dur}, required)
	if err != nil {
		t.Fatalf("NewItem(%d): %v", id, err)
	}
	return it
}

func buildPlan(t *testing.T, placements map[*model.Item]int) *plan.SchedulePlan {
	t.Helper()
	pl := plan.New()
	for item, start := range placements {
		if _, err := pl.Add(item, start); err != nil {
			t.Fatalf("plan.Add: %v", err)
		}
	}
	return pl
}

func TestManagerInitializeBuildsOverlapViolation(t *testing.T) {
	a := lane0(t, 1, 100)
	b := lane0(t, 2, 100)
	pl := buildPlan(t, map[*model.Item]int{a: 0, b: 50})

	m := New([]constraint.SingleItemConstraint{startNow{}}, []constraint.ItemPairConstraint{noOverlap{weight: 10}}, nil, false)
	m.Initialize(pl)

	va, ok := m.Violator(a.ID())
	if !ok {
		t.Fatalf("expected a to be tracked")
	}
	if va.Hard != 10 {
		t.Fatalf("a.Hard = %d, want 10 (overlapping b)", va.Hard)
	}
	if va.Soft != 0 {
		t.Fatalf("a.Soft = %d, want 0 (starts at 0)", va.Soft)
	}

	vb, ok := m.Violator(b.ID())
	if !ok {
		t.Fatalf("expected b to be tracked")
	}
	if vb.Hard != 10 || vb.Soft != 50 {
		t.Fatalf("vb = %+v, want hard=10 soft=50", vb)
	}
}

func TestManagerTryAndCommitResolvesOverlap(t *testing.T) {
	a := lane0(t, 1, 100)
	b := lane0(t, 2, 100)
	pl := buildPlan(t, map[*model.Item]int{a: 0, b: 50})

	m := New([]constraint.SingleItemConstraint{startNow{}}, []constraint.ItemPairConstraint{noOverlap{weight: 10}}, nil, false)
	m.Initialize(pl)

	moved, err := pl.Move(b, 100)
	if err != nil {
		t.Fatalf("plan.Move: %v", err)
	}
	update, ok := m.TryViolatorUpdate(moved, pl)
	if !ok {
		t.Fatalf("expected trial update for b@100 to improve on b@50")
	}
	if update.Violator.Hard != 0 || update.Violator.Soft != 100 {
		t.Fatalf("update.Violator = %+v, want hard=0 soft=100", update.Violator)
	}

	m.Commit(update, pl)

	vb, _ := m.Violator(b.ID())
	if vb.Hard != 0 {
		t.Fatalf("after commit, b.Hard = %d, want 0", vb.Hard)
	}
	va, _ := m.Violator(a.ID())
	if va.Hard != 0 {
		t.Fatalf("after commit, a.Hard = %d, want 0 (partner container should follow)", va.Hard)
	}
}

func TestManagerTryViolatorUpdateRejectsNonImproving(t *testing.T) {
	a := lane0(t, 1, 100)
	b := lane0(t, 2, 100)
	pl := buildPlan(t, map[*model.Item]int{a: 0, b: 50})

	m := New([]constraint.SingleItemConstraint{startNow{}}, []constraint.ItemPairConstraint{noOverlap{weight: 10}}, nil, false)
	m.Initialize(pl)

	moved, err := pl.Move(b, 60)
	if err != nil {
		t.Fatalf("plan.Move: %v", err)
	}
	if _, ok := m.TryViolatorUpdate(moved, pl); ok {
		t.Fatalf("expected b@60 (still overlapping, higher soft) to be rejected")
	}
}

func TestManagerGetBiggestViolatorOrdersBySeverity(t *testing.T) {
	a := lane0(t, 1, 100)
	b := lane0(t, 2, 100)
	c := lane0(t, 3, 100)
	pl := buildPlan(t, map[*model.Item]int{a: 0, b: 50, c: 500})

	m := New([]constraint.SingleItemConstraint{startNow{}}, []constraint.ItemPairConstraint{noOverlap{weight: 10}}, nil, false)
	m.Initialize(pl)

	// a and b tie on Hard=10; b has the larger Soft (50 vs 0) so it ranks
	// as the more severe violator. c has no hard violation, so it ranks
	// below both despite its large soft value.
	biggest, ok := m.GetBiggestViolator(nil)
	if !ok {
		t.Fatalf("expected a biggest violator")
	}
	if biggest.ID() != b.ID() {
		t.Fatalf("biggest.ID() = %d, want %d (b)", biggest.ID(), b.ID())
	}

	next, ok := m.GetBiggestViolator(&biggest)
	if !ok {
		t.Fatalf("expected a second violator strictly below the first")
	}
	if next.ID() != a.ID() {
		t.Fatalf("next.ID() = %d, want %d (a: same hard as b, lower soft)", next.ID(), a.ID())
	}

	third, ok := m.GetBiggestViolator(&next)
	if !ok {
		t.Fatalf("expected a third violator strictly below the second")
	}
	if third.ID() != c.ID() {
		t.Fatalf("third.ID() = %d, want %d (c: no hard violation)", third.ID(), c.ID())
	}
}

func TestManagerHardViolatedPartners(t *testing.T) {
	a := lane0(t, 1, 100)
	b := lane0(t, 2, 100)
	c := lane0(t, 3, 100)
	pl := buildPlan(t, map[*model.Item]int{a: 0, b: 50, c: 300})

	m := New([]constraint.SingleItemConstraint{startNow{}}, []constraint.ItemPairConstraint{noOverlap{weight: 10}}, nil, false)
	m.Initialize(pl)

	aSI, _ := pl.Get(a.ID())
	partners := m.HardViolatedPartners(aSI, pl)
	if len(partners) != 1 || partners[0].ID() != b.ID() {
		t.Fatalf("HardViolatedPartners(a) = %v, want [b]", partners)
	}
}

func TestManagerCheckViolationsForPlanDoubleCounts(t *testing.T) {
	a := lane0(t, 1, 100)
	b := lane0(t, 2, 100)
	pl := buildPlan(t, map[*model.Item]int{a: 0, b: 50})

	m := New(nil, []constraint.ItemPairConstraint{noOverlap{weight: 10}}, nil, false)
	hard, _ := m.CheckViolationsForPlan(pl)
	if hard != 20 {
		t.Fatalf("CheckViolationsForPlan hard = %d, want 20 (counted from both a and b)", hard)
	}
}
