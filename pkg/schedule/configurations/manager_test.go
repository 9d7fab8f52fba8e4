package configurations

import (
	"testing"

	"github.com/kallhauge/schedcore/pkg/schedule/builtin"
	"github.com/kallhauge/schedcore/pkg/schedule/constraint"
	"github.com/kallhauge/schedcore/pkg/schedule/model"
	"github.com/kallhauge/schedcore/pkg/schedule/plan"
	"github.com/kallhauge/schedcore/pkg/schedule/violations"
)

func mustItem(t *testing.T, id int64, durs model.Durations, required ...int64) *model.Item {
	t.Helper()
	it, err := model.NewItem(id, durs, required)
	if err != nil {
		t.Fatalf("NewItem(%d): %v", id, err)
	}
	return it
}

func TestAddConfigurationFindsImprovingRelocation(t *testing.T) {
	a := mustItem(t, 1, model.Durations{model.NewLane(0): 100})
	b := mustItem(t, 2, model.Durations{model.NewLane(0): 100})

	pl := plan.New()
	if _, err := pl.Add(a, 0); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	if _, err := pl.Add(b, 50); err != nil {
		t.Fatalf("Add(b): %v", err)
	}

	vm := violations.New(nil, []constraint.ItemPairConstraint{builtin.NoOverlappingConstraint{}}, nil, false)
	vm.Initialize(pl)

	violator, ok := vm.Violator(b.ID())
	if !ok {
		t.Fatalf("expected b to be tracked")
	}
	if violator.Hard != 1 {
		t.Fatalf("violator.Hard = %d, want 1", violator.Hard)
	}

	cm := New(vm)
	cm.Reset(violator)
	if !cm.AddConfiguration(pl, 100) {
		t.Fatalf("expected candidate start 100 to be an improving configuration")
	}
	if !cm.ApplyBestConfiguration(pl) {
		t.Fatalf("expected ApplyBestConfiguration to succeed")
	}

	si, ok := pl.Get(b.ID())
	if !ok || si.Start() != 100 {
		t.Fatalf("b.Start() = %v, want 100", si)
	}
	if v, _ := vm.Violator(b.ID()); v.Hard != 0 {
		t.Fatalf("after commit, b.Hard = %d, want 0", v.Hard)
	}
}

func TestAddConfigurationRetriesSwitchLaneOnFailure(t *testing.T) {
	b := mustItem(t, 1, model.Durations{model.NewLane(0): 100})
	sli, err := model.NewSwitchLaneItem(2, model.Durations{model.NewLane(0): 100}, []model.Durations{{model.NewLane(1): 50}}, nil)
	if err != nil {
		t.Fatalf("NewSwitchLaneItem: %v", err)
	}

	pl := plan.New()
	if _, err := pl.Add(b, 0); err != nil {
		t.Fatalf("Add(b): %v", err)
	}
	if _, err := pl.Add(sli, 50); err != nil {
		t.Fatalf("Add(sli): %v", err)
	}

	vm := violations.New(nil, []constraint.ItemPairConstraint{builtin.NoOverlappingConstraint{}}, nil, false)
	vm.Initialize(pl)

	violator, ok := vm.Violator(sli.ID())
	if !ok {
		t.Fatalf("expected sli to be tracked")
	}
	if violator.Hard != 1 {
		t.Fatalf("violator.Hard = %d, want 1 (overlaps b on lane 0)", violator.Hard)
	}

	cm := New(vm)
	cm.Reset(violator)
	// Candidate start 0 still overlaps b on lane 0 verbatim, so the plain
	// relocation attempt fails; only the switched-duration retry (moving
	// to lane 1) can resolve it.
	if !cm.AddConfiguration(pl, 0) {
		t.Fatalf("expected the switch-lane retry to register a configuration")
	}
	if !cm.ApplyBestConfiguration(pl) {
		t.Fatalf("expected ApplyBestConfiguration to succeed")
	}

	si, ok := pl.Get(sli.ID())
	if !ok {
		t.Fatalf("expected sli to remain scheduled")
	}
	if _, onLane0 := si.Item().Duration(model.NewLane(0)); onLane0 {
		t.Fatalf("expected the committed item to have switched off lane 0")
	}
	if d, onLane1 := si.Item().Duration(model.NewLane(1)); !onLane1 || d != 50 {
		t.Fatalf("expected the committed item on lane 1 with duration 50, got onLane1=%v d=%d", onLane1, d)
	}
	if v, _ := vm.Violator(sli.ID()); v.Hard != 0 {
		t.Fatalf("after commit, sli.Hard = %d, want 0", v.Hard)
	}
}

func TestApplyReferenceConfigurationUndoesProbe(t *testing.T) {
	a := mustItem(t, 1, model.Durations{model.NewLane(0): 100})
	b := mustItem(t, 2, model.Durations{model.NewLane(0): 100})

	pl := plan.New()
	if _, err := pl.Add(a, 0); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	if _, err := pl.Add(b, 200); err != nil {
		t.Fatalf("Add(b): %v", err)
	}

	vm := violations.New(nil, []constraint.ItemPairConstraint{builtin.NoOverlappingConstraint{}}, nil, false)
	vm.Initialize(pl)

	violator, _ := vm.Violator(b.ID())
	cm := New(vm)
	cm.Reset(violator)

	// Probing a worse candidate (back on top of a) should not find an
	// improving configuration, and should leave the plan able to be
	// restored to b's reference start.
	if cm.AddConfiguration(pl, 0) {
		t.Fatalf("expected candidate start 0 (overlapping a) not to improve")
	}
	if err := cm.ApplyReferenceConfiguration(pl); err != nil {
		t.Fatalf("ApplyReferenceConfiguration: %v", err)
	}
	si, ok := pl.Get(b.ID())
	if !ok || si.Start() != 200 {
		t.Fatalf("b.Start() = %v, want restored to 200", si)
	}
}
