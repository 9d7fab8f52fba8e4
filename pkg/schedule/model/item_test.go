package model

import "testing"

func TestNewItemRejectsEmptyLanes(t *testing.T) {
	if _, err := NewItem(1, Durations{}, nil); err == nil {
		t.Fatal("expected error for item with no lanes")
	}
}

func TestNewItemRejectsNonPositiveDuration(t *testing.T) {
	lane := NewLane(0)
	if _, err := NewItem(1, Durations{lane: 0}, nil); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if _, err := NewItem(1, Durations{lane: -5}, nil); err == nil {
		t.Fatal("expected error for negative duration")
	}
}

func TestItemDerivedFields(t *testing.T) {
	l0, l1 := NewLane(0), NewLane(1)
	it, err := NewItem(1, Durations{l0: 100, l1: 40}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := it.MaxDuration(); got != 100 {
		t.Errorf("MaxDuration() = %d, want 100", got)
	}
	if got := it.DurationSummary(); got != 140 {
		t.Errorf("DurationSummary() = %d, want 140", got)
	}
}

func TestItemEqualityByID(t *testing.T) {
	l0 := NewLane(0)
	a, _ := NewItem(1, Durations{l0: 10}, nil)
	b, _ := NewItem(1, Durations{l0: 999}, nil)
	c, _ := NewItem(2, Durations{l0: 10}, nil)

	if !a.Equal(b) {
		t.Error("items with the same id should be equal regardless of durations")
	}
	if a.Equal(c) {
		t.Error("items with different ids should not be equal")
	}
	if a.Hash() != b.Hash() {
		t.Error("equal items should hash equal")
	}
}

func TestSwitchLaneItemSwitchPreservesAlternativesLength(t *testing.T) {
	l0, l1 := NewLane(0), NewLane(1)
	active := Durations{l0: 10}
	alts := []Durations{{l1: 20}, {l0: 5, l1: 5}}
	sli, err := NewSwitchLaneItem(1, active, alts, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	switched, err := sli.Switch(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(switched.Alternatives()) != len(alts) {
		t.Fatalf("alternatives length changed: got %d, want %d", len(switched.Alternatives()), len(alts))
	}
	if d, ok := switched.Duration(l1); !ok || d != 20 {
		t.Errorf("expected active mapping to be the chosen alternative, got duration=%d ok=%v", d, ok)
	}
	// The old active mapping must be offered back, and the mapping just
	// chosen must not repeat.
	foundOldActive := false
	for _, alt := range switched.Alternatives() {
		if d, ok := alt[l0]; ok && d == 10 && len(alt) == 1 {
			foundOldActive = true
		}
		if d, ok := alt[l1]; ok && d == 20 && len(alt) == 1 {
			t.Error("switched-to mapping must not reappear as an alternative")
		}
	}
	if !foundOldActive {
		t.Error("expected old active mapping to be offered back as an alternative")
	}
}

func TestSwitchLaneItemRejectsEmptyAlternatives(t *testing.T) {
	l0 := NewLane(0)
	if _, err := NewSwitchLaneItem(1, Durations{l0: 10}, nil, nil); err == nil {
		t.Fatal("expected error for empty alternatives list")
	}
}

func TestScheduledItemEqualityIgnoresStart(t *testing.T) {
	l0 := NewLane(0)
	it, _ := NewItem(1, Durations{l0: 10}, nil)
	s1 := NewScheduledItem(it, 0)
	s2 := NewScheduledItem(it, 50)
	if !s1.Equal(s2) {
		t.Error("scheduled items for the same item should be equal regardless of start")
	}
}

func TestScheduledItemEnd(t *testing.T) {
	l0, l1 := NewLane(0), NewLane(1)
	it, _ := NewItem(1, Durations{l0: 10, l1: 20}, nil)
	s := NewScheduledItem(it, 5)
	if end, ok := s.End(l0); !ok || end != 15 {
		t.Errorf("End(l0) = %d,%v want 15,true", end, ok)
	}
	if end, ok := s.End(l1); !ok || end != 25 {
		t.Errorf("End(l1) = %d,%v want 25,true", end, ok)
	}
	if s.MaxEnd() != 25 {
		t.Errorf("MaxEnd() = %d, want 25", s.MaxEnd())
	}
}
