package model

import "fmt"

// SwitchLaneItem is an Item that may, at solver discretion, switch its
// active lane->duration mapping to one of a pre-declared, non-empty list of
// alternatives. Switching produces a new SwitchLaneItem: the chosen
// alternative becomes active, and the new alternatives list is the old
// active mapping followed by the other alternatives in their original
// order. The alternatives list length is invariant across switches, and the
// item handed back as an alternative never repeats the item's own current
// active mapping.
type SwitchLaneItem struct {
	*Item
	alternatives []Durations
}

var _ Schedulable = (*SwitchLaneItem)(nil)

// NewSwitchLaneItem constructs a SwitchLaneItem with active as its current
// lane->duration mapping and alternatives as the non-empty list of mappings
// it may switch to.
func NewSwitchLaneItem(id int64, active Durations, alternatives []Durations, required []int64) (*SwitchLaneItem, error) {
	base, err := NewItem(id, active, required)
	if err != nil {
		return nil, err
	}
	if len(alternatives) == 0 {
		return nil, fmt.Errorf("schedule/model: item %d: %w", id, ErrNoAlternatives)
	}
	alts := make([]Durations, len(alternatives))
	for i, alt := range alternatives {
		if len(alt) == 0 {
			return nil, fmt.Errorf("schedule/model: item %d: alternative %d: %w", id, i, ErrNoLanes)
		}
		cp := make(Durations, len(alt))
		for lane, d := range alt {
			if d <= 0 {
				return nil, fmt.Errorf("schedule/model: item %d: alternative %d: lane %s: %w", id, i, lane, ErrNonPositiveDuration)
			}
			cp[lane] = d
		}
		alts[i] = cp
	}
	return &SwitchLaneItem{Item: base, alternatives: alts}, nil
}

// Alternatives returns the currently available alternative duration
// mappings, in order. The returned slice must not be mutated.
func (s *SwitchLaneItem) Alternatives() []Durations {
	out := make([]Durations, len(s.alternatives))
	copy(out, s.alternatives)
	return out
}

// Switch returns a new SwitchLaneItem with alternatives[index] made active.
// The returned item's alternatives list is s's current active mapping
// followed by s's remaining alternatives (excluding the one just chosen),
// in their original relative order, so its length equals len(s.alternatives).
func (s *SwitchLaneItem) Switch(index int) (*SwitchLaneItem, error) {
	if index < 0 || index >= len(s.alternatives) {
		return nil, fmt.Errorf("schedule/model: item %d: alternative %d: %w", s.ID(), index, ErrUnknownAlternative)
	}
	newActive := s.alternatives[index]
	newAlts := make([]Durations, 0, len(s.alternatives))
	newAlts = append(newAlts, s.Durations())
	for i, alt := range s.alternatives {
		if i == index {
			continue
		}
		newAlts = append(newAlts, alt)
	}
	return NewSwitchLaneItem(s.ID(), newActive, newAlts, s.Required())
}

func (s *SwitchLaneItem) String() string {
	return fmt.Sprintf("SwitchLaneItem(%d)", s.ID())
}

// AsSwitchLane type-asserts s to *SwitchLaneItem. Callers that need to know
// whether an item may switch its active lane mapping (the predictor's
// "not a lane-switching item" short-circuit condition, the configurations
// manager's optional-duration retry) use this instead of a type switch of
// their own, so the capability check has one definition.
func AsSwitchLane(s Schedulable) (*SwitchLaneItem, bool) {
	sli, ok := s.(*SwitchLaneItem)
	return sli, ok
}

// AsItem extracts the underlying *Item from any Schedulable, used where a
// narrower *Item shape is required (e.g. ItemPairConstraint.NeedsChecking,
// which only cares about lane/duration structure, not switch capability).
func AsItem(s Schedulable) *Item {
	switch v := s.(type) {
	case *Item:
		return v
	case *SwitchLaneItem:
		return v.Item
	default:
		return nil
	}
}
