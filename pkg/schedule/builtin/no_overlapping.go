package builtin

import (
	"github.com/kallhauge/schedcore/pkg/schedule/constraint"
	"github.com/kallhauge/schedcore/pkg/schedule/model"
)

// NoOverlappingConstraint is a hard ItemPairConstraint: two items sharing a
// lane must not occupy overlapping time on it.
type NoOverlappingConstraint struct{}

var _ constraint.ItemPairConstraint = NoOverlappingConstraint{}

// NeedsChecking reports whether i and j share at least one lane.
func (NoOverlappingConstraint) NeedsChecking(i, j *model.Item) bool {
	return len(sharedLanes(i, j)) > 0
}

// Check reports, per shared lane, whether a and b overlap on it. The
// violation value is the count of overlapping shared lanes.
func (NoOverlappingConstraint) Check(a, b *model.ScheduledItem) constraint.Decision {
	count := 0
	for _, lane := range sharedLanes(model.AsItem(a.Item()), model.AsItem(b.Item())) {
		aEnd, _ := a.End(lane)
		bEnd, _ := b.End(lane)
		if a.Start() < bEnd && b.Start() < aEnd {
			count++
		}
	}
	if count == 0 {
		return constraint.Decision{Hard: true, Fulfilled: true}
	}
	return constraint.Decision{Hard: true, Fulfilled: false, ViolationValue: count}
}

// PredictDecision uses each item's maxDuration as a lane-agnostic envelope:
// moved is guaranteed clear of fixed whenever it ends at or before fixed
// starts, or starts at or after fixed ends, on every lane, regardless of
// which lanes are actually shared. Inside that envelope the exact overlap
// depends on which specific lanes are shared and their individual
// durations, so it is reported as Unknown rather than guessed at, keeping
// the prediction admissible.
func (NoOverlappingConstraint) PredictDecision(moved *model.Item, fixItem *model.ScheduledItem) constraint.Prediction {
	return constraint.Prediction{
		Before:                 constraint.NoConflict,
		Together:               constraint.Unknown,
		After:                  constraint.NoConflict,
		PredictedConflictValue: 1,
	}
}

func sharedLanes(i, j *model.Item) []model.Lane {
	if i == nil || j == nil {
		return nil
	}
	var out []model.Lane
	for _, lane := range i.Lanes() {
		if _, ok := j.Duration(lane); ok {
			out = append(out, lane)
		}
	}
	return out
}
