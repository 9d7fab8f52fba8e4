package builtin

import (
	"github.com/kallhauge/schedcore/pkg/schedule/constraint"
	"github.com/kallhauge/schedcore/pkg/schedule/model"
)

// DependenciesConstraint is a hard ItemPairConstraint: if one item
// declares the other as required, the dependent item must not start
// before the required item's latest end. Items that reference a required
// id not present in the current run are unaffected (spec.md §6: the
// dependency constraint treats absent required ids as absent).
type DependenciesConstraint struct{}

var _ constraint.ItemPairConstraint = DependenciesConstraint{}

// NeedsChecking reports whether either item requires the other.
func (DependenciesConstraint) NeedsChecking(i, j *model.Item) bool {
	return requires(i, j) || requires(j, i)
}

func requires(dependent, required *model.Item) bool {
	for _, id := range dependent.Required() {
		if id == required.ID() {
			return true
		}
	}
	return false
}

// Check reports a violation when the dependent of the pair starts before
// the required item's latest end.
func (DependenciesConstraint) Check(a, b *model.ScheduledItem) constraint.Decision {
	ai, bi := model.AsItem(a.Item()), model.AsItem(b.Item())
	switch {
	case requires(ai, bi):
		return checkOrder(b, a)
	case requires(bi, ai):
		return checkOrder(a, b)
	default:
		return constraint.Decision{Hard: true, Fulfilled: true}
	}
}

// checkOrder reports whether dependent starts at or after required's
// latest end.
func checkOrder(required, dependent *model.ScheduledItem) constraint.Decision {
	if dependent.Start() >= required.MaxEnd() {
		return constraint.Decision{Hard: true, Fulfilled: true}
	}
	return constraint.Decision{Hard: true, Fulfilled: false, ViolationValue: 1}
}

// PredictDecision reports Conflict everywhere the dependency could still
// be broken and NoConflict everywhere it is guaranteed satisfied, using
// moved.maxDuration / fixItem.maxDuration as the region boundaries
// (spec.md §4.4).
func (DependenciesConstraint) PredictDecision(moved *model.Item, fixItem *model.ScheduledItem) constraint.Prediction {
	fixed := model.AsItem(fixItem.Item())
	pred := constraint.Prediction{PredictedConflictValue: 1}
	switch {
	case requires(moved, fixed):
		// moved is the dependent: satisfied only once moved starts at or
		// after fixed's end, i.e. t >= fixed.maxDuration.
		pred.Before = constraint.Conflict
		pred.Together = constraint.Conflict
		pred.After = constraint.NoConflict
	case requires(fixed, moved):
		// fixed is the dependent: satisfied only while moved ends at or
		// before fixed starts, i.e. t <= -moved.maxDuration.
		pred.Before = constraint.NoConflict
		pred.Together = constraint.Conflict
		pred.After = constraint.Conflict
	default:
		pred.Before, pred.Together, pred.After = constraint.NoConflict, constraint.NoConflict, constraint.NoConflict
	}
	return pred
}
