// Package builtin provides the three default constraints spec.md §6
// mentions as the scheduler's out-of-the-box set: StartNow, NoOverlapping,
// Dependencies. Their logic is intentionally simple; the engineering
// weight in this module lives in the violations manager and predictor
// that consume them.
package builtin

import (
	"github.com/kallhauge/schedcore/pkg/schedule/constraint"
	"github.com/kallhauge/schedcore/pkg/schedule/model"
)

// StartNowConstraint is a soft SingleItemConstraint preferring every item
// start as close to zero as possible: fulfilled only at start 0, with a
// violation value equal to the start time otherwise.
type StartNowConstraint struct{}

var _ constraint.SingleItemConstraint = StartNowConstraint{}

// Check implements constraint.SingleItemConstraint.
func (StartNowConstraint) Check(si *model.ScheduledItem) constraint.Decision {
	if si.Start() == 0 {
		return constraint.Decision{Hard: false, Fulfilled: true}
	}
	return constraint.Decision{Hard: false, Fulfilled: false, ViolationValue: si.Start()}
}
