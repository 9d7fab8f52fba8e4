package scheduler

import (
	"errors"

	"github.com/kallhauge/schedcore/pkg/schedule/model"
	"github.com/kallhauge/schedcore/pkg/schedule/plan"
)

var (
	// ErrLocalOptimum is returned when the repair loop cannot drive the
	// remaining hard violations to zero and none of the three escape
	// strategies produced a usable replacement plan.
	ErrLocalOptimum = errors.New("schedcore: unable to escape local optimum")
	// ErrCircularConstraint is returned by the shift-and-lock escape
	// strategies when an item locked earlier in the cascade is re-violated
	// by a later shift, which would otherwise loop forever.
	ErrCircularConstraint = errors.New("schedcore: circular constraint detected during shift-and-lock")

	// ErrFixedItem, ErrDuplicateItem, and ErrInvalidDuration re-export the
	// lower-level sentinels callers are most likely to see bubble out of
	// Schedule, so they can errors.Is against the scheduler package alone
	// without reaching into pkg/schedule/plan or pkg/schedule/model.
	ErrFixedItem       = plan.ErrFixedItem
	ErrDuplicateItem   = plan.ErrDuplicateItem
	ErrInvalidDuration = model.ErrNonPositiveDuration
)
