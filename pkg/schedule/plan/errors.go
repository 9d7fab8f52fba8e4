package plan

import "errors"

var (
	// ErrDuplicateItem is returned by Add/Schedule when an item id is
	// already present in the plan.
	ErrDuplicateItem = errors.New("item already present in plan")
	// ErrNotScheduled is returned when an operation targets an item id
	// that is not currently in the plan.
	ErrNotScheduled = errors.New("item not scheduled in plan")
	// ErrFixedItem is returned when an operation would move, exchange, or
	// unschedule a fixed item.
	ErrFixedItem = errors.New("item is fixed and cannot be moved or unscheduled")
	// ErrItemIdentityMismatch is returned by Exchange when old and new do
	// not refer to the same item id.
	ErrItemIdentityMismatch = errors.New("exchange requires the same item id")
)
