// Package model defines the immutable problem entities schedcore operates
// on: lanes, items, and scheduled items.
package model

import "fmt"

// Lane identifies an executing resource (a machine, a worker, a channel).
// Lanes are immutable and compared by their number.
type Lane struct {
	number int
}

// NewLane returns the Lane identified by number.
func NewLane(number int) Lane {
	return Lane{number: number}
}

// Number returns the lane's unique integer identifier.
func (l Lane) Number() int {
	return l.number
}

// Equal reports whether two lanes share the same number.
func (l Lane) Equal(other Lane) bool {
	return l.number == other.number
}

// Hash returns a hash consistent with Equal.
func (l Lane) Hash() uint64 {
	return uint64(l.number)
}

func (l Lane) String() string {
	return fmt.Sprintf("Lane(%d)", l.number)
}
