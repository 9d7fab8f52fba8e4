// Package constraint defines the external contract schedcore's solver
// consumes: single-item and pairwise constraints, their decisions, and the
// lookahead predictions the predictor uses to prune trial moves.
package constraint

import "github.com/kallhauge/schedcore/pkg/schedule/model"

// Decision is the outcome of checking a constraint against one or two
// scheduled items.
type Decision struct {
	// Hard marks the constraint as non-negotiable: the solver drives hard
	// violations to zero before optimizing soft ones.
	Hard bool
	// Fulfilled is true when the constraint holds.
	Fulfilled bool
	// ViolationValue is >= 0 and quantifies how badly the constraint is
	// violated when Fulfilled is false. It is 0 when Fulfilled is true.
	ViolationValue int
}

// SingleItemConstraint checks one scheduled item in isolation (e.g. "must
// not start before time zero", "should start as early as possible").
type SingleItemConstraint interface {
	Check(item *model.ScheduledItem) Decision
}

// Classification is the three-way lookahead verdict a pair constraint can
// give about a moved item relative to a fixed partner: whether placing the
// moved item at some start would conflict, would not conflict, or cannot be
// determined without a full Check.
type Classification int

const (
	// Unknown means the predictor cannot rule out a conflict and the
	// trial update must fall back to a full Check.
	Unknown Classification = iota
	// Conflict means a hard conflict is guaranteed in this region.
	Conflict
	// NoConflict means no conflict can occur in this region.
	NoConflict
)

// Prediction classifies the moved-item-before, moved-item-overlapping, and
// moved-item-after cases for a pair of items, together with an admissible
// lower bound on the hard conflict value when a conflict is predicted.
type Prediction struct {
	Before               Classification
	Together             Classification
	After                Classification
	PredictedConflictValue int
}

// ItemPairConstraint checks two scheduled items against each other (e.g.
// "must not overlap on a shared lane", "must start after its dependency
// ends").
type ItemPairConstraint interface {
	// NeedsChecking reports whether this constraint could ever produce a
	// non-trivial Decision for the pair (i, j). It may return true
	// without being conservative (false positives are safe, false
	// negatives are not); it exists to prune the pair-interaction graph.
	NeedsChecking(i, j *model.Item) bool
	// Check evaluates the constraint for two scheduled items.
	Check(a, b *model.ScheduledItem) Decision
	// PredictDecision returns an admissible lower-bound classification
	// for relocating moved relative to the fixed partner's current
	// position, without scheduling moved anywhere.
	PredictDecision(moved *model.Item, fixItem *model.ScheduledItem) Prediction
}

// UpdateableConstraint is an optional marker interface: constraints that
// cache internal state may refresh it once per scheduling run via Update.
type UpdateableConstraint interface {
	Update()
}

// Constraint is the union supplied to the scheduler: any single-item or
// pairwise constraint. The scheduler type-switches on this to build the
// single-item and pair-interaction graphs separately.
type Constraint interface{}
