package violations

import "github.com/kallhauge/schedcore/pkg/schedule/constraint"

// ViolationsContainer holds the current (hard, soft) pair violation values
// shared by one unordered pair of items. The same container is referenced
// from both endpoints' ConstraintPartner record, so updating it once is
// visible from either side (spec.md §3, §9 "arena-allocated records
// indexed by partner pair, not cross-referenced graph nodes").
type ViolationsContainer struct {
	Hard int
	Soft int
}

// ConstraintPartner attaches one endpoint's view of a shared pair
// interaction: who the partner is, which constraints apply between this
// item and that partner, and the shared container.
type ConstraintPartner struct {
	PartnerID   int64
	Container   *ViolationsContainer
	Constraints []constraint.ItemPairConstraint
}
