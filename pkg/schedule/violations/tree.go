package violations

import "github.com/google/btree"

// violatorTree is the order-statistic structure spec.md §9 calls for: a
// balanced tree with a fast "largest strictly less than" query, backed by
// google/btree the same way plan's intMultiset is (see DESIGN.md). Callers
// must keep the companion item->Violator index (see manager.go) so a
// stored value can be reconstructed for Delete: the tree orders by the
// full (hard, soft, durationSummary, id) tuple, not id alone, so deleting
// by id requires the exact tuple last inserted for that id.
type violatorTree struct {
	t *btree.BTreeG[Violator]
}

func newViolatorTree() *violatorTree {
	return &violatorTree{t: btree.NewG(32, less)}
}

func (vt *violatorTree) insert(v Violator) {
	vt.t.ReplaceOrInsert(v)
}

func (vt *violatorTree) remove(v Violator) {
	vt.t.Delete(v)
}

func (vt *violatorTree) max() (Violator, bool) {
	return vt.t.Max()
}

// largestStrictlyLessThan returns the largest violator strictly less than
// bound, or false if none exists. bound must be the exact tuple currently
// (or previously) held for its item, since the tree walk needs it to find
// the correct starting point.
func (vt *violatorTree) largestStrictlyLessThan(bound Violator) (Violator, bool) {
	var result Violator
	found := false
	vt.t.DescendLessOrEqual(bound, func(v Violator) bool {
		if sameKey(v, bound) {
			return true // skip bound's own entry, keep descending
		}
		result, found = v, true
		return false
	})
	return result, found
}

func (vt *violatorTree) len() int { return vt.t.Len() }
