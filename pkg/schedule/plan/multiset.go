package plan

import "github.com/google/btree"

// intMultiset is an ordered multiset of integer time points with
// key-count refcounts: removing one contributor among several sharing a
// key does not erase the key, and the key set can be walked in ascending
// order in O(n) or queried for its maximum.
//
// Backed by google/btree (see DESIGN.md and SPEC_FULL.md §4): the btree
// holds only the distinct keys currently present; a side map tracks each
// key's reference count.
type intMultiset struct {
	keys   *btree.BTreeG[int]
	counts map[int]int
}

func newIntMultiset() *intMultiset {
	return &intMultiset{
		keys:   btree.NewG(32, func(a, b int) bool { return a < b }),
		counts: make(map[int]int),
	}
}

// Add increments the refcount for v, inserting it into the ordered key set
// if it was not already present.
func (m *intMultiset) Add(v int) {
	if m.counts[v] == 0 {
		m.keys.ReplaceOrInsert(v)
	}
	m.counts[v]++
}

// Remove decrements the refcount for v, removing it from the ordered key
// set only when the refcount reaches zero. Removing a value with refcount
// zero is a no-op.
func (m *intMultiset) Remove(v int) {
	c, ok := m.counts[v]
	if !ok || c <= 0 {
		return
	}
	if c == 1 {
		delete(m.counts, v)
		m.keys.Delete(v)
		return
	}
	m.counts[v] = c - 1
}

// Max returns the largest key present, or (0, false) if empty.
func (m *intMultiset) Max() (int, bool) {
	v, ok := m.keys.Max()
	return v, ok
}

// Ascending returns every distinct key in ascending order.
func (m *intMultiset) Ascending() []int {
	out := make([]int, 0, m.keys.Len())
	m.keys.Ascend(func(v int) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Len returns the number of distinct keys present.
func (m *intMultiset) Len() int { return m.keys.Len() }

// clone returns a deep copy.
func (m *intMultiset) clone() *intMultiset {
	cp := newIntMultiset()
	m.keys.Ascend(func(v int) bool {
		cp.keys.ReplaceOrInsert(v)
		return true
	})
	for k, v := range m.counts {
		cp.counts[k] = v
	}
	return cp
}
