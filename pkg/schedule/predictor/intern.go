package predictor

import "sync"

// middleKey is the field tuple middle blocks are interned by (spec.md
// §4.4: "blocks are interned in a content-addressed store keyed by their
// field tuple").
type middleKey struct {
	conflict, unknown, start, end int
}

// blockStore is a concurrent content-addressed store for middleBlock
// values. spec.md §4.4/§5 call for block interning to be safe under the
// predictor's optional parallel aggregation; sync.Map is the idiomatic
// stdlib choice for a write-once, read-heavy table like this one (see
// SPEC_FULL.md §8 for why no library was reached for here).
type blockStore struct {
	m sync.Map // middleKey -> *middleBlock
}

var globalBlockStore blockStore

func (s *blockStore) intern(c, u, start, end int) *middleBlock {
	key := middleKey{c, u, start, end}
	if v, ok := s.m.Load(key); ok {
		return v.(*middleBlock)
	}
	blk := &middleBlock{conflict: c, unknown: u, start: start, end: end}
	actual, _ := s.m.LoadOrStore(key, blk)
	return actual.(*middleBlock)
}
