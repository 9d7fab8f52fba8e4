package scheduler

import (
	"github.com/samber/lo"

	"github.com/kallhauge/schedcore/pkg/schedule/constraint"
	"github.com/kallhauge/schedcore/pkg/schedule/model"
)

// unionFind is a plain union-by-attach disjoint-set over item ids, used to
// partition the item universe into independently schedulable clusters.
type unionFind struct{ parent map[int64]int64 }

func newUnionFind(ids []int64) *unionFind {
	uf := &unionFind{parent: make(map[int64]int64, len(ids))}
	for _, id := range ids {
		uf.parent[id] = id
	}
	return uf
}

func (uf *unionFind) find(x int64) int64 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int64) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}

// partitionClusters groups items into connected components under the union
// of every pair constraint's NeedsChecking relation, so components with no
// possible interaction can be scheduled independently (spec.md §5).
func partitionClusters(items []model.Schedulable, pair []constraint.ItemPairConstraint) [][]model.Schedulable {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID()
	}
	uf := newUnionFind(ids)

	for i, a := range items {
		ai := model.AsItem(a)
		for _, b := range items[i+1:] {
			bi := model.AsItem(b)
			for _, c := range pair {
				if c.NeedsChecking(ai, bi) {
					uf.union(a.ID(), b.ID())
					break
				}
			}
		}
	}

	groups := lo.GroupBy(items, func(it model.Schedulable) int64 { return uf.find(it.ID()) })
	return lo.Values(groups)
}
