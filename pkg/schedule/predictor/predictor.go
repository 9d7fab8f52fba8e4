// Package predictor maintains, per movable item, a cached admissible
// lower-bound function of candidate start time built from every pairwise
// constraint's PredictDecision. It lets the violations manager prune trial
// moves that cannot possibly improve on the current best without running a
// full Check against every partner (spec.md §4.4).
package predictor

import (
	"github.com/kallhauge/schedcore/internal/workpool"
	"github.com/kallhauge/schedcore/pkg/schedule/constraint"
	"github.com/kallhauge/schedcore/pkg/schedule/model"
)

// planView is the slice of SchedulePlan the predictor needs: current
// positions of whichever items are still scheduled. It is satisfied by
// *plan.SchedulePlan without predictor importing the plan package back
// (plan already imports model, and nothing here needs plan's mutators).
type planView interface {
	Get(id int64) (*model.ScheduledItem, bool)
}

type pairKey struct {
	moved, fixed int64
}

type itemAggregate struct {
	contributions map[int64]PredictionBlocks
	total         PredictionBlocks
}

// Predictor builds and incrementally maintains, for every movable item, an
// aggregated PredictionBlocks function over its partners' current absolute
// positions.
type Predictor struct {
	pool *workpool.Pool

	pairFns    map[pairKey]PredictionBlocks
	partnersOf map[int64][]int64

	plan  planView
	cache map[int64]*itemAggregate
	dirty map[int64]map[int64]bool
}

// New returns a Predictor that uses pool (may be nil) to parallelize the
// per-partner sweep when an item's aggregate must be rebuilt from scratch.
func New(pool *workpool.Pool) *Predictor {
	return &Predictor{pool: pool}
}

// Initialize (re)builds the pair-interaction function table from scratch
// for items against pairConstraints, and resets all caches. It must be
// called once before any Query/DefinedHardConflictValue/ItemMoved call, and
// again whenever the constraint set or item universe changes.
func (p *Predictor) Initialize(pl planView, items []model.Schedulable, pairConstraints []constraint.ItemPairConstraint) {
	p.plan = pl
	p.pairFns = make(map[pairKey]PredictionBlocks)
	p.partnersOf = make(map[int64][]int64)
	p.cache = make(map[int64]*itemAggregate)
	p.dirty = make(map[int64]map[int64]bool)

	for _, a := range items {
		for _, b := range items {
			if a.ID() == b.ID() {
				continue
			}
			var merged PredictionBlocks
			have := false
			ai, bi := model.AsItem(a), model.AsItem(b)
			for _, c := range pairConstraints {
				if !c.NeedsChecking(ai, bi) {
					continue
				}
				fixedSI, ok := pl.Get(b.ID())
				if !ok {
					continue
				}
				pred := c.PredictDecision(ai, fixedSI)
				fn := fromPrediction(pred, a.MaxDuration(), b.MaxDuration())
				if !have {
					merged = fn
					have = true
				} else {
					merged = MergeMax(merged, fn)
				}
			}
			if !have {
				continue
			}
			p.pairFns[pairKey{moved: a.ID(), fixed: b.ID()}] = merged
			p.partnersOf[a.ID()] = append(p.partnersOf[a.ID()], b.ID())
		}
	}
}

// fromPrediction translates a Prediction into the three-region piecewise
// function spec.md §4.4 describes, in terms of t = moved.start -
// fixed.start: moved strictly before fixed (t <= -movedMax), moved
// strictly after fixed (t >= fixedMax), and the open overlap region
// between them, modeled as a single MiddleBlock carrying the Together
// classification's value. Treating the whole overlap as one block is a
// deliberate simplification of the open sub-region language in spec.md
// §4.4 (see DESIGN.md Open Questions).
func fromPrediction(pred constraint.Prediction, movedMax, fixedMax int) PredictionBlocks {
	bc, bu := classify(pred.Before, pred.PredictedConflictValue)
	ac, au := classify(pred.After, pred.PredictedConflictValue)
	tc, tu := classify(pred.Together, pred.PredictedConflictValue)

	pb := PredictionBlocks{
		before: beforeBlock{conflict: bc, unknown: bu, end: -movedMax},
		after:  afterBlock{conflict: ac, unknown: au, start: fixedMax},
	}
	if -movedMax+1 <= fixedMax-1 && (tc != 0 || tu != 0) {
		pb.middles = []*middleBlock{globalBlockStore.intern(tc, tu, -movedMax+1, fixedMax-1)}
	}
	return pb
}

func classify(c constraint.Classification, conflictValue int) (int, int) {
	switch c {
	case constraint.Conflict:
		return conflictValue, 0
	case constraint.NoConflict:
		return 0, 0
	default:
		return 0, 1
	}
}

// ItemMoved marks every partner of id as carrying a stale contribution from
// id, so their next aggregate query re-derives that one contribution
// instead of assuming it's unchanged. id's own cached aggregate needs no
// invalidation: it sums partner contributions evaluated at the partners'
// positions, none of which changed because id moved.
func (p *Predictor) ItemMoved(id int64) {
	for _, partnerID := range p.partnersOf[id] {
		set, ok := p.dirty[partnerID]
		if !ok {
			set = make(map[int64]bool)
			p.dirty[partnerID] = set
		}
		set[id] = true
	}
}

// Query returns the aggregated (conflictValue, unknownValue) for itemID if
// it were placed at candidateStart.
func (p *Predictor) Query(itemID int64, candidateStart int) (int, int) {
	agg := p.aggregateFor(itemID)
	return agg.total.At(candidateStart)
}

// DefinedHardConflictValue returns the aggregated conflict component for an
// already-positioned candidate item.
func (p *Predictor) DefinedHardConflictValue(candidate *model.ScheduledItem) int {
	c, _ := p.Query(candidate.ID(), candidate.Start())
	return c
}

func (p *Predictor) aggregateFor(id int64) *itemAggregate {
	partners := p.partnersOf[id]
	entry, ok := p.cache[id]
	if !ok {
		entry = &itemAggregate{contributions: make(map[int64]PredictionBlocks)}
		p.cache[id] = entry
		p.rebuild(id, entry, partners)
		return entry
	}

	dirtySet := p.dirty[id]
	if len(dirtySet) == 0 {
		return entry
	}
	// spec.md §4.4: rebuild wholesale once the dirty fraction crosses half
	// the partner count, otherwise patch only the dirty partners in place.
	if len(partners) == 0 || len(dirtySet)*2 >= len(partners) {
		p.rebuild(id, entry, partners)
	} else {
		p.patch(id, entry, dirtySet)
	}
	delete(p.dirty, id)
	return entry
}

func (p *Predictor) rebuild(id int64, entry *itemAggregate, partners []int64) {
	entry.total = Zero()
	entry.contributions = make(map[int64]PredictionBlocks, len(partners))
	shifted := make([]PredictionBlocks, len(partners))
	present := make([]bool, len(partners))

	workpool.MapBounded(p.pool, len(partners), func(i int) {
		pid := partners[i]
		fn, ok := p.pairFns[pairKey{moved: id, fixed: pid}]
		if !ok {
			return
		}
		partnerSI, ok := p.plan.Get(pid)
		if !ok {
			return
		}
		shifted[i] = Shift(fn, partnerSI.Start())
		present[i] = true
	})

	for i, pid := range partners {
		if !present[i] {
			continue
		}
		entry.contributions[pid] = shifted[i]
		entry.total = Add(entry.total, shifted[i])
	}
	delete(p.dirty, id)
}

func (p *Predictor) patch(id int64, entry *itemAggregate, dirtySet map[int64]bool) {
	for pid := range dirtySet {
		if old, ok := entry.contributions[pid]; ok {
			entry.total = Subtract(entry.total, old)
			delete(entry.contributions, pid)
		}
		fn, ok := p.pairFns[pairKey{moved: id, fixed: pid}]
		if !ok {
			continue
		}
		partnerSI, ok := p.plan.Get(pid)
		if !ok {
			continue
		}
		shifted := Shift(fn, partnerSI.Start())
		entry.contributions[pid] = shifted
		entry.total = Add(entry.total, shifted)
	}
}
