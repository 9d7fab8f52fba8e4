package predictor

import "math"

// segment is an explicit, gap-free partition element used internally by
// merge sweeps: [start, end] both inclusive, with end == math.MaxInt or
// start == math.MinInt marking the unbounded before/after ends.
type segment struct {
	start, end       int
	conflict, unknown int
}

func normalize(pb PredictionBlocks) []segment {
	segs := make([]segment, 0, len(pb.middles)+2)
	segs = append(segs, segment{math.MinInt, pb.before.end, pb.before.conflict, pb.before.unknown})
	cursor := pb.before.end
	for _, m := range pb.middles {
		if m.start > cursor+1 {
			segs = append(segs, segment{cursor + 1, m.start - 1, 0, 0})
		}
		segs = append(segs, segment{m.start, m.end, m.conflict, m.unknown})
		cursor = m.end
	}
	if pb.after.start > cursor+1 {
		segs = append(segs, segment{cursor + 1, pb.after.start - 1, 0, 0})
	}
	segs = append(segs, segment{pb.after.start, math.MaxInt, pb.after.conflict, pb.after.unknown})
	return segs
}

func valueAt(segs []segment, t int) (int, int) {
	for _, s := range segs {
		if t >= s.start && t <= s.end {
			return s.conflict, s.unknown
		}
	}
	return 0, 0
}

// combine sweeps the union of both operands' segment boundaries and emits
// op(a,b) at each resulting segment, producing a new gap-free partition.
func combine(a, b PredictionBlocks, op func(ac, au, bc, bu int) (int, int)) PredictionBlocks {
	as, bs := normalize(a), normalize(b)
	starts := make([]int, 0, len(as)+len(bs))
	for _, s := range as {
		starts = append(starts, s.start)
	}
	for _, s := range bs {
		starts = append(starts, s.start)
	}
	starts = dedupSorted(starts)

	merged := make([]segment, 0, len(starts))
	for i, start := range starts {
		end := math.MaxInt
		if i+1 < len(starts) {
			end = starts[i+1] - 1
		}
		ac, au := valueAt(as, start)
		bc, bu := valueAt(bs, start)
		c, u := op(ac, au, bc, bu)
		merged = append(merged, segment{start, end, c, u})
	}
	return denormalize(coalesce(merged))
}

// coalesce merges adjacent segments with identical values, an optional
// optimization spec.md §4.4 explicitly permits ("Adjacent blocks with
// identical values MAY be coalesced").
func coalesce(segs []segment) []segment {
	if len(segs) == 0 {
		return segs
	}
	out := make([]segment, 0, len(segs))
	out = append(out, segs[0])
	for _, s := range segs[1:] {
		last := &out[len(out)-1]
		if last.conflict == s.conflict && last.unknown == s.unknown && last.end+1 == s.start {
			last.end = s.end
			continue
		}
		out = append(out, s)
	}
	return out
}

func denormalize(segs []segment) PredictionBlocks {
	if len(segs) == 1 {
		// One uniform value everywhere: same shape as Zero().
		s := segs[0]
		return PredictionBlocks{
			before: beforeBlock{conflict: s.conflict, unknown: s.unknown, end: 0},
			after:  afterBlock{conflict: s.conflict, unknown: s.unknown, start: 1},
		}
	}
	pb := PredictionBlocks{
		before: beforeBlock{conflict: segs[0].conflict, unknown: segs[0].unknown, end: segs[0].end},
		after:  afterBlock{conflict: segs[len(segs)-1].conflict, unknown: segs[len(segs)-1].unknown, start: segs[len(segs)-1].start},
	}
	for _, s := range segs[1 : len(segs)-1] {
		if s.conflict == 0 && s.unknown == 0 {
			continue // uncovered middle region defaults to zero via At()
		}
		pb.middles = append(pb.middles, globalBlockStore.intern(s.conflict, s.unknown, s.start, s.end))
	}
	return pb
}

// MergeMax returns the pointwise maximum of both the conflict and unknown
// values of a and b, used to merge several constraints' predictions for
// the same pair into the single strongest prediction (spec.md §4.4).
func MergeMax(a, b PredictionBlocks) PredictionBlocks {
	return combine(a, b, func(ac, au, bc, bu int) (int, int) {
		return maxInt(ac, bc), maxInt(au, bu)
	})
}

// Add returns the pointwise sum of a and b, used to aggregate a moved
// item's per-partner functions into one aggregated function (spec.md
// §4.4).
func Add(a, b PredictionBlocks) PredictionBlocks {
	return combine(a, b, func(ac, au, bc, bu int) (int, int) {
		return ac + bc, au + bu
	})
}

// Subtract returns a minus b, used to incrementally remove a dirty
// partner's stale contribution from a cached aggregate before re-adding
// its contribution at the partner's new position.
func Subtract(a, b PredictionBlocks) PredictionBlocks {
	return combine(a, b, func(ac, au, bc, bu int) (int, int) {
		return ac - bc, au - bu
	})
}

// Shift translates pb by offset, used to reposition a pair's
// start-difference function onto the moved item's absolute timeline once
// the fixed partner's current absolute start is known.
func Shift(pb PredictionBlocks, offset int) PredictionBlocks {
	shifted := PredictionBlocks{
		before: beforeBlock{conflict: pb.before.conflict, unknown: pb.before.unknown, end: addClamped(pb.before.end, offset)},
		after:  afterBlock{conflict: pb.after.conflict, unknown: pb.after.unknown, start: addClamped(pb.after.start, offset)},
	}
	for _, m := range pb.middles {
		shifted.middles = append(shifted.middles, globalBlockStore.intern(
			m.conflict, m.unknown, addClamped(m.start, offset), addClamped(m.end, offset),
		))
	}
	return shifted
}

func addClamped(v, offset int) int {
	if v == math.MinInt || v == math.MaxInt {
		return v
	}
	return v + offset
}
