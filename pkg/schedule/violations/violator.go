package violations

import "github.com/kallhauge/schedcore/pkg/schedule/model"

// Violator is a non-fixed scheduled item annotated with its current
// aggregate hard and soft violation load: single-constraint sums plus the
// sum, over all pair partners, of the shared pair container's values
// (spec.md §3).
type Violator struct {
	Scheduled *model.ScheduledItem
	Hard      int
	Soft      int
}

// ID returns the underlying item's id; Violator equality is by this alone.
func (v Violator) ID() int64 { return v.Scheduled.ID() }

// less orders violators by (hard asc, soft asc, durationSummary desc, id
// asc), the comparator the order-statistic tree is keyed by (spec.md §3).
func less(a, b Violator) bool {
	if a.Hard != b.Hard {
		return a.Hard < b.Hard
	}
	if a.Soft != b.Soft {
		return a.Soft < b.Soft
	}
	ad := a.Scheduled.Item().DurationSummary()
	bd := b.Scheduled.Item().DurationSummary()
	if ad != bd {
		return ad > bd
	}
	return a.Scheduled.ID() < b.Scheduled.ID()
}

// sameKey reports whether a and b occupy the same tree position, i.e.
// neither orders before the other under less. Because id is the final
// tiebreaker and ids are unique, this only holds when a and b are the same
// stored value (same item, same hard/soft/durationSummary snapshot).
func sameKey(a, b Violator) bool {
	return !less(a, b) && !less(b, a)
}
