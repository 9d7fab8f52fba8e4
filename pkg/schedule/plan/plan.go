// Package plan implements SchedulePlan, the mutable assignment of items to
// start times that the heuristic-repair driver builds and repairs.
package plan

import (
	"fmt"
	"sort"

	"github.com/kallhauge/schedcore/pkg/schedule/model"
)

// SchedulePlan is a mutable set of scheduled items, the ordered multiset of
// "interesting" start points derived from them, a dependents index, and a
// fixed-item set. See spec.md §3–§4.1 for the full invariant list; they are
// all maintained by the methods below, not recomputed lazily.
type SchedulePlan struct {
	scheduledItems map[int64]*model.ScheduledItem
	startValues    *intMultiset
	dependents     map[int64]map[int64]struct{}
	fixedItems     map[int64]struct{}
	makespan       int
}

// New returns an empty SchedulePlan.
func New() *SchedulePlan {
	return &SchedulePlan{
		scheduledItems: make(map[int64]*model.ScheduledItem),
		startValues:    newIntMultiset(),
		dependents:     make(map[int64]map[int64]struct{}),
		fixedItems:     make(map[int64]struct{}),
	}
}

// Makespan returns the maximum value currently in the start-value
// multiset, or 0 if the plan is empty.
func (p *SchedulePlan) Makespan() int { return p.makespan }

// Get returns the scheduled item for id, if present.
func (p *SchedulePlan) Get(id int64) (*model.ScheduledItem, bool) {
	si, ok := p.scheduledItems[id]
	return si, ok
}

// Items returns every scheduled item currently in the plan. Order is not
// guaranteed across calls; sort by id first if determinism is needed.
func (p *SchedulePlan) Items() []*model.ScheduledItem {
	out := make([]*model.ScheduledItem, 0, len(p.scheduledItems))
	for _, si := range p.scheduledItems {
		out = append(out, si)
	}
	return out
}

// Len returns the number of scheduled items.
func (p *SchedulePlan) Len() int { return len(p.scheduledItems) }

// IsFixed reports whether id is in the fixed set.
func (p *SchedulePlan) IsFixed(id int64) bool {
	_, ok := p.fixedItems[id]
	return ok
}

// CanBeMoved reports whether si's item is not fixed.
func (p *SchedulePlan) CanBeMoved(si *model.ScheduledItem) bool {
	return !p.IsFixed(si.ID())
}

// Add schedules item at start. It fails if the item's id is already
// present.
func (p *SchedulePlan) Add(item model.Schedulable, start int) (*model.ScheduledItem, error) {
	if _, exists := p.scheduledItems[item.ID()]; exists {
		return nil, fmt.Errorf("schedule/plan: add item %d: %w", item.ID(), ErrDuplicateItem)
	}
	si := model.NewScheduledItem(item, start)
	p.insert(si)
	p.registerDependents(item)
	return si, nil
}

// Schedule inserts a pre-built ScheduledItem, used during escape
// strategies where the caller has already computed a start. It rejects
// duplicates exactly like Add.
func (p *SchedulePlan) Schedule(si *model.ScheduledItem) error {
	if _, exists := p.scheduledItems[si.ID()]; exists {
		return fmt.Errorf("schedule/plan: schedule item %d: %w", si.ID(), ErrDuplicateItem)
	}
	p.insert(si)
	p.registerDependents(si.Item())
	return nil
}

// Fixate marks an already-present scheduled item as immovable.
func (p *SchedulePlan) Fixate(si *model.ScheduledItem) error {
	if _, ok := p.scheduledItems[si.ID()]; !ok {
		return fmt.Errorf("schedule/plan: fixate item %d: %w", si.ID(), ErrNotScheduled)
	}
	p.fixedItems[si.ID()] = struct{}{}
	return nil
}

// Move relocates item to newStart. It fails if the item is absent or
// fixed.
func (p *SchedulePlan) Move(item model.Schedulable, newStart int) (*model.ScheduledItem, error) {
	old, ok := p.scheduledItems[item.ID()]
	if !ok {
		return nil, fmt.Errorf("schedule/plan: move item %d: %w", item.ID(), ErrNotScheduled)
	}
	if p.IsFixed(item.ID()) {
		return nil, fmt.Errorf("schedule/plan: move item %d: %w", item.ID(), ErrFixedItem)
	}
	p.remove(old)
	next := old.WithStart(newStart)
	p.insert(next)
	return next, nil
}

// Exchange atomically replaces old with new, which must carry the same
// item id. Movability is checked against old's id.
func (p *SchedulePlan) Exchange(old, next *model.ScheduledItem) error {
	if old.ID() != next.ID() {
		return fmt.Errorf("schedule/plan: exchange: %w", ErrItemIdentityMismatch)
	}
	if _, ok := p.scheduledItems[old.ID()]; !ok {
		return fmt.Errorf("schedule/plan: exchange item %d: %w", old.ID(), ErrNotScheduled)
	}
	if p.IsFixed(old.ID()) {
		return fmt.Errorf("schedule/plan: exchange item %d: %w", old.ID(), ErrFixedItem)
	}
	p.remove(old)
	p.insert(next)
	return nil
}

// ShiftAll adds delta to every non-fixed item's start. No negativity check
// is performed on the resulting starts: the source behavior spec.md §9
// leaves unspecified is preserved as-is, and callers that care about
// non-negative starts must check themselves.
func (p *SchedulePlan) ShiftAll(delta int) {
	if delta == 0 {
		return
	}
	movable := make([]*model.ScheduledItem, 0, len(p.scheduledItems))
	for _, si := range p.scheduledItems {
		if p.CanBeMoved(si) {
			movable = append(movable, si)
		}
	}
	for _, si := range movable {
		p.remove(si)
	}
	for _, si := range movable {
		p.insert(si.WithStart(si.Start() + delta))
	}
}

// Unschedule removes a scheduled item from the plan. It fails on fixed
// items.
func (p *SchedulePlan) Unschedule(si *model.ScheduledItem) error {
	if _, ok := p.scheduledItems[si.ID()]; !ok {
		return fmt.Errorf("schedule/plan: unschedule item %d: %w", si.ID(), ErrNotScheduled)
	}
	if p.IsFixed(si.ID()) {
		return fmt.Errorf("schedule/plan: unschedule item %d: %w", si.ID(), ErrFixedItem)
	}
	p.remove(si)
	delete(p.dependents, si.ID())
	return nil
}

// GetDependents returns the scheduled items that declared item as
// required, ordered by current start then id.
func (p *SchedulePlan) GetDependents(item model.Schedulable) []*model.ScheduledItem {
	ids := p.dependents[item.ID()]
	out := make([]*model.ScheduledItem, 0, len(ids))
	for id := range ids {
		if si, ok := p.scheduledItems[id]; ok {
			out = append(out, si)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start() != out[j].Start() {
			return out[i].Start() < out[j].Start()
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// StartCandidates returns the strictly ordered set {0} ∪
// keys(startValues): every start time the driver will try when relocating
// a violator.
func (p *SchedulePlan) StartCandidates() []int {
	seen := p.startValues.Ascending()
	if len(seen) > 0 && seen[0] == 0 {
		return seen
	}
	out := make([]int, 0, len(seen)+1)
	out = append(out, 0)
	out = append(out, seen...)
	return out
}

// Clone returns a deep copy of the plan: containers are copied, the fixed
// set is preserved.
func (p *SchedulePlan) Clone() *SchedulePlan {
	cp := New()
	cp.startValues = p.startValues.clone()
	cp.makespan = p.makespan
	for id, si := range p.scheduledItems {
		cp.scheduledItems[id] = si
	}
	for id, deps := range p.dependents {
		set := make(map[int64]struct{}, len(deps))
		for d := range deps {
			set[d] = struct{}{}
		}
		cp.dependents[id] = set
	}
	for id := range p.fixedItems {
		cp.fixedItems[id] = struct{}{}
	}
	return cp
}

func (p *SchedulePlan) registerDependents(item model.Schedulable) {
	for _, reqID := range item.Required() {
		set, ok := p.dependents[reqID]
		if !ok {
			set = make(map[int64]struct{})
			p.dependents[reqID] = set
		}
		set[item.ID()] = struct{}{}
	}
}

// insert adds si's contribution to scheduledItems and startValues, and
// refreshes makespan.
func (p *SchedulePlan) insert(si *model.ScheduledItem) {
	p.scheduledItems[si.ID()] = si
	p.startValues.Add(si.Start())
	for _, end := range si.Ends() {
		p.startValues.Add(end)
	}
	p.refreshMakespan()
}

// remove undoes insert's contribution for si (scheduledItems entry must
// still be present and equal to si at call time).
func (p *SchedulePlan) remove(si *model.ScheduledItem) {
	delete(p.scheduledItems, si.ID())
	p.startValues.Remove(si.Start())
	for _, end := range si.Ends() {
		p.startValues.Remove(end)
	}
	p.refreshMakespan()
}

func (p *SchedulePlan) refreshMakespan() {
	if m, ok := p.startValues.Max(); ok {
		p.makespan = m
		return
	}
	p.makespan = 0
}
