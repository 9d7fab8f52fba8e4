// Package violations implements incremental bookkeeping of per-item and
// per-pair constraint violations, ordered by severity, as described in
// spec.md §4.3.
package violations

import (
	"fmt"

	"github.com/kallhauge/schedcore/pkg/schedule/constraint"
	"github.com/kallhauge/schedcore/pkg/schedule/model"
	"github.com/kallhauge/schedcore/pkg/schedule/plan"
	"github.com/kallhauge/schedcore/pkg/schedule/predictor"
)

// Manager builds the pair-interaction graph for a plan, maintains
// per-item aggregate violation scores in an order-statistic structure, and
// supports trial updates evaluated against the current reference.
type Manager struct {
	single []constraint.SingleItemConstraint
	pair   []constraint.ItemPairConstraint

	pred            *predictor.Predictor
	usingPrediction bool

	partners map[int64][]*ConstraintPartner
	tree     *violatorTree
	index    map[int64]Violator
}

// New returns a Manager over the given constraint lists. pred may be nil;
// usingPrediction has no effect if it is.
func New(single []constraint.SingleItemConstraint, pair []constraint.ItemPairConstraint, pred *predictor.Predictor, usingPrediction bool) *Manager {
	return &Manager{
		single:          single,
		pair:            pair,
		pred:            pred,
		usingPrediction: usingPrediction && pred != nil,
	}
}

// Initialize builds the pair-interaction graph and violator tree from
// scratch against pl's current scheduled items (spec.md §4.3 steps 1-3).
func (m *Manager) Initialize(pl *plan.SchedulePlan) {
	for _, c := range m.single {
		if u, ok := c.(constraint.UpdateableConstraint); ok {
			u.Update()
		}
	}
	for _, c := range m.pair {
		if u, ok := c.(constraint.UpdateableConstraint); ok {
			u.Update()
		}
	}

	items := pl.Items()
	m.partners = make(map[int64][]*ConstraintPartner, len(items))
	for _, si := range items {
		m.partners[si.ID()] = nil
	}

	for i, a := range items {
		for _, b := range items[i+1:] {
			relevant := m.relevantConstraints(a, b)
			if len(relevant) == 0 {
				continue
			}
			container := &ViolationsContainer{}
			m.partners[a.ID()] = append(m.partners[a.ID()], &ConstraintPartner{
				PartnerID: b.ID(), Container: container, Constraints: relevant,
			})
			m.partners[b.ID()] = append(m.partners[b.ID()], &ConstraintPartner{
				PartnerID: a.ID(), Container: container, Constraints: relevant,
			})

			hard, soft := 0, 0
			for _, c := range relevant {
				d := c.Check(a, b)
				if !d.Fulfilled {
					if d.Hard {
						hard += d.ViolationValue
					} else {
						soft += d.ViolationValue
					}
				}
			}
			container.Hard, container.Soft = hard, soft
		}
	}

	m.tree = newViolatorTree()
	m.index = make(map[int64]Violator, len(items))
	for _, si := range items {
		if pl.IsFixed(si.ID()) {
			continue
		}
		hard, soft := m.singleCheck(si)
		ph, ps := m.partnerAggregate(si.ID())
		v := Violator{Scheduled: si, Hard: hard + ph, Soft: soft + ps}
		m.tree.insert(v)
		m.index[si.ID()] = v
	}
}

func (m *Manager) relevantConstraints(a, b *model.ScheduledItem) []constraint.ItemPairConstraint {
	ai, bi := model.AsItem(a.Item()), model.AsItem(b.Item())
	var out []constraint.ItemPairConstraint
	for _, c := range m.pair {
		if c.NeedsChecking(ai, bi) {
			out = append(out, c)
		}
	}
	return out
}

func (m *Manager) singleCheck(si *model.ScheduledItem) (hard, soft int) {
	for _, c := range m.single {
		d := c.Check(si)
		if d.Fulfilled {
			continue
		}
		if d.Hard {
			hard += d.ViolationValue
		} else {
			soft += d.ViolationValue
		}
	}
	return
}

func (m *Manager) partnerAggregate(id int64) (hard, soft int) {
	for _, cp := range m.partners[id] {
		hard += cp.Container.Hard
		soft += cp.Container.Soft
	}
	return
}

func strictlyBetter(newHard, newSoft, oldHard, oldSoft int) bool {
	if newHard != oldHard {
		return newHard < oldHard
	}
	return newSoft < oldSoft
}

// PartnerUpdate is one partner's recomputed pair-violation values,
// produced by a trial update and applied by Commit.
type PartnerUpdate struct {
	PartnerID int64
	Container *ViolationsContainer
	NewHard   int
	NewSoft   int
}

// Update is the outcome of a successful trial update: a new Violator for
// the moved item, plus the partner container changes it implies.
type Update struct {
	Item     *model.ScheduledItem
	Violator Violator
	Partners []PartnerUpdate
}

// TryViolatorUpdate evaluates candidate (a hypothetical or already-placed
// ScheduledItem for a currently-tracked item) against the single
// constraints and every partner's current plan position, short-circuiting
// as soon as the accumulated (hard, soft) can no longer beat the item's
// current violator (spec.md §4.3 step 4). The second return is false on
// any non-improving outcome; that is an expected, silent outcome, not an
// error (spec.md §9).
func (m *Manager) TryViolatorUpdate(candidate *model.ScheduledItem, pl *plan.SchedulePlan) (Update, bool) {
	old, tracked := m.index[candidate.ID()]
	if !tracked {
		return Update{}, false
	}

	hard, soft := m.singleCheck(candidate)

	if m.usingPrediction {
		if _, isSwitch := model.AsSwitchLane(candidate.Item()); !isSwitch {
			estimatedHard := hard + m.pred.DefinedHardConflictValue(candidate)
			if !strictlyBetter(estimatedHard, soft, old.Hard, old.Soft) {
				return Update{}, false
			}
		}
	}

	var updates []PartnerUpdate
	for _, cp := range m.partners[candidate.ID()] {
		partnerSI, ok := pl.Get(cp.PartnerID)
		if !ok {
			continue
		}
		ph, ps := 0, 0
		for _, c := range cp.Constraints {
			d := c.Check(candidate, partnerSI)
			if d.Fulfilled {
				continue
			}
			if d.Hard {
				ph += d.ViolationValue
			} else {
				ps += d.ViolationValue
			}
		}
		hard += ph
		soft += ps
		if !strictlyBetter(hard, soft, old.Hard, old.Soft) {
			return Update{}, false
		}
		updates = append(updates, PartnerUpdate{PartnerID: cp.PartnerID, Container: cp.Container, NewHard: ph, NewSoft: ps})
	}

	if !strictlyBetter(hard, soft, old.Hard, old.Soft) {
		return Update{}, false
	}
	return Update{
		Item:     candidate,
		Violator: Violator{Scheduled: candidate, Hard: hard, Soft: soft},
		Partners: updates,
	}, true
}

// Commit applies an Update's container changes, replaces the affected
// partner and item violators in the tree, and notifies the predictor that
// the item moved (spec.md §4.3 step 5).
func (m *Manager) Commit(u Update, pl *plan.SchedulePlan) {
	for _, pu := range u.Partners {
		pu.Container.Hard = pu.NewHard
		pu.Container.Soft = pu.NewSoft
		m.refreshViolator(pu.PartnerID, pl)
	}

	if old, ok := m.index[u.Item.ID()]; ok {
		m.tree.remove(old)
	}
	m.tree.insert(u.Violator)
	m.index[u.Item.ID()] = u.Violator

	if m.pred != nil {
		m.pred.ItemMoved(u.Item.ID())
	}
}

func (m *Manager) refreshViolator(id int64, pl *plan.SchedulePlan) {
	si, ok := pl.Get(id)
	if !ok || pl.IsFixed(id) {
		if old, ok := m.index[id]; ok {
			m.tree.remove(old)
			delete(m.index, id)
		}
		return
	}
	if old, ok := m.index[id]; ok {
		m.tree.remove(old)
	}
	hard, soft := m.singleCheck(si)
	ph, ps := m.partnerAggregate(id)
	v := Violator{Scheduled: si, Hard: hard + ph, Soft: soft + ps}
	m.tree.insert(v)
	m.index[id] = v
}

// GetBiggestViolator returns the largest violator strictly less than
// bound, or the absolute largest violator if bound is nil, in O(log n). It
// returns false if no such violator exists (spec.md §4.3 step 6).
func (m *Manager) GetBiggestViolator(bound *Violator) (Violator, bool) {
	if bound == nil {
		return m.tree.max()
	}
	return m.tree.largestStrictlyLessThan(*bound)
}

// CheckViolationsForPlan sums every hard/soft single-item violation plus
// every hard/soft pair violation across each partner edge of pl,
// double-counting pair violations once per direction (spec.md §4.3 step 7,
// §9 open question: acceptable because only used to compare plans under
// the same metric). It re-derives the pair-interaction graph against pl
// directly rather than relying on m's live partner index, since pl may be
// an escape candidate distinct from the plan Initialize was called with.
func (m *Manager) CheckViolationsForPlan(pl *plan.SchedulePlan) (hard, soft int) {
	items := pl.Items()
	for _, si := range items {
		h, s := m.singleCheck(si)
		hard += h
		soft += s
	}
	for _, a := range items {
		ai := model.AsItem(a.Item())
		for _, b := range items {
			if a.ID() == b.ID() {
				continue
			}
			bi := model.AsItem(b.Item())
			for _, c := range m.pair {
				if !c.NeedsChecking(ai, bi) {
					continue
				}
				d := c.Check(a, b)
				if d.Fulfilled {
					continue
				}
				if d.Hard {
					hard += d.ViolationValue
				} else {
					soft += d.ViolationValue
				}
			}
		}
	}
	return
}

// CheckItemAtCandidate sums single and partner violations for candidate as
// if it were placed in pl, skipping partners absent from the plan
// (spec.md §4.3 step 8).
func (m *Manager) CheckItemAtCandidate(candidate *model.ScheduledItem, pl *plan.SchedulePlan) (hard, soft int) {
	hard, soft = m.singleCheck(candidate)
	for _, cp := range m.partners[candidate.ID()] {
		partnerSI, ok := pl.Get(cp.PartnerID)
		if !ok {
			continue
		}
		for _, c := range cp.Constraints {
			d := c.Check(candidate, partnerSI)
			if d.Fulfilled {
				continue
			}
			if d.Hard {
				hard += d.ViolationValue
			} else {
				soft += d.ViolationValue
			}
		}
	}
	return
}

// HardViolatedPartners returns the current partner scheduled items whose
// pair decision with item is an unfulfilled hard violation, used by the
// shift-and-lock escape (spec.md §4.3 step 9).
func (m *Manager) HardViolatedPartners(item *model.ScheduledItem, pl *plan.SchedulePlan) []*model.ScheduledItem {
	var out []*model.ScheduledItem
	for _, cp := range m.partners[item.ID()] {
		partnerSI, ok := pl.Get(cp.PartnerID)
		if !ok {
			continue
		}
		for _, c := range cp.Constraints {
			d := c.Check(item, partnerSI)
			if d.Hard && !d.Fulfilled {
				out = append(out, partnerSI)
				break
			}
		}
	}
	return out
}

// PlanHasBeenUpdated discards and rebuilds the violator tree (and the pair
// graph) from newPlan (spec.md §4.3 step 10). It does not touch the
// predictor: callers re-initialize the predictor against newPlan
// themselves, as the scheduler does right after calling this.
func (m *Manager) PlanHasBeenUpdated(newPlan *plan.SchedulePlan) {
	m.Initialize(newPlan)
}

// Violator returns the currently tracked violator for id, if any.
func (m *Manager) Violator(id int64) (Violator, bool) {
	v, ok := m.index[id]
	return v, ok
}

// Len returns the number of tracked (non-fixed) violators.
func (m *Manager) Len() int { return m.tree.len() }

func (m *Manager) String() string {
	return fmt.Sprintf("violations.Manager(%d tracked)", m.Len())
}
