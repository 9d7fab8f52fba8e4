package scheduler

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kallhauge/schedcore/pkg/schedule/configurations"
	"github.com/kallhauge/schedcore/pkg/schedule/model"
	"github.com/kallhauge/schedcore/pkg/schedule/plan"
	"github.com/kallhauge/schedcore/pkg/schedule/violations"
)

// escapeFromLocalOptimum runs the three escape strategies against
// independent clones of pl, keeps the candidate plan
// AddPlanConfiguration's (hard, makespan, soft) ordering ranks best, and
// returns it. It fails with ErrLocalOptimum, wrapping every strategy's
// individual failure via multierr, if none produced a candidate
// (spec.md §4.6 "escapeFromLocalOptimum").
func (s *HeuristicRepairScheduler) escapeFromLocalOptimum(pl *plan.SchedulePlan, vm *violations.Manager, cm *configurations.Manager, stuck violations.Violator, logger *zap.Logger) (*plan.SchedulePlan, error) {
	cm.ClearPlanConfigurations()
	var errs error

	if cand, err := dependencyConeReschedule(pl, vm, stuck); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("dependency-cone reschedule: %w", err))
	} else {
		cm.AddPlanConfiguration(cand)
	}
	if cand, err := shiftAndLockRight(pl, vm, stuck); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("shift-and-lock right: %w", err))
	} else {
		cm.AddPlanConfiguration(cand)
	}
	if cand, err := shiftAndLockLeft(pl, vm, stuck); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("shift-and-lock left: %w", err))
	} else {
		cm.AddPlanConfiguration(cand)
	}

	best, ok := cm.GetBestPlanConfiguration()
	if !ok {
		if errs != nil {
			return nil, fmt.Errorf("%w: %v", ErrLocalOptimum, errs)
		}
		return nil, ErrLocalOptimum
	}
	logger.Info("escape adopted replacement plan", zap.Int("makespan", best.Makespan()), zap.Int64("stuck_item", stuck.ID()))
	return best, nil
}

// dependencyConeReschedule unschedules every movable transitive dependent
// of the stuck item (breadth-first over plan.GetDependents) and replaces
// each, in BFS-depth then current-start order, at whichever start
// candidate minimizes (hard, soft) against the rest of the plan
// (spec.md §4.6 "reschedule the dependency cone").
func dependencyConeReschedule(pl *plan.SchedulePlan, vm *violations.Manager, stuck violations.Violator) (*plan.SchedulePlan, error) {
	clone := pl.Clone()

	depth := map[int64]int{}
	var order []*model.ScheduledItem
	queue := clone.GetDependents(stuck.Scheduled.Item())
	for _, d := range queue {
		if clone.CanBeMoved(d) {
			depth[d.ID()] = 1
		}
	}
	head := 0
	for head < len(queue) {
		cur := queue[head]
		head++
		if !clone.CanBeMoved(cur) {
			continue
		}
		order = append(order, cur)
		for _, d := range clone.GetDependents(cur.Item()) {
			if !clone.CanBeMoved(d) {
				continue
			}
			nd := depth[cur.ID()] + 1
			if existing, ok := depth[d.ID()]; !ok || nd > existing {
				depth[d.ID()] = nd
				queue = append(queue, d)
			}
		}
	}
	order = lo.UniqBy(order, func(si *model.ScheduledItem) int64 { return si.ID() })
	sort.SliceStable(order, func(i, j int) bool {
		if depth[order[i].ID()] != depth[order[j].ID()] {
			return depth[order[i].ID()] < depth[order[j].ID()]
		}
		return order[i].Start() < order[j].Start()
	})
	if len(order) == 0 {
		return nil, fmt.Errorf("schedcore: no movable dependents of item %d", stuck.ID())
	}

	for _, d := range order {
		if err := clone.Unschedule(d); err != nil {
			return nil, err
		}
	}
	for _, d := range order {
		bestStart, bestHard, bestSoft, found := 0, math.MaxInt, math.MaxInt, false
		for _, t := range clone.StartCandidates() {
			candidate := model.NewScheduledItem(d.Item(), t)
			h, sv := vm.CheckItemAtCandidate(candidate, clone)
			if !found || h < bestHard || (h == bestHard && sv < bestSoft) {
				bestHard, bestSoft, bestStart, found = h, sv, t, true
			}
		}
		if err := clone.Schedule(model.NewScheduledItem(d.Item(), bestStart)); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

// shiftAndLockRight clones pl, then cascades a +makespan shift from the
// stuck item outward through whichever partners it hard-violates after
// the shift, fixating each shifted item as it goes (spec.md §4.6
// "shift-and-lock right").
func shiftAndLockRight(pl *plan.SchedulePlan, vm *violations.Manager, stuck violations.Violator) (*plan.SchedulePlan, error) {
	clone := pl.Clone()
	makespan := clone.Makespan()
	seed, ok := clone.Get(stuck.ID())
	if !ok {
		return nil, fmt.Errorf("schedcore: stuck item %d missing from plan clone", stuck.ID())
	}
	if err := shiftAndLockCascade(clone, vm, seed, makespan); err != nil {
		return nil, err
	}
	return clone, nil
}

// shiftAndLockLeft shifts every non-fixed item in pl rightward by the
// current makespan (opening room to the left of the timeline), then
// cascades a symmetric -makespan shift from the stuck item, which now
// lands in the freed space (spec.md §4.6 "shift-and-lock left").
func shiftAndLockLeft(pl *plan.SchedulePlan, vm *violations.Manager, stuck violations.Violator) (*plan.SchedulePlan, error) {
	clone := pl.Clone()
	makespan := clone.Makespan()
	clone.ShiftAll(makespan)
	seed, ok := clone.Get(stuck.ID())
	if !ok {
		return nil, fmt.Errorf("schedcore: stuck item %d missing from plan clone", stuck.ID())
	}
	if err := shiftAndLockCascade(clone, vm, seed, -makespan); err != nil {
		return nil, err
	}
	return clone, nil
}

// shiftAndLockCascade moves seed (and transitively, every partner it newly
// hard-violates after moving) by delta, fixating each as it is moved.
// Partners already seen violated are not revisited. If the seed itself is
// newly violated by a later shift, the cascade fails with
// ErrCircularConstraint; every other locked item is already in the seen
// set, so only the seed can trigger this.
func shiftAndLockCascade(clone *plan.SchedulePlan, vm *violations.Manager, seed *model.ScheduledItem, delta int) error {
	working := []*model.ScheduledItem{seed}
	locked := map[int64]bool{}
	known := map[int64]bool{}
	for _, hv := range vm.HardViolatedPartners(seed, clone) {
		known[hv.ID()] = true
	}

	for len(working) > 0 {
		newlyViolated := map[int64]*model.ScheduledItem{}
		for _, w := range working {
			if clone.IsFixed(w.ID()) {
				continue
			}
			moved, err := clone.Move(w.Item(), w.Start()+delta)
			if err != nil {
				return err
			}
			if err := clone.Fixate(moved); err != nil {
				return err
			}
			locked[moved.ID()] = true
			for _, hv := range vm.HardViolatedPartners(moved, clone) {
				if known[hv.ID()] {
					continue
				}
				newlyViolated[hv.ID()] = hv
			}
		}

		next := make([]*model.ScheduledItem, 0, len(newlyViolated))
		for id, hv := range newlyViolated {
			if locked[id] {
				return fmt.Errorf("%w: item %d re-violated after lock", ErrCircularConstraint, id)
			}
			known[id] = true
			next = append(next, hv)
		}
		working = next
	}
	return nil
}
