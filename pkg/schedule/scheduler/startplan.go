package scheduler

import (
	"fmt"

	"github.com/kallhauge/schedcore/pkg/schedule/model"
	"github.com/kallhauge/schedcore/pkg/schedule/plan"
)

// buildStartPlan assembles the plan the repair loop begins from: fixed
// items first, then every movable item whose id survives from a cached
// plan at its previous start, then every remaining item placed greedily at
// the earliest lane-feasible time (spec.md §4.1 "start plan construction").
func buildStartPlan(items []model.Schedulable, fixed []*model.ScheduledItem, cached *plan.SchedulePlan) (*plan.SchedulePlan, error) {
	pl := plan.New()
	laneMax := make(map[model.Lane]int)

	for _, fsi := range fixed {
		if err := pl.Schedule(fsi); err != nil {
			return nil, fmt.Errorf("schedcore: schedule fixed item %d: %w", fsi.ID(), err)
		}
		if err := pl.Fixate(fsi); err != nil {
			return nil, fmt.Errorf("schedcore: fixate item %d: %w", fsi.ID(), err)
		}
		for lane, end := range fsi.Ends() {
			if end > laneMax[lane] {
				laneMax[lane] = end
			}
		}
	}

	for _, item := range items {
		if _, already := pl.Get(item.ID()); already {
			continue
		}
		if cached != nil {
			if prevSI, ok := cached.Get(item.ID()); ok && !cached.IsFixed(item.ID()) {
				if _, err := pl.Add(item, prevSI.Start()); err == nil {
					updateLaneMax(laneMax, item, prevSI.Start())
					continue
				}
			}
		}
		if err := placeGreedily(pl, item, laneMax); err != nil {
			return nil, err
		}
	}

	return pl, nil
}

// placeGreedily schedules item at the earliest start such that, on every
// lane it touches, the start is at or after the latest end laneMax has
// observed on that lane so far during this pass.
func placeGreedily(pl *plan.SchedulePlan, item model.Schedulable, laneMax map[model.Lane]int) error {
	start := 0
	for _, lane := range item.Lanes() {
		if laneMax[lane] > start {
			start = laneMax[lane]
		}
	}
	if _, err := pl.Add(item, start); err != nil {
		return fmt.Errorf("schedcore: place item %d: %w", item.ID(), err)
	}
	updateLaneMax(laneMax, item, start)
	return nil
}

func updateLaneMax(laneMax map[model.Lane]int, item model.Schedulable, start int) {
	for _, lane := range item.Lanes() {
		d, _ := item.Duration(lane)
		if end := start + d; end > laneMax[lane] {
			laneMax[lane] = end
		}
	}
}
