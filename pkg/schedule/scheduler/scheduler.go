// Package scheduler implements HeuristicRepairScheduler, the min-conflicts
// driver that assembles a start plan and repeatedly relocates its worst
// violator until every hard constraint is satisfied and no cheap soft
// improvement remains (spec.md §4.6).
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kallhauge/schedcore/internal/workpool"
	"github.com/kallhauge/schedcore/pkg/schedule/builtin"
	"github.com/kallhauge/schedcore/pkg/schedule/configurations"
	"github.com/kallhauge/schedcore/pkg/schedule/constraint"
	"github.com/kallhauge/schedcore/pkg/schedule/model"
	"github.com/kallhauge/schedcore/pkg/schedule/plan"
	"github.com/kallhauge/schedcore/pkg/schedule/predictor"
	"github.com/kallhauge/schedcore/pkg/schedule/violations"
)

// HeuristicRepairScheduler assembles a start plan and repairs it via
// localized min-conflicts search until hard violations are eliminated and
// soft violations can no longer be cheaply reduced.
type HeuristicRepairScheduler struct {
	all    []constraint.Constraint
	single []constraint.SingleItemConstraint
	pair   []constraint.ItemPairConstraint

	opts  Options
	cache *cache.Cache

	snapshots []*plan.SchedulePlan
	backsteps int
}

// New constructs a scheduler. An empty or nil constraints list falls back
// to the built-in defaults: StartNowConstraint, NoOverlappingConstraint,
// and DependenciesConstraint (spec.md §6).
func New(constraints []constraint.Constraint, opts ...Option) *HeuristicRepairScheduler {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if len(constraints) == 0 {
		constraints = []constraint.Constraint{
			builtin.StartNowConstraint{},
			builtin.NoOverlappingConstraint{},
			builtin.DependenciesConstraint{},
		}
	}

	s := &HeuristicRepairScheduler{all: constraints, opts: o}
	for _, c := range constraints {
		if sc, ok := c.(constraint.SingleItemConstraint); ok {
			s.single = append(s.single, sc)
		}
		if pc, ok := c.(constraint.ItemPairConstraint); ok {
			s.pair = append(s.pair, pc)
		}
	}
	if o.cachingResultPlan {
		s.cache = cache.New(cache.NoExpiration, 0)
	}
	return s
}

// Snapshots returns every plan snapshot recorded during the most recent
// Schedule call, in chronological order, starting with the initial plan.
// When clusters are scheduled in parallel, only the merged plan is
// recorded.
func (s *HeuristicRepairScheduler) Snapshots() []*plan.SchedulePlan { return s.snapshots }

// Backsteps returns the cumulative number of repair-loop backsteps across
// every Schedule call this scheduler has made.
func (s *HeuristicRepairScheduler) Backsteps() int { return s.backsteps }

// ClearCachedResultPlan discards the warm-start cache, forcing the next
// Schedule call to build its start plan purely by greedy placement.
func (s *HeuristicRepairScheduler) ClearCachedResultPlan() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

// Schedule assembles a start plan for items and fixed, then repairs it
// until hard violations are eliminated and no improving relocation
// remains. ctx is honored only for cancelling the cluster fan-out when
// WithParallelScheduling is enabled; the sequential repair loop itself has
// no suspension points (spec.md §5).
func (s *HeuristicRepairScheduler) Schedule(ctx context.Context, items []model.Schedulable, fixed []*model.ScheduledItem) (*plan.SchedulePlan, error) {
	runID := uuid.NewString()
	logger := s.opts.logger.With(zap.String("run_id", runID))
	startedAt := time.Now()
	backstepsBefore := s.backsteps
	s.snapshots = nil

	var result *plan.SchedulePlan
	var err error
	if s.opts.parallelScheduling {
		if clusters := partitionClusters(items, s.pair); len(clusters) > 1 {
			logger.Info("partitioned into clusters", zap.Int("clusters", len(clusters)))
			result, err = s.scheduleClusters(ctx, clusters, fixed, logger)
		}
	}
	if result == nil && err == nil {
		result, err = s.scheduleSequential(items, fixed, logger)
	}

	s.recordMetrics(startedAt, s.backsteps-backstepsBefore, result, err)
	if err == nil && s.opts.cachingResultPlan && s.cache != nil {
		s.cache.Set(s.opts.cacheKey, result.Clone(), cache.NoExpiration)
	}
	return result, err
}

func (s *HeuristicRepairScheduler) recordMetrics(startedAt time.Time, runBacksteps int, result *plan.SchedulePlan, err error) {
	if s.opts.metrics == nil {
		return
	}
	hard, soft := 0, 0
	if err == nil && result != nil {
		hard, soft = violations.New(s.single, s.pair, nil, false).CheckViolationsForPlan(result)
	}
	s.opts.metrics.observeRun(time.Since(startedAt), runBacksteps, hard, soft, err)
}

func (s *HeuristicRepairScheduler) loadCachedPlan() *plan.SchedulePlan {
	if s.cache == nil {
		return nil
	}
	v, ok := s.cache.Get(s.opts.cacheKey)
	if !ok {
		return nil
	}
	pl, _ := v.(*plan.SchedulePlan)
	return pl
}

// scheduleSequential is the single-threaded repair driver. It is also what
// each cluster worker runs, against its own HeuristicRepairScheduler
// instance, inside scheduleClusters.
func (s *HeuristicRepairScheduler) scheduleSequential(items []model.Schedulable, fixed []*model.ScheduledItem, logger *zap.Logger) (*plan.SchedulePlan, error) {
	pl, err := buildStartPlan(items, fixed, s.loadCachedPlan())
	if err != nil {
		return nil, err
	}
	s.snapshots = append(s.snapshots, pl.Clone())

	pool := workpool.New(0)
	defer pool.Close()
	pred := predictor.New(pool)
	pred.Initialize(pl, items, s.pair)
	vm := violations.New(s.single, s.pair, pred, true)
	vm.Initialize(pl)
	cm := configurations.New(vm)

	hardSatisfied := false
	violator, ok := vm.GetBiggestViolator(nil)
	if ok && violator.Hard == 0 {
		hardSatisfied = true
	}
	var current *violations.Violator
	if ok {
		current = &violator
		if hardSatisfied && violator.Soft == 0 {
			current = nil
		}
	}

	for current != nil {
		cm.Reset(*current)
		foundAny := false
		if scheduled, ok := pl.Get(current.ID()); ok && pl.CanBeMoved(scheduled) {
			maxDuration := current.Scheduled.Item().MaxDuration()
			for _, t := range pl.StartCandidates() {
				if foundAny && pl.Makespan() < maxDuration+t {
					break
				}
				if cm.AddConfiguration(pl, t) {
					foundAny = true
				}
			}
		}

		if applied := cm.ApplyBestConfiguration(pl); applied {
			s.snapshots = append(s.snapshots, pl.Clone())
			next, ok := vm.GetBiggestViolator(nil)
			if !ok {
				current = nil
				continue
			}
			current = &next
			if !hardSatisfied && current.Hard == 0 {
				hardSatisfied = true
			}
			continue
		}

		if err := cm.ApplyReferenceConfiguration(pl); err != nil {
			return nil, fmt.Errorf("schedcore: restore reference configuration for item %d: %w", current.ID(), err)
		}
		s.backsteps++
		logger.Debug("backstep", zap.Int64("item_id", current.ID()), zap.Int("backsteps", s.backsteps))

		stuck := *current
		next, ok := vm.GetBiggestViolator(current)
		if ok {
			current = &next
			continue
		}
		if hardSatisfied {
			break
		}

		newPlan, err := s.escapeFromLocalOptimum(pl, vm, cm, stuck, logger)
		if err != nil {
			return nil, err
		}
		pl = newPlan
		vm.PlanHasBeenUpdated(pl)
		pred.Initialize(pl, items, s.pair)
		s.snapshots = append(s.snapshots, pl.Clone())

		next, ok = vm.GetBiggestViolator(nil)
		if !ok {
			current = nil
			continue
		}
		current = &next
		if current.Hard == 0 {
			hardSatisfied = true
		}
	}

	return pl, nil
}

// scheduleClusters schedules each connected component independently (an
// independent HeuristicRepairScheduler per cluster, caching disabled, so a
// shared warm-start cache key can't be corrupted by concurrent writers),
// then merges the resulting plans. A failure in any cluster cancels the
// others via gctx.
func (s *HeuristicRepairScheduler) scheduleClusters(ctx context.Context, clusters [][]model.Schedulable, fixed []*model.ScheduledItem, logger *zap.Logger) (*plan.SchedulePlan, error) {
	fixedByID := make(map[int64]*model.ScheduledItem, len(fixed))
	for _, f := range fixed {
		fixedByID[f.ID()] = f
	}

	results := make([]*plan.SchedulePlan, len(clusters))
	g, gctx := errgroup.WithContext(ctx)
	for i, cluster := range clusters {
		i, cluster := i, cluster
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var clusterFixed []*model.ScheduledItem
			for _, it := range cluster {
				if f, ok := fixedByID[it.ID()]; ok {
					clusterFixed = append(clusterFixed, f)
				}
			}
			worker := New(s.all, WithLogger(logger), WithCachingResultPlan(false))
			childPlan, err := worker.scheduleSequential(cluster, clusterFixed, logger.With(zap.Int("cluster", i)))
			if err != nil {
				return fmt.Errorf("cluster %d: %w", i, err)
			}
			results[i] = childPlan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("schedcore: cluster scheduling: %w", err)
	}

	merged := plan.New()
	for _, r := range results {
		for _, si := range r.Items() {
			if err := merged.Schedule(si); err != nil {
				return nil, fmt.Errorf("schedcore: merge clusters: %w", err)
			}
			if r.IsFixed(si.ID()) {
				if err := merged.Fixate(si); err != nil {
					return nil, fmt.Errorf("schedcore: merge clusters: %w", err)
				}
			}
		}
	}
	s.snapshots = append(s.snapshots, merged.Clone())
	return merged, nil
}
