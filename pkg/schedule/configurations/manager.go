// Package configurations implements ConfigurationsManager, which collects
// candidate relocations for the scheduler's current violator and, across
// escape attempts, candidate replacement plans, selecting the
// lexicographically best of each (spec.md §4.5).
package configurations

import (
	"github.com/kallhauge/schedcore/pkg/schedule/model"
	"github.com/kallhauge/schedcore/pkg/schedule/plan"
	"github.com/kallhauge/schedcore/pkg/schedule/violations"
)

// configuration is one accepted candidate relocation for the current
// violator: the trial update that produced it, and the plan makespan it
// would yield.
type configuration struct {
	update   violations.Update
	makespan int
}

func (c *configuration) hard() int            { return c.update.Violator.Hard }
func (c *configuration) soft() int            { return c.update.Violator.Soft }
func (c *configuration) durationSummary() int { return c.update.Item.Item().DurationSummary() }

// less orders configurations by (makespan, hard, soft, durationSummary),
// all ascending — the "best = min" ordering spec.md §4.5 step 5 defines.
func (c *configuration) less(other *configuration) bool {
	if c.makespan != other.makespan {
		return c.makespan < other.makespan
	}
	if c.hard() != other.hard() {
		return c.hard() < other.hard()
	}
	if c.soft() != other.soft() {
		return c.soft() < other.soft()
	}
	return c.durationSummary() < other.durationSummary()
}

// planConfiguration is one candidate replacement plan gathered during
// escape from a local optimum.
type planConfiguration struct {
	plan     *plan.SchedulePlan
	hard     int
	soft     int
	makespan int
}

// less orders plan configurations by (sum hard, makespan, sum soft),
// ascending (spec.md §4.5 step "addPlanConfiguration").
func (p *planConfiguration) less(other *planConfiguration) bool {
	if p.hard != other.hard {
		return p.hard < other.hard
	}
	if p.makespan != other.makespan {
		return p.makespan < other.makespan
	}
	return p.soft < other.soft
}

// Manager holds the reference configuration for the violator currently
// being relocated, the best improving configuration found so far for it,
// and the best improving plan configuration found so far across escape
// attempts.
type Manager struct {
	vm *violations.Manager

	reference      violations.Violator
	referenceStart int
	best           *configuration

	bestPlan *planConfiguration
}

// New returns a Manager driven by vm's trial-update and plan-check
// operations.
func New(vm *violations.Manager) *Manager {
	return &Manager{vm: vm}
}

// Reset clears per-violator state ahead of searching candidates for
// violator, recording its current placement as the reference.
func (m *Manager) Reset(violator violations.Violator) {
	m.reference = violator
	m.referenceStart = violator.Scheduled.Start()
	m.best = nil
}

// AddConfiguration evaluates relocating the violator's item to
// candidateStart and, if it strictly improves on the reference, registers
// it as a candidate (spec.md §4.5 steps 1-5). It reports whether any
// configuration (including switched-duration retries) was registered.
func (m *Manager) AddConfiguration(pl *plan.SchedulePlan, candidateStart int) bool {
	if candidateStart == m.referenceStart {
		return false
	}

	contributesToMakespan := m.reference.Scheduled.MaxEnd() == pl.Makespan()
	var candidate *model.ScheduledItem
	if contributesToMakespan {
		moved, err := pl.Move(m.reference.Scheduled.Item(), candidateStart)
		if err != nil {
			return false
		}
		candidate = moved
	} else {
		candidate = model.NewScheduledItem(m.reference.Scheduled.Item(), candidateStart)
	}

	added := false
	if update, ok := m.vm.TryViolatorUpdate(candidate, pl); ok {
		added = m.consider(update, pl) || added
	} else if sli, isSwitch := model.AsSwitchLane(candidate.Item()); isSwitch {
		for idx := range sli.Alternatives() {
			switched, err := sli.Switch(idx)
			if err != nil {
				continue
			}
			switchedCandidate := model.NewScheduledItem(switched, candidateStart)
			if update, ok := m.vm.TryViolatorUpdate(switchedCandidate, pl); ok {
				added = m.consider(update, pl) || added
			}
		}
	}
	return added
}

func (m *Manager) consider(update violations.Update, pl *plan.SchedulePlan) bool {
	makespan := pl.Makespan()
	if end := update.Item.Start() + update.Item.Item().MaxDuration(); end > makespan {
		makespan = end
	}
	cfg := &configuration{update: update, makespan: makespan}
	if m.best == nil || cfg.less(m.best) {
		m.best = cfg
	}
	return true
}

// ApplyBestConfiguration exchanges the violator's current scheduled item
// with the best registered configuration and commits the trial update.
// It reports false ("not possible") if no configuration was registered.
func (m *Manager) ApplyBestConfiguration(pl *plan.SchedulePlan) bool {
	if m.best == nil {
		return false
	}
	current, ok := pl.Get(m.reference.ID())
	if !ok {
		return false
	}
	if err := pl.Exchange(current, m.best.update.Item); err != nil {
		return false
	}
	m.vm.Commit(m.best.update, pl)
	return true
}

// ApplyReferenceConfiguration moves the violator back to its reference
// start, undoing the in-place probing AddConfiguration may have done.
func (m *Manager) ApplyReferenceConfiguration(pl *plan.SchedulePlan) error {
	current, ok := pl.Get(m.reference.ID())
	if !ok {
		return nil
	}
	if current.Start() == m.referenceStart {
		return nil
	}
	_, err := pl.Move(current.Item(), m.referenceStart)
	return err
}

// AddPlanConfiguration registers pl as a candidate replacement plan
// gathered during escape, scored by (sum hard, makespan, sum soft).
func (m *Manager) AddPlanConfiguration(pl *plan.SchedulePlan) {
	hard, soft := m.vm.CheckViolationsForPlan(pl)
	cfg := &planConfiguration{plan: pl, hard: hard, soft: soft, makespan: pl.Makespan()}
	if m.bestPlan == nil || cfg.less(m.bestPlan) {
		m.bestPlan = cfg
	}
}

// GetBestPlanConfiguration returns the best plan registered via
// AddPlanConfiguration so far, if any.
func (m *Manager) GetBestPlanConfiguration() (*plan.SchedulePlan, bool) {
	if m.bestPlan == nil {
		return nil, false
	}
	return m.bestPlan.plan, true
}

// ClearPlanConfigurations resets the best-plan-configuration state, used
// between independent escape attempts.
func (m *Manager) ClearPlanConfigurations() {
	m.bestPlan = nil
}
