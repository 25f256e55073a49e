package sim

import (
	"github.com/flm/core/internal/config"
	"github.com/flm/core/internal/diagnostics"
	"github.com/flm/core/internal/logging"
	"github.com/flm/core/internal/scheduler"
)

// Runner drives a scheduler.Scheduler through an entire Scenario
// without real hardware, used by the CLI's -mission flag and by the
// S1-S6 scenario tests.
type Runner struct {
	scen *Scenario
	sch  *scheduler.Scheduler
}

// NewRunner wires a fresh scheduler to the scenario's own simulated
// ports and to a log-only diagnostics sink.
func NewRunner(scen *Scenario, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.New(logging.CRITICAL + 1)
	}
	r := &Runner{scen: scen}
	nowMS := func() int64 { return int64(r.sch.TickMS()) }

	sink := diagnostics.NewLogSink(log)
	supervisor := diagnostics.NewSupervisor(nil)
	actuator := NewActuator(scen, nowMS)

	r.sch = scheduler.New(scheduler.Ports{
		CanReceiver:  NewReceiver(scen, nowMS),
		Adc:          NewAdc(scen, nowMS),
		Dio:          actuator,
		CurrentSense: actuator,
		Watchdog:     NewWatchdog(),
	}, scheduler.Sinks{
		Dem:  sink,
		WdgM: supervisor,
		BswM: sink,
	}, log)

	return r
}

// Scheduler exposes the wired scheduler, for tests that want to poll
// component state while the scenario runs.
func (r *Runner) Scheduler() *scheduler.Scheduler { return r.sch }

// RunToCompletion steps the scheduler tick by tick for the scenario's
// full duration and returns the scheduler it drove.
func (r *Runner) RunToCompletion() *scheduler.Scheduler {
	for t := int64(0); t < r.scen.Timing.DurationMS; t += config.TickMS {
		r.sch.Tick()
	}
	return r.sch
}
