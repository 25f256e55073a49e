// Package scheduler implements C8: a single-threaded cooperative
// dispatcher running C1-C7 at their fixed periods with the intra-tick
// ordering §4.8 mandates.
package scheduler

import (
	"context"
	"time"

	"github.com/flm/core/internal/actuator"
	"github.com/flm/core/internal/ambient"
	"github.com/flm/core/internal/config"
	"github.com/flm/core/internal/decision"
	"github.com/flm/core/internal/lightswitch"
	"github.com/flm/core/internal/logging"
	"github.com/flm/core/internal/ports"
	"github.com/flm/core/internal/safety"
	"github.com/flm/core/internal/tick"
)

// Ports bundles the boundary interfaces the scheduler drives each
// tick. CanReceiver, Adc, Dio and CurrentSense are required; New does
// not check them for nil. A nil Watchdog is read as always OK.
type Ports struct {
	CanReceiver  ports.CanReceiver
	Adc          ports.AdcPort
	Dio          ports.DioPort
	CurrentSense ports.CurrentSensePort
	Watchdog     ports.WatchdogStatusSource
}

// Sinks bundles the diagnostic/supervision sinks every component
// reports through.
type Sinks struct {
	Dem  ports.DemSink
	WdgM ports.WdgMSink
	BswM ports.BswMSink
}

// Scheduler owns the wiring and the tick counter. It is the only piece
// of the core with any notion of wall-clock time; every component
// below it works purely off the tick count it is handed.
type Scheduler struct {
	tickPeriod time.Duration
	tickMS     tick.T

	ports Ports
	bswm  ports.BswMSink
	log   *logging.Logger

	ingestor    *lightswitch.Ingestor
	conditioner *ambient.Conditioner
	decisionSM  *decision.Decision
	actuatorCtl *actuator.Controller
	aggregator  *safety.Aggregator

	lastSwitch    lightswitch.Status
	lastLight     ambient.Light
	lastCommand   decision.Command
	lastActuator  actuator.Status
	lastSafety    safety.Status
	lastSafeState bool
}

// New wires C1-C7 together exactly as §9 resolves their one cyclic
// reference: C7 holds a callback into C5, never a shared mutable
// pointer to C5's internal state.
func New(p Ports, s Sinks, log *logging.Logger) *Scheduler {
	var scoped *logging.Logger
	if log != nil {
		scoped = log.Component("scheduler")
	}
	sched := &Scheduler{
		tickPeriod: time.Duration(config.TickMS) * time.Millisecond,
		ports:      p,
		bswm:       s.BswM,
		log:        scoped,

		ingestor:    lightswitch.New(s.Dem, s.WdgM),
		conditioner: ambient.New(s.Dem, s.WdgM),
		decisionSM:  decision.New(s.Dem, s.WdgM),
		actuatorCtl: actuator.New(s.Dem, s.WdgM),
	}
	sched.aggregator = safety.New(sched.decisionSM, p.Watchdog, s.Dem, s.WdgM)
	return sched
}

// Tick runs one TICK_MS cooperative dispatch cycle, per §4.8.
func (s *Scheduler) Tick() {
	s.tickMS += tick.T(config.TickMS)

	if s.tickMS%config.SafetyMS == 0 {
		s.runSafety()
	}
	if s.tickMS%config.AmbientMS == 0 {
		s.runAmbient()
	}
	if s.tickMS%config.MainMS == 0 {
		s.runSwitch()
		s.runDecision()
		s.runActuator()
	}
}

func (s *Scheduler) runSwitch() {
	s.lastSwitch = s.ingestor.Tick(s.ports.CanReceiver)
}

func (s *Scheduler) runAmbient() {
	s.lastLight = s.conditioner.Tick(s.ports.Adc)
}

func (s *Scheduler) runDecision() {
	s.lastCommand = s.decisionSM.Tick(s.lastSwitch, s.lastLight, s.tickMS)
}

func (s *Scheduler) runActuator() {
	s.lastActuator = s.actuatorCtl.Tick(s.lastCommand, s.tickMS, s.ports.CurrentSense, s.ports.Dio)
}

func (s *Scheduler) runSafety() {
	s.lastSafety = s.aggregator.Tick(s.lastSwitch, s.lastLight, s.lastActuator, s.lastSwitch.Health, s.tickMS)
	if s.lastSafety.InSafe != s.lastSafeState {
		s.lastSafeState = s.lastSafety.InSafe
		if s.bswm != nil {
			s.bswm.NotifySafeStateMode(s.lastSafety.InSafe)
		}
	}
}

// Run drives Tick on a wall-clock ticker until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.log != nil {
				s.log.WithTick(s.tickMS).Info("scheduler stopping: %v", ctx.Err())
			}
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}

// DecisionState exposes C5's mode, for diagnostics and tests.
func (s *Scheduler) DecisionState() decision.State { return s.decisionSM.State() }

// SafetyStatus exposes C7's last snapshot, for diagnostics and tests.
func (s *Scheduler) SafetyStatus() safety.Status { return s.lastSafety }

// ActuatorStatus exposes C6's last snapshot, for diagnostics and tests.
func (s *Scheduler) ActuatorStatus() actuator.Status { return s.lastActuator }

// Command exposes C5's last issued headlight command.
func (s *Scheduler) Command() decision.Command { return s.lastCommand }

// TickMS exposes the scheduler's own tick counter.
func (s *Scheduler) TickMS() tick.T { return s.tickMS }
