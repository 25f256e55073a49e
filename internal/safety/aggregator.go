// Package safety implements C7, the safety aggregator: it folds
// per-component fault state into a single fault count, runs the FTTI
// timer, and triggers C5 into SAFE through a one-way callback, per
// spec §4.7.
package safety

import (
	"github.com/flm/core/internal/actuator"
	"github.com/flm/core/internal/ambient"
	"github.com/flm/core/internal/config"
	"github.com/flm/core/internal/decision"
	"github.com/flm/core/internal/e2e"
	"github.com/flm/core/internal/lightswitch"
	"github.com/flm/core/internal/ports"
	"github.com/flm/core/internal/tick"
)

// Reason identifies why SAFE was triggered, mirroring the DEM event
// naming style.
type Reason string

const (
	ReasonE2EFailure Reason = "E2E_FAILURE"
	ReasonWdgMFailure Reason = "WDGM_FAILURE"
	ReasonMultiFault  Reason = "MULTI_FAULT"
	ReasonTimeout     Reason = "TIMEOUT"
)

// GlobalStatus is C7's headline health verdict. StatusOK is the zero
// value.
type GlobalStatus int

const (
	StatusOK GlobalStatus = iota
	StatusWarning
	StatusDegraded
	StatusSafeState
)

func (s GlobalStatus) String() string {
	switch s {
	case StatusWarning:
		return "WARNING"
	case StatusDegraded:
		return "DEGRADED"
	case StatusSafeState:
		return "SAFE_STATE"
	default:
		return "OK"
	}
}

// SafeTrigger is the one-way callback into C5, per §9's cyclic
// reference resolution. *decision.Decision satisfies this directly.
type SafeTrigger interface {
	TriggerSafe(reason string)
}

// Status is C7's by-value snapshot, for diagnostics and tests.
type Status struct {
	FaultCount  int
	Global      GlobalStatus
	InSafe      bool
	Daytime     bool
	SafeCommand decision.Command
}

// Aggregator owns C7's state exclusively.
type Aggregator struct {
	daytime bool // day/night latch; defaults to daytime per §4.7 step 2

	e2eFailureTimerActive bool
	e2eFailureStartTick   tick.T

	fttiActive     bool
	firstFaultTick tick.T

	inSafe             bool
	safeReason         Reason
	safeStateEntryTick tick.T

	trigger  SafeTrigger
	watchdog ports.WatchdogStatusSource
	dem      ports.DemSink
	wdgm     ports.WdgMSink
}

func New(trigger SafeTrigger, watchdog ports.WatchdogStatusSource, dem ports.DemSink, wdgm ports.WdgMSink) *Aggregator {
	return &Aggregator{trigger: trigger, watchdog: watchdog, dem: dem, wdgm: wdgm, daytime: true}
}

// Tick runs one C7 main-function cycle, per §4.7.
func (a *Aggregator) Tick(sw lightswitch.Status, light ambient.Light, act actuator.Status, health e2e.HealthState, nowMS tick.T) Status {
	if a.wdgm != nil {
		a.wdgm.ReportCheckpoint("SafetyAggregator", 0)
	}

	switchFault := !sw.IsValid
	ambientFault := !light.IsValid
	actuatorFault := act.Fault != actuator.FaultNone
	watchdogStatus := ports.WatchdogOK
	if a.watchdog != nil {
		watchdogStatus = a.watchdog.GlobalStatus()
	}
	watchdogFault := watchdogStatus != ports.WatchdogOK

	faultCount := 0
	for _, f := range []bool{switchFault, ambientFault, actuatorFault, watchdogFault} {
		if f {
			faultCount++
		}
	}

	// Step 2: day/night latch. Invalid ambient leaves it unchanged.
	if light.IsValid {
		a.daytime = light.ADC > config.DayThreshold
	}

	// Step 3: E2E failure timer.
	if health != e2e.HealthValid {
		if !a.e2eFailureTimerActive {
			a.e2eFailureTimerActive = true
			a.e2eFailureStartTick = nowMS
		} else if tick.After(nowMS, a.e2eFailureStartTick, config.E2ETimeoutMS) {
			a.triggerSafe(ReasonE2EFailure, nowMS)
		}
	} else {
		a.e2eFailureTimerActive = false
	}

	// Step 4: watchdog.
	if watchdogStatus == ports.WatchdogFailed || watchdogStatus == ports.WatchdogExpired {
		a.triggerSafe(ReasonWdgMFailure, nowMS)
		if a.dem != nil {
			a.dem.Report(ports.EventWatchdogFailed, ports.FaultFailed)
		}
	}

	// Step 5: multi-fault.
	if faultCount >= config.SafetyMaxFaults {
		a.triggerSafe(ReasonMultiFault, nowMS)
	}

	// Step 6: FTTI tracker.
	if faultCount > 0 {
		if !a.fttiActive {
			a.fttiActive = true
			a.firstFaultTick = nowMS
		} else if tick.After(nowMS, a.firstFaultTick, config.FTTIMS) {
			a.triggerSafe(ReasonTimeout, nowMS)
		}
	} else {
		a.fttiActive = false
	}

	// Step 7: global status.
	global := StatusOK
	switch {
	case a.inSafe:
		global = StatusSafeState
	case faultCount >= 2:
		global = StatusDegraded
	case faultCount == 1:
		global = StatusWarning
	}

	// Step 8: safe-state command selection by the day/night latch. C5
	// derives its own SAFE command from its last-known ambient reading
	// (§4.5); this is C7's independent view, surfaced for diagnostics.
	safeCommand := decision.CommandOff
	if !a.daytime {
		safeCommand = decision.CommandLowBeam
	}

	return Status{
		FaultCount:  faultCount,
		Global:      global,
		InSafe:      a.inSafe,
		Daytime:     a.daytime,
		SafeCommand: safeCommand,
	}
}

// triggerSafe implements §4.7 step 9: idempotent, records entry tick
// on the first trigger only.
func (a *Aggregator) triggerSafe(reason Reason, nowMS tick.T) {
	if !a.inSafe {
		a.inSafe = true
		a.safeReason = reason
		a.safeStateEntryTick = nowMS
	}
	if a.trigger != nil {
		a.trigger.TriggerSafe(string(reason))
	}
}

// Reason exposes why SAFE was triggered, once it has been.
func (a *Aggregator) Reason() Reason { return a.safeReason }
