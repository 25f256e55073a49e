// Package decision implements C5, the four-state decision state
// machine: it combines the validated switch command with hysteretic
// AUTO-mode ambient logic and fault escalation, per spec §4.5.
package decision

import (
	"github.com/flm/core/internal/ambient"
	"github.com/flm/core/internal/config"
	"github.com/flm/core/internal/lightswitch"
	"github.com/flm/core/internal/ports"
	"github.com/flm/core/internal/tick"
)

// State is C5's top-level mode. Init is the zero value.
type State int

const (
	Init State = iota
	Normal
	Degraded
	Safe
)

func (s State) String() string {
	switch s {
	case Normal:
		return "NORMAL"
	case Degraded:
		return "DEGRADED"
	case Safe:
		return "SAFE"
	default:
		return "INIT"
	}
}

// Command is the headlight command C6 consumes. CommandOff is the zero
// value.
type Command int

const (
	CommandOff Command = iota
	CommandLowBeam
	CommandHighBeam
)

func (c Command) String() string {
	switch c {
	case CommandLowBeam:
		return "LOW_BEAM"
	case CommandHighBeam:
		return "HIGH_BEAM"
	default:
		return "OFF"
	}
}

// safeStateGraceMS is FTTI - SAFE_STATE_TRANSITION, the DEGRADED dwell
// time before C5 self-escalates to SAFE even without an explicit
// trigger from C7, per §4.5's DEGRADED transition.
const safeStateGraceMS = config.FTTIMS - config.SafeStateTransitionMS

// consecutiveErrorsToDegrade is §4.5's NORMAL → DEGRADED threshold.
const consecutiveErrorsToDegrade = 3

// Decision owns C5's state exclusively. It is never read concurrently
// with Tick or TriggerSafe; the scheduler serializes both.
type Decision struct {
	state          State
	previousState  State
	stateEntryTick tick.T

	consecutiveErrors int

	lightsOn          bool // hysteresis latch
	degradedEntryTick tick.T

	externalSafeRequest bool
	safeReason          string

	lastCommand Command
	lastAmbient ambient.Light

	dem  ports.DemSink
	wdgm ports.WdgMSink
}

func New(dem ports.DemSink, wdgm ports.WdgMSink) *Decision {
	return &Decision{dem: dem, wdgm: wdgm, state: Init}
}

// TriggerSafe is the one-way callback C7 holds to force SAFE, per §9's
// cyclic-reference resolution: C7 never reaches into C5's state, it
// only calls this.
func (d *Decision) TriggerSafe(reason string) {
	if !d.externalSafeRequest {
		d.safeReason = reason
	}
	d.externalSafeRequest = true
}

// State exposes the current mode, for C7 and diagnostics.
func (d *Decision) State() State { return d.state }

// Tick runs one C5 main-function cycle, per §4.5.
func (d *Decision) Tick(sw lightswitch.Status, light ambient.Light, nowMS tick.T) Command {
	if d.wdgm != nil {
		d.wdgm.ReportCheckpoint("DecisionSM", 0)
	}

	if light.IsValid {
		d.lastAmbient = light
	}

	bothValid := sw.IsValid && light.IsValid
	criticalFault := d.externalSafeRequest

	prevState := d.state
	switch d.state {
	case Init:
		d.lastCommand = CommandOff
		if criticalFault {
			d.enter(Safe, nowMS)
		} else if bothValid {
			d.consecutiveErrors = 0
			d.enter(Normal, nowMS)
		}
		if d.state == Normal {
			d.lastCommand = d.deriveCommand(sw, light, false)
		}

	case Normal:
		if criticalFault {
			d.enter(Safe, nowMS)
			break
		}
		if bothValid {
			d.consecutiveErrors = 0
		} else {
			d.consecutiveErrors++
			if d.consecutiveErrors >= consecutiveErrorsToDegrade {
				d.enter(Degraded, nowMS)
				d.degradedEntryTick = nowMS
			}
		}
		if d.state == Normal {
			d.lastCommand = d.deriveCommand(sw, light, false)
		} else if d.state == Degraded {
			// Invalid switch in DEGRADED behaves as AUTO on ambient,
			// per §4.5's last bullet.
			d.lastCommand = d.deriveCommand(sw, light, true)
		}

	case Degraded:
		if criticalFault {
			d.enter(Safe, nowMS)
			break
		}
		if bothValid {
			d.consecutiveErrors = 0
			d.enter(Normal, nowMS)
		} else if tick.After(nowMS, d.degradedEntryTick, safeStateGraceMS+1) {
			d.enter(Safe, nowMS)
		}
		if d.state == Degraded {
			// Invalid switch in DEGRADED behaves as AUTO on ambient,
			// per §4.5's last bullet.
			d.lastCommand = d.deriveCommand(sw, light, true)
		} else if d.state == Normal {
			d.lastCommand = d.deriveCommand(sw, light, false)
		}

	case Safe:
		// terminal; nothing to evaluate.

	default:
		d.state = Safe
	}

	if d.state == Safe {
		d.lastCommand = d.safeCommand()
	}

	if d.state != prevState {
		d.report(prevState, d.state)
	}

	return d.lastCommand
}

func (d *Decision) enter(s State, nowMS tick.T) {
	d.previousState = d.state
	d.state = s
	d.stateEntryTick = nowMS
}

func (d *Decision) report(from, to State) {
	if to == Safe && d.dem != nil {
		d.dem.Report(ports.EventSafeStateEntered, ports.FaultFailed)
	}
}

// deriveCommand implements §4.5's NORMAL/DEGRADED command table.
// overrideAutoOnInvalid forces the AUTO path when the switch is
// invalid — DEGRADED's explicit "invalid switch behaves as AUTO"
// fallback. NORMAL passes false: sw.Command already holds C3's
// last-accepted value while invalid, per its own invariant.
func (d *Decision) deriveCommand(sw lightswitch.Status, light ambient.Light, overrideAutoOnInvalid bool) Command {
	cmd := sw.Command
	if overrideAutoOnInvalid && !sw.IsValid {
		cmd = lightswitch.SwitchAuto
	}

	switch cmd {
	case lightswitch.SwitchOff:
		d.lightsOn = false
		return CommandOff
	case lightswitch.SwitchLowBeam:
		d.lightsOn = true
		return CommandLowBeam
	case lightswitch.SwitchHighBeam:
		d.lightsOn = true
		return CommandHighBeam
	case lightswitch.SwitchAuto:
		return d.autoCommand(light)
	default:
		return d.lastCommand
	}
}

// autoCommand applies the ON/OFF hysteresis latch over ambient ADC
// counts, per §4.5's AUTO bullet.
func (d *Decision) autoCommand(light ambient.Light) Command {
	if !light.IsValid {
		// Maintain previous command; do not touch the latch.
		return d.lastCommand
	}
	if d.lightsOn {
		if light.ADC > config.AmbientOffThreshold {
			d.lightsOn = false
			return CommandOff
		}
		return CommandLowBeam
	}
	if light.ADC < config.AmbientOnThreshold {
		d.lightsOn = true
		return CommandLowBeam
	}
	return CommandOff
}

// safeCommand implements §4.5's SAFE-state command rule: fail-safe to
// visibility at night, off in daylight.
func (d *Decision) safeCommand() Command {
	if !d.lastAmbient.IsValid {
		return CommandLowBeam
	}
	if d.lastAmbient.ADC < config.AmbientOnThreshold {
		return CommandLowBeam
	}
	return CommandOff
}
