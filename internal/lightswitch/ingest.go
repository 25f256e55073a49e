// Package lightswitch implements C3, the switch ingestor: it buffers
// the last bus frame, runs E2E validation, range-checks the decoded
// command, and tracks CAN timeout — all per spec §4.3.
package lightswitch

import (
	"github.com/flm/core/internal/config"
	"github.com/flm/core/internal/e2e"
	"github.com/flm/core/internal/ports"
)

// Command is the decoded light-switch command. SwitchOff is the zero
// value, doubling as the safe default of a zero-initialized state.
type Command int

const (
	SwitchOff Command = iota
	SwitchLowBeam
	SwitchHighBeam
	SwitchAuto
)

func (c Command) String() string {
	switch c {
	case SwitchOff:
		return "OFF"
	case SwitchLowBeam:
		return "LOW_BEAM"
	case SwitchHighBeam:
		return "HIGH_BEAM"
	case SwitchAuto:
		return "AUTO"
	default:
		return "OFF"
	}
}

// Status is the by-value snapshot C5 and C7 read. IsValid=false leaves
// Command at its last-accepted value, per §3's invariant.
type Status struct {
	Command Command
	IsValid bool
	Health  e2e.HealthState
}

// timeoutCyclesToActive is CAN_TIMEOUT_MS / MAIN_PERIOD_MS (§4.3 step 2).
const timeoutCyclesToActive = config.CANTimeoutMS / config.MainMS

// consecutiveE2EErrorsToFail is the §4.3 step-1 threshold for raising
// e2eFailureActive.
const consecutiveE2EErrorsToFail = 5

// Ingestor owns C3's state exclusively.
type Ingestor struct {
	cfg    e2e.Config
	check  e2e.CheckState
	health *e2e.HealthTracker

	command Command

	timeoutCount int
	timeoutActive bool

	consecutiveE2EErrors int
	e2eFailureActive     bool

	lastVerdict e2e.CheckVerdict

	dem  ports.DemSink
	wdgm ports.WdgMSink
}

// New creates an ingestor in its INIT-equivalent zero state: command
// OFF, not valid, health DEINIT.
func New(dem ports.DemSink, wdgm ports.WdgMSink) *Ingestor {
	cfg := e2e.NewConfigFromBitOffsets(
		config.LightSwitchDataID,
		config.E2ECRCOffsetBit,
		config.E2ECounterOffsetBit,
		config.E2EMaxDeltaCounter,
		config.E2EMaxNoNewOrRepeat,
	)
	return &Ingestor{
		cfg:    cfg,
		check:  e2e.NewCheckState(),
		health: e2e.NewHealthTracker(e2e.DefaultHealthConfig()),
		dem:    dem,
		wdgm:   wdgm,
	}
}

// Tick runs one C3 main-function cycle, per §4.3.
func (ing *Ingestor) Tick(recv ports.CanReceiver) Status {
	if ing.wdgm != nil {
		ing.wdgm.ReportCheckpoint("SwitchIngestor", 0)
	}

	frame, hasNew := recv.TakeFrame()

	var verdict e2e.CheckVerdict
	if hasNew {
		verdict = e2e.Check(ing.cfg, &ing.check, frame.Data[:frame.Len])
		if verdict.OKish() {
			raw := int(frame.Data[config.CommandByteOffset])
			if raw >= 0 && raw <= int(SwitchAuto) {
				ing.command = Command(raw)
				ing.timeoutCount = 0
				ing.timeoutActive = false
				ing.consecutiveE2EErrors = 0
			}
		} else {
			ing.consecutiveE2EErrors++
			if ing.consecutiveE2EErrors >= consecutiveE2EErrorsToFail {
				ing.e2eFailureActive = true
				ing.report(ports.EventE2EFailed, ports.FaultFailed)
			}
		}
	} else {
		verdict = e2e.Check(ing.cfg, &ing.check, nil)
		ing.timeoutCount++
		wasActive := ing.timeoutActive
		ing.timeoutActive = ing.timeoutCount >= timeoutCyclesToActive
		if ing.timeoutActive && !wasActive {
			ing.report(ports.EventCANTimeout, ports.FaultFailed)
		}
	}

	ing.lastVerdict = verdict
	health := ing.health.Update(verdict)

	return Status{
		Command: ing.command,
		IsValid: health == e2e.HealthValid && !ing.timeoutActive,
		Health:  health,
	}
}

func (ing *Ingestor) report(event ports.EventID, status ports.FaultStatus) {
	if ing.dem != nil {
		ing.dem.Report(event, status)
	}
}

// RawVerdict exposes C1's last verdict, for diagnostics/tests.
func (ing *Ingestor) RawVerdict() e2e.CheckVerdict { return ing.lastVerdict }

// TimeoutActive exposes the CAN-timeout flag, per §4.3's observable outputs.
func (ing *Ingestor) TimeoutActive() bool { return ing.timeoutActive }

// E2EFailureActive reports whether consecutive E2E errors crossed the
// escalation threshold (§4.3 step 1).
func (ing *Ingestor) E2EFailureActive() bool { return ing.e2eFailureActive }
