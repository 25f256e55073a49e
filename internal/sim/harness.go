package sim

import (
	"github.com/flm/core/internal/config"
	"github.com/flm/core/internal/e2e"
	"github.com/flm/core/internal/ports"
)

// nominalChannelMA is the simulated steady-state current draw of one
// driven headlight channel, used when a segment does not override the
// feedback current explicitly.
const nominalChannelMA = 600

// Receiver is a scripted ports.CanReceiver: each TakeFrame call
// encodes the scenario's current switch command into a fresh,
// E2E-protected light-switch frame, unless the active segment drops
// or corrupts it.
type Receiver struct {
	scen    *Scenario
	nowMS   func() int64
	cfg     e2e.Config
	protect e2e.ProtectState
}

func NewReceiver(scen *Scenario, nowMS func() int64) *Receiver {
	return &Receiver{
		scen:  scen,
		nowMS: nowMS,
		cfg: e2e.NewConfigFromBitOffsets(
			config.LightSwitchDataID,
			config.E2ECRCOffsetBit,
			config.E2ECounterOffsetBit,
			config.E2EMaxDeltaCounter,
			config.E2EMaxNoNewOrRepeat,
		),
	}
}

func (r *Receiver) TakeFrame() (ports.CanFrame, bool) {
	st := r.scen.EvalAt(r.nowMS())
	if st.dropFrames {
		return ports.CanFrame{}, false
	}

	buf := make([]byte, config.LightSwitchDLC)
	buf[config.CommandByteOffset] = byte(st.switchCommand)
	e2e.Protect(r.cfg, &r.protect, buf)

	if st.corruptFrames {
		buf[config.CRCByteOffset] ^= 0xFF
	}

	var frame ports.CanFrame
	frame.Len = copy(frame.Data[:], buf)
	return frame, true
}

// Adc is a scripted ports.AdcPort reading the scenario's ambient ADC
// value for the current simulated tick.
type Adc struct {
	scen  *Scenario
	nowMS func() int64
}

func NewAdc(scen *Scenario, nowMS func() int64) *Adc {
	return &Adc{scen: scen, nowMS: nowMS}
}

func (a *Adc) ReadAmbient() int { return a.scen.EvalAt(a.nowMS()).ambientADC }

// Actuator is a combined ports.DioPort/ports.CurrentSensePort double:
// it remembers the last commanded output state and reports a current
// proportional to which channels are driven, unless the active
// scenario segment overrides the feedback value to exercise C6's
// fault detection.
type Actuator struct {
	scen   *Scenario
	nowMS  func() int64
	lowOn  bool
	highOn bool
}

func NewActuator(scen *Scenario, nowMS func() int64) *Actuator {
	return &Actuator{scen: scen, nowMS: nowMS}
}

func (a *Actuator) SetLowBeam(on bool)  { a.lowOn = on }
func (a *Actuator) SetHighBeam(on bool) { a.highOn = on }

func (a *Actuator) ReadFeedbackMilliamps() int {
	if st := a.scen.EvalAt(a.nowMS()); st.currentOverrideMA != nil {
		return *st.currentOverrideMA
	}
	ma := 0
	if a.lowOn {
		ma += nominalChannelMA
	}
	if a.highOn {
		ma += nominalChannelMA
	}
	return ma
}

// Watchdog is a scripted ports.WatchdogStatusSource, always OK unless
// told otherwise; real watchdog supervision is internal/diagnostics's
// concern, not the simulation harness's.
type Watchdog struct {
	status ports.WatchdogGlobalStatus
}

func NewWatchdog() *Watchdog { return &Watchdog{status: ports.WatchdogOK} }

func (w *Watchdog) GlobalStatus() ports.WatchdogGlobalStatus { return w.status }

func (w *Watchdog) SetStatus(s ports.WatchdogGlobalStatus) { w.status = s }
