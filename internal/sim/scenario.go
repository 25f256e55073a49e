// Package sim provides a JSON scenario-driven simulation harness: a
// timeline of switch-command and ambient-ADC segments drives the core
// end to end without real hardware.
package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flm/core/internal/lightswitch"
)

// ScenarioMeta carries descriptive, non-functional scenario metadata.
type ScenarioMeta struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ScenarioTiming controls how long the harness runs the timeline.
// TickMS is parsed and defaults to 1, but the Runner does not read it:
// it always steps the scheduler by config.TickMS.
type ScenarioTiming struct {
	TickMS     int64 `json:"tick_ms"`
	DurationMS int64 `json:"duration_ms"`
}

// Segment overrides the switch command and/or ambient ADC reading for
// [T0MS, T1MS). A negative T1MS means "until the scenario ends".
type Segment struct {
	T0MS          int64  `json:"t0_ms"`
	T1MS          int64  `json:"t1_ms"`
	SwitchCommand string `json:"switch_command,omitempty"` // "OFF","LOW_BEAM","HIGH_BEAM","AUTO"
	AmbientADC    *int   `json:"ambient_adc,omitempty"`
	// DropFrames simulates a CAN dropout: no frame is delivered at all
	// during this segment, regardless of SwitchCommand.
	DropFrames bool `json:"drop_frames,omitempty"`
	// CorruptFrames inverts the CRC byte after E2E protection is
	// applied, so every delivered frame fails the CRC check, simulating
	// a wire fault rather than a dropout.
	CorruptFrames bool `json:"corrupt_frames,omitempty"`
	// ActuatorCurrentMA overrides the simulated feedback current,
	// independent of the commanded output state, to exercise C6's
	// open-load/short detection without real hardware.
	ActuatorCurrentMA *int   `json:"actuator_current_ma,omitempty"`
	Comment           string `json:"comment,omitempty"`
}

// Scenario is a complete, self-contained simulation timeline.
type Scenario struct {
	Meta              ScenarioMeta   `json:"meta"`
	Timing            ScenarioTiming `json:"timing"`
	DefaultSwitch     string         `json:"default_switch_command"`
	DefaultAmbientADC int            `json:"default_ambient_adc"`
	Segments          []Segment      `json:"segments"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}

	var scen Scenario
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal scenario: %w", err)
	}

	if scen.Timing.DurationMS <= 0 {
		return Scenario{}, fmt.Errorf("invalid duration_ms: %d", scen.Timing.DurationMS)
	}
	if scen.Timing.TickMS <= 0 {
		scen.Timing.TickMS = 1
	}
	if scen.DefaultSwitch == "" {
		scen.DefaultSwitch = "OFF"
	}
	for _, seg := range scen.Segments {
		if _, err := parseSwitchCommand(seg.SwitchCommand); seg.SwitchCommand != "" && err != nil {
			return Scenario{}, err
		}
	}
	if _, err := parseSwitchCommand(scen.DefaultSwitch); err != nil {
		return Scenario{}, err
	}

	return scen, nil
}

// segmentState is what EvalAt resolves a timestamp to: the inputs the
// two simulated sensor ports need to produce for that tick.
type segmentState struct {
	switchCommand     lightswitch.Command
	ambientADC        int
	dropFrames        bool
	corruptFrames     bool
	currentOverrideMA *int
}

// EvalAt resolves the active segment at tMS, falling back to the
// scenario defaults outside every segment.
func (s *Scenario) EvalAt(tMS int64) segmentState {
	st := segmentState{
		switchCommand: mustParseSwitchCommand(s.DefaultSwitch),
		ambientADC:    s.DefaultAmbientADC,
	}

	for _, seg := range s.Segments {
		t1 := seg.T1MS
		if t1 < 0 {
			t1 = s.Timing.DurationMS
		}
		if tMS >= seg.T0MS && tMS < t1 {
			if seg.SwitchCommand != "" {
				st.switchCommand = mustParseSwitchCommand(seg.SwitchCommand)
			}
			if seg.AmbientADC != nil {
				st.ambientADC = *seg.AmbientADC
			}
			st.dropFrames = seg.DropFrames
			st.corruptFrames = seg.CorruptFrames
			st.currentOverrideMA = seg.ActuatorCurrentMA
			break
		}
	}

	return st
}

func parseSwitchCommand(s string) (lightswitch.Command, error) {
	switch s {
	case "", "OFF":
		return lightswitch.SwitchOff, nil
	case "LOW_BEAM":
		return lightswitch.SwitchLowBeam, nil
	case "HIGH_BEAM":
		return lightswitch.SwitchHighBeam, nil
	case "AUTO":
		return lightswitch.SwitchAuto, nil
	default:
		return lightswitch.SwitchOff, fmt.Errorf("unknown switch_command %q", s)
	}
}

func mustParseSwitchCommand(s string) lightswitch.Command {
	cmd, err := parseSwitchCommand(s)
	if err != nil {
		return lightswitch.SwitchOff
	}
	return cmd
}
