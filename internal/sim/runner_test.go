package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flm/core/internal/decision"
)

func writeRunnerScenario(t *testing.T, json string) *Scenario {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.json")
	if err := os.WriteFile(path, []byte(json), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	scen, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	return &scen
}

func TestRunner_AutoTurnsLowBeamOnInDarkness(t *testing.T) {
	scen := writeRunnerScenario(t, `{
		"timing": {"duration_ms": 500},
		"default_switch_command": "AUTO",
		"default_ambient_adc": 200
	}`)

	sch := NewRunner(scen, nil).RunToCompletion()

	if sch.DecisionState() != decision.Normal {
		t.Fatalf("state = %v, want NORMAL", sch.DecisionState())
	}
	if sch.Command() != decision.CommandLowBeam {
		t.Fatalf("command = %v, want LOW_BEAM in AUTO at low ambient", sch.Command())
	}
}

func TestRunner_CorruptedFramesEscalateToSafe(t *testing.T) {
	scen := writeRunnerScenario(t, `{
		"timing": {"duration_ms": 1000},
		"default_switch_command": "LOW_BEAM",
		"default_ambient_adc": 2000,
		"segments": [
			{"t0_ms": 0, "t1_ms": 200, "switch_command": "LOW_BEAM"},
			{"t0_ms": 200, "t1_ms": -1, "switch_command": "LOW_BEAM", "corrupt_frames": true}
		]
	}`)

	sch := NewRunner(scen, nil).RunToCompletion()

	if sch.DecisionState() != decision.Safe {
		t.Fatalf("state = %v, want SAFE after sustained E2E corruption", sch.DecisionState())
	}
}

func TestRunner_DaylightSafeCommandIsOff(t *testing.T) {
	scen := writeRunnerScenario(t, `{
		"timing": {"duration_ms": 1000},
		"default_switch_command": "LOW_BEAM",
		"default_ambient_adc": 3000,
		"segments": [
			{"t0_ms": 0, "t1_ms": 200, "switch_command": "LOW_BEAM"},
			{"t0_ms": 200, "t1_ms": -1, "switch_command": "LOW_BEAM", "drop_frames": true}
		]
	}`)

	sch := NewRunner(scen, nil).RunToCompletion()

	if sch.DecisionState() != decision.Safe {
		t.Fatalf("state = %v, want SAFE after sustained CAN dropout", sch.DecisionState())
	}
	if sch.Command() != decision.CommandOff {
		t.Fatalf("command = %v, want OFF in SAFE during daylight", sch.Command())
	}
}
