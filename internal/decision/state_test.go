package decision

import (
	"testing"

	"github.com/flm/core/internal/ambient"
	"github.com/flm/core/internal/lightswitch"
	"github.com/flm/core/internal/tick"
)

func validSwitch(cmd lightswitch.Command) lightswitch.Status {
	return lightswitch.Status{Command: cmd, IsValid: true}
}

func validLight(adc int) ambient.Light {
	return ambient.Light{ADC: adc, Lux: adc / 4, IsValid: true}
}

func TestDecision_InitToNormalOnBothValid(t *testing.T) {
	d := New(nil, nil)
	if d.State() != Init {
		t.Fatalf("initial state = %v, want INIT", d.State())
	}
	cmd := d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(2000), 0)
	if d.State() != Normal {
		t.Fatalf("state = %v, want NORMAL", d.State())
	}
	if cmd != CommandLowBeam {
		t.Fatalf("command = %v, want LOW_BEAM", cmd)
	}
}

func TestDecision_NormalEscalatesToDegradedAfterThreeInvalidTicks(t *testing.T) {
	d := New(nil, nil)
	d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(2000), 0)

	invalidSw := lightswitch.Status{Command: lightswitch.SwitchLowBeam, IsValid: false}
	for i := 0; i < 2; i++ {
		d.Tick(invalidSw, validLight(2000), tick.T(10*(i+1)))
		if d.State() != Normal {
			t.Fatalf("tick %d: state = %v, want still NORMAL", i, d.State())
		}
	}
	d.Tick(invalidSw, validLight(2000), 30)
	if d.State() != Degraded {
		t.Fatalf("state = %v, want DEGRADED after 3 consecutive invalid ticks", d.State())
	}
}

func TestDecision_DegradedRecoversToNormalOnBothValid(t *testing.T) {
	d := New(nil, nil)
	d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(2000), 0)
	invalidSw := lightswitch.Status{Command: lightswitch.SwitchLowBeam, IsValid: false}
	for i := 1; i <= 3; i++ {
		d.Tick(invalidSw, validLight(2000), tick.T(10*i))
	}
	if d.State() != Degraded {
		t.Fatalf("state = %v, want DEGRADED", d.State())
	}
	d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(2000), 40)
	if d.State() != Normal {
		t.Fatalf("state = %v, want NORMAL after recovery", d.State())
	}
}

func TestDecision_DegradedTimesOutToSafe(t *testing.T) {
	d := New(nil, nil)
	d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(2000), 0)
	invalidSw := lightswitch.Status{Command: lightswitch.SwitchLowBeam, IsValid: false}
	for i := 1; i <= 3; i++ {
		d.Tick(invalidSw, validLight(2000), tick.T(10*i))
	}
	if d.State() != Degraded {
		t.Fatalf("state = %v, want DEGRADED", d.State())
	}
	// degradedEntryTick = 30; safeStateGraceMS = 100; exceed it.
	cmd := d.Tick(invalidSw, validLight(2000), 30+safeStateGraceMS+1)
	if d.State() != Safe {
		t.Fatalf("state = %v, want SAFE after DEGRADED grace period elapses", d.State())
	}
	if cmd != CommandOff {
		t.Fatalf("safe command = %v, want OFF (ambient 2000 is above ON_THRESHOLD)", cmd)
	}
}

func TestDecision_ExternalSafeRequestIsImmediateAndSticky(t *testing.T) {
	d := New(nil, nil)
	d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(2000), 0)
	d.TriggerSafe("E2E_FAILURE")
	d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(2000), 10)
	if d.State() != Safe {
		t.Fatalf("state = %v, want SAFE immediately after TriggerSafe", d.State())
	}
	// No sequence of valid inputs should move it back out.
	for i := 0; i < 10; i++ {
		d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(2000), tick.T(20+10*i))
	}
	if d.State() != Safe {
		t.Fatalf("state = %v, want SAFE to remain terminal", d.State())
	}
}

func TestDecision_DegradedTimesOutToSafeAcrossTickWraparound(t *testing.T) {
	d := New(nil, nil)
	start := tick.T(4294967200) // 2^32 - 96
	d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(2000), start)
	invalidSw := lightswitch.Status{Command: lightswitch.SwitchLowBeam, IsValid: false}
	for i := tick.T(1); i <= 3; i++ {
		d.Tick(invalidSw, validLight(2000), start+10*i)
	}
	if d.State() != Degraded {
		t.Fatalf("state = %v, want DEGRADED", d.State())
	}
	// degradedEntryTick = start+30; safeStateGraceMS = 100; this sum
	// overflows uint32, so a naive signed subtraction would see a huge
	// negative "elapsed" and never time out.
	cmd := d.Tick(invalidSw, validLight(2000), start+30+safeStateGraceMS+1)
	if d.State() != Safe {
		t.Fatalf("state = %v, want SAFE once the grace period elapses across wraparound", d.State())
	}
	if cmd != CommandOff {
		t.Fatalf("safe command = %v, want OFF (ambient 2000 is above ON_THRESHOLD)", cmd)
	}
}

func TestDecision_AutoHysteresis(t *testing.T) {
	d := New(nil, nil)
	d.Tick(validSwitch(lightswitch.SwitchAuto), validLight(2000), 0)

	cmd := d.Tick(validSwitch(lightswitch.SwitchAuto), validLight(500), 10)
	if cmd != CommandLowBeam {
		t.Fatalf("ambient=500: command = %v, want LOW_BEAM", cmd)
	}
	cmd = d.Tick(validSwitch(lightswitch.SwitchAuto), validLight(900), 20)
	if cmd != CommandLowBeam {
		t.Fatalf("ambient=900 (within hysteresis band): command = %v, want LOW_BEAM", cmd)
	}
	cmd = d.Tick(validSwitch(lightswitch.SwitchAuto), validLight(1200), 30)
	if cmd != CommandOff {
		t.Fatalf("ambient=1200: command = %v, want OFF", cmd)
	}
}

func TestDecision_AutoMaintainsCommandWhenAmbientInvalid(t *testing.T) {
	d := New(nil, nil)
	d.Tick(validSwitch(lightswitch.SwitchAuto), validLight(500), 0)
	cmd := d.Tick(validSwitch(lightswitch.SwitchAuto), validLight(500), 10)
	if cmd != CommandLowBeam {
		t.Fatalf("setup: command = %v, want LOW_BEAM", cmd)
	}
	invalidLight := ambient.Light{ADC: 500, IsValid: false}
	cmd = d.Tick(validSwitch(lightswitch.SwitchAuto), invalidLight, 20)
	if cmd != CommandLowBeam {
		t.Fatalf("ambient invalid: command = %v, want unchanged LOW_BEAM", cmd)
	}
}

func TestDecision_SafeCommandByDaylight(t *testing.T) {
	d := New(nil, nil)
	d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(3000), 0)
	d.TriggerSafe("MULTI_FAULT")
	cmd := d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(3000), 10)
	if cmd != CommandOff {
		t.Fatalf("daylight safe command = %v, want OFF", cmd)
	}
}

func TestDecision_SafeCommandByNight(t *testing.T) {
	d := New(nil, nil)
	d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(500), 0)
	d.TriggerSafe("MULTI_FAULT")
	cmd := d.Tick(validSwitch(lightswitch.SwitchLowBeam), validLight(500), 10)
	if cmd != CommandLowBeam {
		t.Fatalf("night safe command = %v, want LOW_BEAM", cmd)
	}
}
