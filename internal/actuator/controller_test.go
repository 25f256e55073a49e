package actuator

import (
	"testing"

	"github.com/flm/core/internal/decision"
)

type fixedCurrent struct{ ma int }

func (f fixedCurrent) ReadFeedbackMilliamps() int { return f.ma }

type recordingDio struct{ low, high bool }

func (d *recordingDio) SetLowBeam(on bool)  { d.low = on }
func (d *recordingDio) SetHighBeam(on bool) { d.high = on }

func TestController_LowBeamDrivesOnlyLowChannel(t *testing.T) {
	c := New(nil, nil)
	dio := &recordingDio{}
	c.Tick(decision.CommandLowBeam, 0, fixedCurrent{500}, dio)
	if !dio.low || dio.high {
		t.Fatalf("low=%v high=%v, want low=true high=false", dio.low, dio.high)
	}
}

func TestController_HighBeamDrivesBothChannels(t *testing.T) {
	c := New(nil, nil)
	dio := &recordingDio{}
	c.Tick(decision.CommandHighBeam, 0, fixedCurrent{500}, dio)
	if !dio.low || !dio.high {
		t.Fatalf("low=%v high=%v, want both true", dio.low, dio.high)
	}
}

func TestController_OpenLoadConfirmedAfterSettlingAndTwoCycles(t *testing.T) {
	c := New(nil, nil)
	dio := &recordingDio{}

	c.Tick(decision.CommandLowBeam, 0, fixedCurrent{500}, dio) // commandChangeTick=0
	// Before the 20ms settling window, low current must not count.
	st := c.Tick(decision.CommandLowBeam, 10, fixedCurrent{10}, dio)
	if st.Fault != FaultNone {
		t.Fatalf("before settling: fault = %v, want NONE", st.Fault)
	}
	st = c.Tick(decision.CommandLowBeam, 20, fixedCurrent{10}, dio) // openLoadCount=1
	if st.Fault != FaultNone {
		t.Fatalf("first low-current cycle after settling: fault = %v, want NONE", st.Fault)
	}
	st = c.Tick(decision.CommandLowBeam, 30, fixedCurrent{10}, dio) // openLoadCount=2
	if st.Fault != FaultOpenLoad {
		t.Fatalf("second low-current cycle: fault = %v, want OPEN_LOAD", st.Fault)
	}
}

func TestController_ShortConfirmedForcesOutputsOffAndSticks(t *testing.T) {
	c := New(nil, nil)
	dio := &recordingDio{}

	c.Tick(decision.CommandHighBeam, 0, fixedCurrent{500}, dio)
	c.Tick(decision.CommandHighBeam, 10, fixedCurrent{20000}, dio) // shortCount=1
	st := c.Tick(decision.CommandHighBeam, 20, fixedCurrent{20000}, dio) // shortCount=2
	if st.Fault != FaultShort {
		t.Fatalf("fault = %v, want SHORT", st.Fault)
	}
	if dio.low || dio.high {
		t.Fatalf("low=%v high=%v, want both forced off under SHORT", dio.low, dio.high)
	}

	// Sticky: current returns to normal, command stays HIGH_BEAM, but
	// the fault (and forced-off outputs) must persist.
	st = c.Tick(decision.CommandHighBeam, 30, fixedCurrent{500}, dio)
	if st.Fault != FaultShort {
		t.Fatalf("fault after recovery = %v, want sticky SHORT", st.Fault)
	}
	if dio.low || dio.high {
		t.Fatalf("low=%v high=%v, want outputs to remain forced off", dio.low, dio.high)
	}
}

func TestController_OffCommandNeverFlagsOpenLoad(t *testing.T) {
	c := New(nil, nil)
	dio := &recordingDio{}
	c.Tick(decision.CommandOff, 0, fixedCurrent{0}, dio)
	st := c.Tick(decision.CommandOff, 30, fixedCurrent{0}, dio)
	if st.Fault != FaultNone {
		t.Fatalf("fault = %v, want NONE for OFF command regardless of current", st.Fault)
	}
}
