package lightswitch

import (
	"testing"

	"github.com/flm/core/internal/config"
	"github.com/flm/core/internal/e2e"
	"github.com/flm/core/internal/ports"
)

// fakeReceiver is a scripted ports.CanReceiver for one frame per Tick.
type fakeReceiver struct {
	frame ports.CanFrame
	ok    bool
}

func (f *fakeReceiver) TakeFrame() (ports.CanFrame, bool) { return f.frame, f.ok }

// protectedFrame builds a valid E2E-protected light-switch frame
// carrying cmd, using the same codec config C3 itself uses.
func protectedFrame(t *testing.T, state *e2e.ProtectState, cmd Command) ports.CanFrame {
	t.Helper()
	cfg := e2e.NewConfigFromBitOffsets(
		config.LightSwitchDataID,
		config.E2ECRCOffsetBit,
		config.E2ECounterOffsetBit,
		config.E2EMaxDeltaCounter,
		config.E2EMaxNoNewOrRepeat,
	)
	buf := make([]byte, config.LightSwitchDLC)
	buf[config.CommandByteOffset] = byte(cmd)
	e2e.Protect(cfg, state, buf)
	var frame ports.CanFrame
	frame.Len = copy(frame.Data[:], buf)
	return frame
}

func TestIngestor_AcceptsValidFramesAndBecomesValid(t *testing.T) {
	ing := New(nil, nil)
	var state e2e.ProtectState
	recv := &fakeReceiver{ok: true}

	var st Status
	for i := 0; i < 3; i++ {
		recv.frame = protectedFrame(t, &state, SwitchLowBeam)
		st = ing.Tick(recv)
	}
	if !st.IsValid {
		t.Fatalf("IsValid = false after 3 consecutive valid frames, want true")
	}
	if st.Command != SwitchLowBeam {
		t.Fatalf("Command = %v, want LOW_BEAM", st.Command)
	}
}

func TestIngestor_RejectsOutOfRangeCommandByte(t *testing.T) {
	ing := New(nil, nil)
	var state e2e.ProtectState
	cfg := e2e.NewConfigFromBitOffsets(
		config.LightSwitchDataID,
		config.E2ECRCOffsetBit,
		config.E2ECounterOffsetBit,
		config.E2EMaxDeltaCounter,
		config.E2EMaxNoNewOrRepeat,
	)
	buf := make([]byte, config.LightSwitchDLC)
	buf[config.CommandByteOffset] = 0x7F // out of [OFF..AUTO] range, but E2E-valid
	e2e.Protect(cfg, &state, buf)
	var frame ports.CanFrame
	frame.Len = copy(frame.Data[:], buf)

	recv := &fakeReceiver{frame: frame, ok: true}
	st := ing.Tick(recv)
	if st.Command != SwitchOff {
		t.Fatalf("Command = %v, want OFF (out-of-range byte left at zero-value default)", st.Command)
	}
}

func TestIngestor_TimeoutActivatesAfterCANTimeoutMS(t *testing.T) {
	ing := New(nil, nil)
	var state e2e.ProtectState
	recv := &fakeReceiver{ok: true}

	recv.frame = protectedFrame(t, &state, SwitchLowBeam)
	ing.Tick(recv)

	recv.ok = false
	var st Status
	cycles := config.CANTimeoutMS / config.MainMS
	for i := 0; i < cycles; i++ {
		st = ing.Tick(recv)
	}
	if !ing.TimeoutActive() {
		t.Fatalf("TimeoutActive() = false after %d silent cycles, want true", cycles)
	}
	if st.IsValid {
		t.Fatalf("IsValid = true once timeout is active, want false")
	}
	if st.Command != SwitchLowBeam {
		t.Fatalf("Command = %v, want last-accepted LOW_BEAM held across timeout", st.Command)
	}
}

func TestIngestor_CorruptedFramesEscalateToE2EFailure(t *testing.T) {
	ing := New(nil, nil)
	var state e2e.ProtectState
	recv := &fakeReceiver{ok: true}

	recv.frame = protectedFrame(t, &state, SwitchLowBeam)
	ing.Tick(recv)

	for i := 0; i < consecutiveE2EErrorsToFail; i++ {
		frame := protectedFrame(t, &state, SwitchLowBeam)
		frame.Data[config.CRCByteOffset] ^= 0xFF
		recv.frame = frame
		ing.Tick(recv)
	}
	if !ing.E2EFailureActive() {
		t.Fatalf("E2EFailureActive() = false after %d consecutive CRC errors, want true", consecutiveE2EErrorsToFail)
	}
}
