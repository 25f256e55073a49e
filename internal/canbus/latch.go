package canbus

import (
	"sync"

	"go.einride.tech/can"

	"github.com/flm/core/internal/ports"
)

// FrameLatch is the bus-receive critical section spec §5 requires: the
// setter (a driver interrupt on real hardware, or a simulation
// injector) and the reader (C3, once per tick) must never see a torn
// frame. A mutex is the lightweight critical section for this hosted
// build; a real target would use a disable-interrupts pair instead.
type FrameLatch struct {
	mu     sync.Mutex
	frame  ports.CanFrame
	hasNew bool
}

// NewFrameLatch returns an empty latch, ready to Ingest.
func NewFrameLatch() *FrameLatch { return &FrameLatch{} }

// Ingest copies a received frame's payload into the latch and raises
// the new-message flag. Safe to call from any goroutine.
func (l *FrameLatch) Ingest(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(data)
	if n > 8 {
		n = 8
	}
	l.frame = ports.CanFrame{Len: n}
	copy(l.frame.Data[:n], data[:n])
	l.hasNew = true
}

// IngestCANFrame adapts a go.einride.tech/can.Frame into the latch,
// discarding anything that is not the one light-switch frame FLM
// consumes — other traffic sharing the bus never reaches C3.
func (l *FrameLatch) IngestCANFrame(f can.Frame) {
	if !IsLightSwitchFrame(f.ID, int(f.Length)) {
		return
	}
	l.Ingest(f.Data[:f.Length])
}

// TakeFrame implements ports.CanReceiver: it returns the latched frame
// and clears the new-message flag as part of the read.
func (l *FrameLatch) TakeFrame() (ports.CanFrame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasNew {
		return ports.CanFrame{}, false
	}
	l.hasNew = false
	return l.frame, true
}
