//go:build linux

package hw

import (
	"context"
	"fmt"
	"net"

	"go.einride.tech/can/pkg/socketcan"

	"github.com/flm/core/internal/canbus"
	"github.com/flm/core/internal/logging"
)

// CanBus owns a real socketcan connection and continuously drains it
// into a canbus.FrameLatch, which is what C3's ingestor actually
// reads from (ports.CanReceiver), via a dedicated receive goroutine:
// C3 runs on a fixed 10ms tick and must never block on the bus.
type CanBus struct {
	conn  net.Conn
	recv  *socketcan.Receiver
	latch *canbus.FrameLatch
	log   *logging.Logger
}

// NewCanBus dials the named SocketCAN interface (e.g. "can0") and
// returns a bus reader whose Run method must be started before any
// frame is observed.
func NewCanBus(ctx context.Context, iface string, log *logging.Logger) (*CanBus, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	var scoped *logging.Logger
	if log != nil {
		scoped = log.Component("canbus")
	}
	return &CanBus{
		conn:  conn,
		recv:  socketcan.NewReceiver(conn),
		latch: canbus.NewFrameLatch(),
		log:   scoped,
	}, nil
}

// Latch exposes the ports.CanReceiver the scheduler should be wired
// to; it is safe to read concurrently with Run.
func (b *CanBus) Latch() *canbus.FrameLatch { return b.latch }

// Run drains frames into the latch until ctx is canceled or the
// socket errors. It is meant to run in its own goroutine for the
// lifetime of the process.
func (b *CanBus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !b.recv.Receive() {
			if err := b.recv.Err(); err != nil {
				return fmt.Errorf("socketcan receive: %w", err)
			}
			continue
		}

		frame := b.recv.Frame()
		b.latch.IngestCANFrame(frame)
		if b.log != nil {
			b.log.Trace("can: received frame id=0x%X len=%d", frame.ID, frame.Length)
		}
	}
}

func (b *CanBus) Close() error {
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
