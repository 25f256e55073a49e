package diagnostics

import (
	"context"
	"sync"
	"time"

	"github.com/flm/core/internal/config"
	"github.com/flm/core/internal/ports"
)

// entityWindow tracks one supervised entity's checkpoint activity
// within the current WDGM_SUPERVISION_CYCLE_MS window.
type entityWindow struct {
	count          int
	consecutiveBad int
	expired        bool
}

// Supervisor is a local WdgM-like program-flow monitor: every
// registered entity is expected to call ReportCheckpoint between
// WdgMAliveMarginMin and WdgMAliveMarginMax times per supervision
// cycle. Falling outside that window for WdgMFailedRefCycle
// consecutive cycles marks the entity FAILED; a cycle with zero
// checkpoints at all escalates straight toward EXPIRED. It forwards
// every checkpoint to an optional downstream sink (typically a
// RedisSink) for external visibility, but its own GlobalStatus is
// computed purely from local counters so C7 never depends on Redis
// being reachable to detect a wedged task.
type Supervisor struct {
	mu       sync.Mutex
	entities map[string]*entityWindow
	sink     ports.WdgMSink
	global   ports.WatchdogGlobalStatus
}

func NewSupervisor(sink ports.WdgMSink) *Supervisor {
	return &Supervisor{
		entities: make(map[string]*entityWindow),
		sink:     sink,
	}
}

// ReportCheckpoint implements ports.WdgMSink.
func (s *Supervisor) ReportCheckpoint(entityID string, checkpointID int) {
	s.mu.Lock()
	w, ok := s.entities[entityID]
	if !ok {
		w = &entityWindow{}
		s.entities[entityID] = w
	}
	w.count++
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.ReportCheckpoint(entityID, checkpointID)
	}
}

// GlobalStatus implements ports.WatchdogStatusSource.
func (s *Supervisor) GlobalStatus() ports.WatchdogGlobalStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.global
}

// Run evaluates every registered entity's checkpoint count once per
// WDGM_SUPERVISION_CYCLE_MS and resets the counters for the next
// window, until ctx is canceled.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(config.WdgMSupervisionCycleMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.evaluateCycle()
		}
	}
}

func (s *Supervisor) evaluateCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	worst := ports.WatchdogOK
	for _, w := range s.entities {
		switch {
		case w.count == 0:
			w.consecutiveBad++
			if w.consecutiveBad >= config.WdgMFailedRefCycle {
				w.expired = true
			}
		case w.count < config.WdgMAliveMarginMin || w.count > config.WdgMAliveMarginMax:
			w.consecutiveBad++
		default:
			w.consecutiveBad = 0
			w.expired = false
		}

		switch {
		case w.expired:
			if worst < ports.WatchdogExpired {
				worst = ports.WatchdogExpired
			}
		case w.consecutiveBad >= config.WdgMFailedRefCycle:
			if worst < ports.WatchdogFailed {
				worst = ports.WatchdogFailed
			}
		}
		w.count = 0
	}
	s.global = worst
}
