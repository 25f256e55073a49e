// Package diagnostics provides the concrete DemSink/WdgMSink/BswMSink
// implementations the core is wired to at construction time: a
// Redis-backed sink grounded on librescoot-vehicle-service's direct
// go-redis fault-reporting pattern, and a log-only fallback for
// environments without a Redis deployment.
package diagnostics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flm/core/internal/logging"
	"github.com/flm/core/internal/ports"
)

// RedisSink reports DEM events and WdgM checkpoints into Redis using
// the same set+stream+publish shape as ReportFaultPresent/Absent:
// active faults live in a set, every transition is appended to a
// capped stream, and a pub/sub notification wakes up any listener.
type RedisSink struct {
	client *redis.Client
	log    *logging.Logger
	ctx    context.Context
}

func NewRedisSink(addr string, db int, log *logging.Logger) *RedisSink {
	var scoped *logging.Logger
	if log != nil {
		scoped = log.Component("diagnostics")
	}
	return &RedisSink{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		log:    scoped,
		ctx:    context.Background(),
	}
}

func (s *RedisSink) Close() error { return s.client.Close() }

func (s *RedisSink) Ping() error { return s.client.Ping(s.ctx).Err() }

// Report implements ports.DemSink.
func (s *RedisSink) Report(event ports.EventID, status ports.FaultStatus) {
	pipe := s.client.Pipeline()

	if status == ports.FaultFailed {
		pipe.SAdd(s.ctx, "flm:fault", string(event))
		pipe.XAdd(s.ctx, &redis.XAddArgs{
			Stream: "events:flm-faults",
			MaxLen: 1000,
			Values: map[string]interface{}{
				"event": string(event),
				"ts":    time.Now().Unix(),
			},
		})
	} else {
		pipe.SRem(s.ctx, "flm:fault", string(event))
		pipe.XAdd(s.ctx, &redis.XAddArgs{
			Stream: "events:flm-faults",
			MaxLen: 1000,
			Values: map[string]interface{}{
				"event":   string(event),
				"cleared": true,
				"ts":      time.Now().Unix(),
			},
		})
	}
	pipe.Publish(s.ctx, "flm", "fault")

	if _, err := pipe.Exec(s.ctx); err != nil && s.log != nil {
		s.log.Error("diagnostics: report %s failed: %v", event, err)
	}
}

// ReportCheckpoint implements ports.WdgMSink: it records the wall-clock
// time (Unix milliseconds) of the last checkpoint per supervised
// entity, for an external watchdog process to poll for staleness.
func (s *RedisSink) ReportCheckpoint(entityID string, checkpointID int) {
	field := fmt.Sprintf("%s:%d", entityID, checkpointID)
	if err := s.client.HSet(s.ctx, "flm:wdgm", field, time.Now().UnixMilli()).Err(); err != nil && s.log != nil {
		s.log.Error("diagnostics: checkpoint %s failed: %v", field, err)
	}
}

// NotifySafeStateMode implements ports.BswMSink.
func (s *RedisSink) NotifySafeStateMode(active bool) {
	if err := s.client.Publish(s.ctx, "flm", fmt.Sprintf("safe-state:%v", active)).Err(); err != nil && s.log != nil {
		s.log.Error("diagnostics: safe-state notify failed: %v", err)
	}
}
