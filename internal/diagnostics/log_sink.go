package diagnostics

import (
	"github.com/flm/core/internal/logging"
	"github.com/flm/core/internal/ports"
)

// LogSink is a Redis-free DemSink/BswMSink for environments without a
// diagnostics bus (bench tests, and -mission simulation mode, which
// always uses it): every event is just a leveled log line.
type LogSink struct {
	log *logging.Logger
}

func NewLogSink(log *logging.Logger) *LogSink {
	return &LogSink{log: log.Component("dem")}
}

func (s *LogSink) Report(event ports.EventID, status ports.FaultStatus) {
	if status == ports.FaultFailed {
		s.log.Warn("fault present: %s", event)
	} else {
		s.log.Info("fault absent: %s", event)
	}
}

func (s *LogSink) NotifySafeStateMode(active bool) {
	if active {
		s.log.Critical("safe-state mode entered")
	} else {
		s.log.Info("safe-state mode exited")
	}
}
