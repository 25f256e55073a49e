// Package actuator implements C6: it drives the two headlight output
// channels from a HeadlightCommand and detects open-load/short faults
// on the feedback current, per spec §4.6.
package actuator

import (
	"github.com/flm/core/internal/config"
	"github.com/flm/core/internal/decision"
	"github.com/flm/core/internal/ports"
	"github.com/flm/core/internal/tick"
)

// FaultStatus is C6's sticky fault classification. FaultNone is the
// zero value.
type FaultStatus int

const (
	FaultNone FaultStatus = iota
	FaultOpenLoad
	FaultShort
)

func (f FaultStatus) String() string {
	switch f {
	case FaultOpenLoad:
		return "OPEN_LOAD"
	case FaultShort:
		return "SHORT"
	default:
		return "NONE"
	}
}

// Status is C6's by-value snapshot, consumed by C7.
type Status struct {
	Fault FaultStatus
}

// Controller owns C6's state exclusively.
type Controller struct {
	lastCommand       decision.Command
	commandChangeTick tick.T

	openLoadCount int
	shortCount    int

	fault FaultStatus

	dem  ports.DemSink
	wdgm ports.WdgMSink
}

func New(dem ports.DemSink, wdgm ports.WdgMSink) *Controller {
	return &Controller{dem: dem, wdgm: wdgm, lastCommand: decision.CommandOff}
}

// Status exposes the sticky fault classification, for C7 and diagnostics.
func (c *Controller) Status() Status { return Status{Fault: c.fault} }

// Tick runs one C6 main-function cycle, per §4.6.
func (c *Controller) Tick(cmd decision.Command, nowMS tick.T, sense ports.CurrentSensePort, dio ports.DioPort) Status {
	if c.wdgm != nil {
		c.wdgm.ReportCheckpoint("ActuatorController", 0)
	}

	if cmd != c.lastCommand {
		c.commandChangeTick = nowMS
		c.lastCommand = cmd
	}

	currentMA := sense.ReadFeedbackMilliamps()

	if c.fault == FaultShort {
		// Latched off for the remainder of the cycle, sticky until
		// re-initialization.
		dio.SetLowBeam(false)
		dio.SetHighBeam(false)
	} else {
		switch cmd {
		case decision.CommandOff:
			dio.SetLowBeam(false)
			dio.SetHighBeam(false)
		case decision.CommandLowBeam:
			dio.SetLowBeam(true)
			dio.SetHighBeam(false)
		case decision.CommandHighBeam:
			dio.SetLowBeam(true)
			dio.SetHighBeam(true)
		}
	}

	settled := tick.After(nowMS, c.commandChangeTick, config.HeadlightFaultDetectMS)
	if cmd != decision.CommandOff && settled && currentMA < config.OpenLoadMA {
		if c.openLoadCount < config.FaultConfirmCycles {
			c.openLoadCount++
		}
		if c.openLoadCount >= config.FaultConfirmCycles && c.fault == FaultNone {
			c.fault = FaultOpenLoad
			c.report(ports.EventOpenLoad, ports.FaultFailed)
		}
	} else {
		c.openLoadCount = 0
	}

	if currentMA > config.MaxCurrentMA {
		if c.shortCount < config.FaultConfirmCycles {
			c.shortCount++
		}
		if c.shortCount >= config.FaultConfirmCycles && c.fault != FaultShort {
			c.fault = FaultShort
			c.report(ports.EventShort, ports.FaultFailed)
			// Force the outputs off in the confirming cycle too.
			dio.SetLowBeam(false)
			dio.SetHighBeam(false)
		}
	} else {
		c.shortCount = 0
	}

	return c.Status()
}

func (c *Controller) report(event ports.EventID, status ports.FaultStatus) {
	if c.dem != nil {
		c.dem.Report(event, status)
	}
}
