// Package ambient implements C4, the ambient-light conditioner:
// circular averaging, open/short detection, and rate-of-change
// plausibility with debounce, per spec §4.4.
package ambient

import (
	"github.com/flm/core/internal/config"
	"github.com/flm/core/internal/ports"
)

// SignalStatus classifies the ambient sensor's electrical health.
// SignalOK is the zero value.
type SignalStatus int

const (
	SignalOK SignalStatus = iota
	SignalOpenCircuit
	SignalShortCircuit
)

func (s SignalStatus) String() string {
	switch s {
	case SignalOpenCircuit:
		return "OPEN_CIRCUIT"
	case SignalShortCircuit:
		return "SHORT_CIRCUIT"
	default:
		return "OK"
	}
}

// Light is the by-value snapshot C5 and C7 read.
type Light struct {
	ADC     int
	Lux     int
	IsValid bool
	Signal  SignalStatus
}

// rateCheckEveryNCycles is AMBIENT rate check period (~100ms) divided by
// the component's own 20ms period, per §4.4 step 5.
const rateCheckEveryNCycles = 5

// Conditioner owns C4's state exclusively.
type Conditioner struct {
	samples    [config.AverageWindow]int
	writeIndex int
	sampleCount int

	filtered         int
	previousFiltered int

	cycleCounter            int
	plausibilityErrorCount  int
	plausibilityFault       bool

	signal SignalStatus

	dem  ports.DemSink
	wdgm ports.WdgMSink
}

func New(dem ports.DemSink, wdgm ports.WdgMSink) *Conditioner {
	return &Conditioner{dem: dem, wdgm: wdgm}
}

// Tick runs one C4 main-function cycle, per §4.4.
func (c *Conditioner) Tick(adc ports.AdcPort) Light {
	if c.wdgm != nil {
		c.wdgm.ReportCheckpoint("AmbientConditioner", 0)
	}

	sample := adc.ReadAmbient()

	idx := c.writeIndex % config.AverageWindow
	c.samples[idx] = sample
	c.writeIndex++
	if c.sampleCount < config.AverageWindow {
		c.sampleCount++
	}

	sum := 0
	n := c.sampleCount
	if n > config.AverageWindow {
		n = config.AverageWindow
	}
	for i := 0; i < n; i++ {
		sum += c.samples[i]
	}
	if n > 0 {
		c.filtered = sum / n
	} else {
		c.filtered = 0
	}

	prevSignal := c.signal
	switch {
	case c.filtered < config.AmbientOpenADC:
		c.signal = SignalOpenCircuit
	case c.filtered > config.AmbientShortADC:
		c.signal = SignalShortCircuit
	default:
		c.signal = SignalOK
	}
	if c.signal != prevSignal {
		c.reportSignalEdge(prevSignal, c.signal)
	}

	c.cycleCounter++
	if c.cycleCounter >= rateCheckEveryNCycles {
		c.cycleCounter = 0
		delta := c.filtered - c.previousFiltered
		if delta < 0 {
			delta = -delta
		}
		wasFault := c.plausibilityFault
		if delta > config.AmbientRateLimit {
			if c.plausibilityErrorCount < 3 {
				c.plausibilityErrorCount++
			}
			if c.plausibilityErrorCount >= 3 {
				c.plausibilityFault = true
			}
		} else {
			c.plausibilityErrorCount = 0
			c.plausibilityFault = false
		}
		if c.plausibilityFault != wasFault {
			status := ports.FaultPassed
			if c.plausibilityFault {
				status = ports.FaultFailed
			}
			c.report(ports.EventAmbientPlausibility, status)
		}
		c.previousFiltered = c.filtered
	}

	isValid := c.signal == SignalOK && !c.plausibilityFault && c.sampleCount >= config.AverageWindow

	return Light{
		ADC:     c.filtered,
		Lux:     c.filtered / 4,
		IsValid: isValid,
		Signal:  c.signal,
	}
}

func (c *Conditioner) reportSignalEdge(from, to SignalStatus) {
	if from == SignalOpenCircuit {
		c.report(ports.EventAmbientOpen, ports.FaultPassed)
	}
	if from == SignalShortCircuit {
		c.report(ports.EventAmbientShort, ports.FaultPassed)
	}
	if to == SignalOpenCircuit {
		c.report(ports.EventAmbientOpen, ports.FaultFailed)
	}
	if to == SignalShortCircuit {
		c.report(ports.EventAmbientShort, ports.FaultFailed)
	}
}

func (c *Conditioner) report(event ports.EventID, status ports.FaultStatus) {
	if c.dem != nil {
		c.dem.Report(event, status)
	}
}
