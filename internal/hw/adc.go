//go:build linux

package hw

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
)

// Adc reads the ambient light sensor's raw 12-bit value from a Linux
// IIO sysfs channel. No ADC driver library appears anywhere in the
// retrieval pack, so this one piece of internal/hw is a plain sysfs
// file read rather than a wired third-party dependency; see DESIGN.md
// for that justification.
type Adc struct {
	path string
}

// NewAdc wraps the given IIO raw-value sysfs path, e.g.
// "/sys/bus/iio/devices/iio:device0/in_voltage0_raw".
func NewAdc(sysfsPath string) *Adc {
	return &Adc{path: sysfsPath}
}

func (a *Adc) ReadAmbient() int {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return 0
	}
	v, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return 0
	}
	return v
}

func (a *Adc) String() string { return fmt.Sprintf("Adc(%s)", a.path) }

// headlightCurrentFactorMAPerCount is the ADC-count-to-milliamp scale
// for the shunt feedback channel, carried over from original_source's
// FLM_HEADLIGHT_CURRENT_FACTOR (absent from spec.md, which already
// works in milliamps throughout). Kept on the concrete adapter, not in
// internal/config, so C6 stays testable without a real ADC scale.
const headlightCurrentFactorMAPerCount = 10

// CurrentSense reads the actuator feedback current from a second IIO
// sysfs channel, in raw ADC counts, and converts to milliamps.
type CurrentSense struct {
	path string
}

func NewCurrentSense(sysfsPath string) *CurrentSense {
	return &CurrentSense{path: sysfsPath}
}

func (c *CurrentSense) ReadFeedbackMilliamps() int {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0
	}
	raw, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return 0
	}
	return raw * headlightCurrentFactorMAPerCount
}
