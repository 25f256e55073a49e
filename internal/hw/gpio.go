//go:build linux

// Package hw provides the concrete boundary adapters the simulation
// harness in internal/sim stands in for: real GPIO-driven headlight
// relays via go-gpiocdev, and a real socketcan bus receiver via
// go.einride.tech/can.
package hw

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Dio drives the two headlight relay lines over the Linux GPIO
// character device ABI. Lines are requested once at construction and
// held for the process lifetime.
type Dio struct {
	chip     *gpiocdev.Chip
	lowLine  *gpiocdev.Line
	highLine *gpiocdev.Line
}

// NewDio opens gpiochip0 and requests pinLow/pinHigh as outputs,
// initially off.
func NewDio(pinLow, pinHigh int) (*Dio, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	lowLine, err := chip.RequestLine(pinLow, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("flmcore"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request low-beam line %d: %w", pinLow, err)
	}

	highLine, err := chip.RequestLine(pinHigh, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("flmcore"))
	if err != nil {
		lowLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request high-beam line %d: %w", pinHigh, err)
	}

	return &Dio{chip: chip, lowLine: lowLine, highLine: highLine}, nil
}

func (d *Dio) SetLowBeam(on bool)  { d.set(d.lowLine, on) }
func (d *Dio) SetHighBeam(on bool) { d.set(d.highLine, on) }

func (d *Dio) set(line *gpiocdev.Line, on bool) {
	v := 0
	if on {
		v = 1
	}
	_ = line.SetValue(v)
}

// Close reconfigures both lines off and releases the chip.
func (d *Dio) Close() error {
	var errs []error
	if d.lowLine != nil {
		_ = d.lowLine.SetValue(0)
		if err := d.lowLine.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.highLine != nil {
		_ = d.highLine.SetValue(0)
		if err := d.highLine.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
