//go:build linux

package led

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealDriver drives the LED on actual hardware using Linux GPIO character device.
type RealDriver struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealDriver creates an LED driver for actual Raspberry Pi hardware.
// The line starts low (LED off).
func NewRealDriver(pin int) (*RealDriver, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request led pin %d: %w", pin, err)
	}

	return &RealDriver{chip: chip, line: line}, nil
}

// Set drives the LED on or off.
func (d *RealDriver) Set(on bool) error {
	value := 0
	if on {
		value = 1
	}
	if err := d.line.SetValue(value); err != nil {
		return fmt.Errorf("set led pin: %w", err)
	}
	return nil
}

// Close turns the LED off and releases GPIO resources.
// Reconfigures the pin to input with pull-down (matching Pi boot defaults)
// before closing to ensure clean state for system shutdown/reboot.
func (d *RealDriver) Close() error {
	var errs []error

	if d.line != nil {
		if err := d.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear led pin: %w", err))
		}
		if err := d.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure led pin: %w", err))
		}
		if err := d.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pin: %w", err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
