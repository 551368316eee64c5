// Package sensor contains the measurement cycle controller and the fault
// recovery state machine. It has no hardware dependencies: the sensor is
// driven through the Device interface and all waits go through an injectable
// sleep function, so every transition is testable without hardware or real
// time.
package sensor

import (
	"context"
	"time"
)

// State is the lifecycle state of the primary sensor.
type State string

const (
	// Uninitialized means no hardware handle is bound.
	Uninitialized State = "UNINITIALIZED"
	// Ready means the handle is valid and the measurement profile is applied.
	Ready State = "READY"
	// Faulted means an acquisition step just failed and the handle is no
	// longer trusted.
	Faulted State = "FAULTED"
	// PermanentBackoff means repeated reinitialization attempts were
	// exhausted and an extended cooldown is in force.
	PermanentBackoff State = "PERMANENT_BACKOFF"
)

// FailureKind classifies a reported failure.
type FailureKind string

const (
	// FailureTrigger means forcing a measurement failed.
	FailureTrigger FailureKind = "trigger"
	// FailureRead means collecting measurement results failed.
	FailureRead FailureKind = "read"
)

// Sample is one compensated measurement from the primary sensor.
type Sample struct {
	TemperatureC     float64
	HumidityPct      float64
	PressureHPa      float64
	GasResistanceOhm float64
}

// Reading is the unit of output: a primary sample plus an optional soil
// moisture percentage. A Reading only exists when a primary sample does;
// absent moisture is a nil pointer and is omitted from the published record.
type Reading struct {
	Sample
	MoisturePercent *int
	Timestamp       time.Time
}

// Device is the hardware handle driven by the controller and the recovery
// policy. Implemented by the BME680 driver through a thin adapter.
type Device interface {
	// SetAmbientTemperature feeds the previous cycle's temperature back as
	// the heater compensation input.
	SetAmbientTemperature(tempC float64)

	// Trigger starts one forced measurement.
	Trigger() error

	// MeasurementDuration is how long to wait after Trigger before Read,
	// derived from the configured oversampling/filter/heater profile.
	MeasurementDuration() time.Duration

	// Read returns the completed measurement.
	Read() (Sample, error)

	// Close releases the hardware handle.
	Close() error
}

// Opener binds and configures a hardware handle, probing the primary I2C
// address and falling back to the secondary.
type Opener func() (Device, error)

// SleepFunc suspends for d or until ctx is cancelled, reporting whether the
// full duration elapsed. Injectable so tests run without real time.
type SleepFunc func(ctx context.Context, d time.Duration) bool

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// CycleInfo summarizes one controller cycle for observers.
type CycleInfo struct {
	State               State
	ConsecutiveFailures int
	ReinitAttempts      int
	Reading             *Reading
}

// Observer is notified after every controller cycle. Implementations must
// not block; they run on the measurement goroutine.
type Observer interface {
	SensorCycle(CycleInfo)
}
