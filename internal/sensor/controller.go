package sensor

import (
	"context"
	"log"
	"time"
)

// The ambient-temperature compensation input for the very first measurement,
// before any cycle has produced a real temperature.
const seedTemperature = 10.0

// MoistureSource reads the calibrated soil moisture percentage.
type MoistureSource interface {
	ReadPercent() (int, error)
}

// Emitter receives completed readings for publication.
type Emitter interface {
	Emit(Reading)
}

// Light is an optional status indicator, lit while the sensor is Ready.
type Light interface {
	Set(on bool) error
}

// Controller drives one sensor read attempt per tick and hands results
// downstream. It runs on a single goroutine; Run exits promptly on context
// cancellation and always releases the hardware handle.
type Controller struct {
	policy   *Policy
	moisture MoistureSource // nil disables moisture sampling
	emitter  Emitter
	interval time.Duration

	// Observer, if set, is notified after every cycle.
	Observer Observer

	// Light, if set, tracks the Ready state.
	Light Light

	lastTemp float64
	sleep    SleepFunc
	now      func() time.Time
}

// NewController creates a Controller ticking at the given interval.
func NewController(policy *Policy, moisture MoistureSource, emitter Emitter, interval time.Duration) *Controller {
	return &Controller{
		policy:   policy,
		moisture: moisture,
		emitter:  emitter,
		interval: interval,
		lastTemp: seedTemperature,
		sleep:    sleep,
		now:      time.Now,
	}
}

// Run loops until ctx is cancelled. Iteration starts are spaced by the
// configured interval measured from the previous start, so the sampling
// cadence stays stable even when hardware calls take variable time.
// Recovery and backoff delays inside a tick may extend the effective
// interval. On exit the hardware handle is released regardless of state.
func (c *Controller) Run(ctx context.Context) {
	log.Printf("sensor: measurement loop started (interval=%v)", c.interval)
	defer func() {
		c.policy.Teardown()
		c.setLight(false)
		log.Printf("sensor: measurement loop stopped")
	}()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single measurement cycle. Safe to call in any sensor
// state: when not Ready it attempts recovery instead of measuring, and no
// Reading is emitted for this tick.
func (c *Controller) RunOnce(ctx context.Context) {
	reading := c.cycle(ctx)

	c.setLight(c.policy.State() == Ready)
	if c.Observer != nil {
		failures, reinits := c.policy.Counters()
		c.Observer.SensorCycle(CycleInfo{
			State:               c.policy.State(),
			ConsecutiveFailures: failures,
			ReinitAttempts:      reinits,
			Reading:             reading,
		})
	}
}

func (c *Controller) cycle(ctx context.Context) *Reading {
	if c.policy.State() != Ready {
		if !c.policy.AttemptRecovery(ctx) {
			return nil
		}
	}

	dev := c.policy.Device()
	dev.SetAmbientTemperature(c.lastTemp)

	if err := dev.Trigger(); err != nil {
		log.Printf("sensor: trigger measurement: %v", err)
		c.backOff(ctx, c.policy.ReportFailure(FailureTrigger))
		return nil
	}

	if !c.sleep(ctx, dev.MeasurementDuration()) {
		return nil
	}

	sample, err := dev.Read()
	if err != nil {
		log.Printf("sensor: read results: %v", err)
		c.backOff(ctx, c.policy.ReportFailure(FailureRead))
		return nil
	}

	c.policy.ReportSuccess()
	c.lastTemp = sample.TemperatureC

	reading := Reading{Sample: sample, Timestamp: c.now()}
	if c.moisture != nil {
		if pct, err := c.moisture.ReadPercent(); err != nil {
			// A failed moisture read does not invalidate the primary sample.
			log.Printf("sensor: soil moisture read: %v", err)
		} else {
			reading.MoisturePercent = &pct
		}
	}

	c.emitter.Emit(reading)
	return &reading
}

func (c *Controller) backOff(ctx context.Context, d time.Duration) {
	if d > 0 {
		c.sleep(ctx, d)
	}
}

func (c *Controller) setLight(on bool) {
	if c.Light == nil {
		return
	}
	if err := c.Light.Set(on); err != nil {
		log.Printf("sensor: status led: %v", err)
	}
}
