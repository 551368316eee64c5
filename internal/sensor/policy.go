package sensor

import (
	"context"
	"log"
	"time"
)

// Failure thresholds. Three consecutive acquisition failures condemn the
// transaction path and tear the device down; five failed bring-up attempts
// trigger the extended cooldown. The node never stops retrying, it only
// slows down.
const (
	maxConsecutiveFailures = 3
	maxReinitAttempts      = 5
)

// Policy owns the sensor lifecycle state and decides retry versus
// reinitialize versus backoff. It is not safe for concurrent use; the
// controller is its only caller.
type Policy struct {
	open Opener

	state State
	dev   Device

	consecutiveFailures int
	reinitAttempts      int

	// Delay schedule, overridable in tests. Defaults follow the firmware:
	// short retry below the failure threshold, cooldown before bring-up,
	// a longer pause between failed bring-up attempts, and an extended
	// cooldown once those are exhausted.
	RetryDelay       time.Duration
	InitCooldown     time.Duration
	InitRetryDelay   time.Duration
	ExtendedCooldown time.Duration

	sleep SleepFunc
}

// NewPolicy creates a Policy in the Uninitialized state.
func NewPolicy(open Opener) *Policy {
	return &Policy{
		open:             open,
		state:            Uninitialized,
		RetryDelay:       500 * time.Millisecond,
		InitCooldown:     2 * time.Second,
		InitRetryDelay:   3 * time.Second,
		ExtendedCooldown: 10 * time.Second,
		sleep:            sleep,
	}
}

// State returns the current lifecycle state.
func (p *Policy) State() State {
	return p.state
}

// Device returns the current hardware handle, valid only while Ready.
func (p *Policy) Device() Device {
	return p.dev
}

// Counters returns the current error history.
func (p *Policy) Counters() (consecutiveFailures, reinitAttempts int) {
	return p.consecutiveFailures, p.reinitAttempts
}

// ReportFailure records an acquisition failure while nominally Ready.
// At the failure threshold the device is torn down and the sensor becomes
// Faulted; below it the returned delay should be applied by the caller
// before the next attempt.
func (p *Policy) ReportFailure(kind FailureKind) time.Duration {
	p.consecutiveFailures++
	if p.consecutiveFailures < maxConsecutiveFailures {
		return p.RetryDelay
	}

	log.Printf("sensor: %d consecutive %s failures, tearing down for reinitialization",
		p.consecutiveFailures, kind)
	p.closeDevice()
	p.state = Faulted
	p.consecutiveFailures = 0
	return 0
}

// ReportSuccess records a successful full measurement, clearing the error
// history.
func (p *Policy) ReportSuccess() {
	p.consecutiveFailures = 0
	p.reinitAttempts = 0
}

// AttemptRecovery tries to bring the sensor to Ready from any non-Ready
// state: tear down partial hardware state, cool down, reopen. Returns true
// when the sensor is Ready. Cancelling ctx aborts any wait promptly.
func (p *Policy) AttemptRecovery(ctx context.Context) bool {
	if p.state == Ready {
		return true
	}

	p.closeDevice()
	if !p.sleep(ctx, p.InitCooldown) {
		return false
	}

	dev, err := p.open()
	if err != nil {
		p.reinitAttempts++
		log.Printf("sensor: initialization failed (attempt %d): %v", p.reinitAttempts, err)

		if p.reinitAttempts >= maxReinitAttempts {
			log.Printf("sensor: %d failed attempts, backing off for %v",
				p.reinitAttempts, p.ExtendedCooldown)
			p.state = PermanentBackoff
			p.sleep(ctx, p.ExtendedCooldown)
			p.reinitAttempts = 0
			p.state = Uninitialized
			return false
		}

		p.state = Uninitialized
		p.sleep(ctx, p.InitRetryDelay)
		return false
	}

	p.dev = dev
	p.state = Ready
	p.consecutiveFailures = 0
	p.reinitAttempts = 0
	log.Printf("sensor: initialized, measurement duration %v", dev.MeasurementDuration())
	return true
}

// Teardown releases the hardware handle unconditionally and returns the
// sensor to Uninitialized. Safe to call in any state.
func (p *Policy) Teardown() {
	p.closeDevice()
	p.state = Uninitialized
}

func (p *Policy) closeDevice() {
	if p.dev == nil {
		return
	}
	if err := p.dev.Close(); err != nil {
		log.Printf("sensor: close device: %v", err)
	}
	p.dev = nil
}
