// Package status provides a thread-safe status tracker for the node daemon.
// It is fed by the measurement loop and the publish gate, and read by HTTP
// handlers.
package status

import (
	"sync"
	"time"

	"github.com/jamesooo/greenhouse-node/internal/sensor"
)

// Calibration holds the soil probe endpoints. This is a local copy to avoid
// importing internal/moisture from status.
type Calibration struct {
	Dry int32
	Wet int32
}

// Counts tracks publication outcomes since startup.
type Counts struct {
	Published       int
	Dropped         int
	PublishFailures int
}

// Config contains daemon configuration for display.
type Config struct {
	DeviceID   string
	LocationX  int
	LocationY  int
	IntervalMs int64
	Broker     string
	HTTPAddr   string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State               sensor.State
	ConsecutiveFailures int
	ReinitAttempts      int
	LastReading         *sensor.Reading
	Calibration         Calibration
	Counts              Counts
	StartTime           time.Time
	Now                 time.Time
	MQTTConnected       bool
	Config              Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     sensor.Uninitialized,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SensorCycle records the outcome of a measurement cycle. The last reading
// is retained across cycles that produce none, so the endpoint keeps showing
// the most recent data during recovery.
func (t *Tracker) SensorCycle(info sensor.CycleInfo) {
	t.mu.Lock()
	t.snap.State = info.State
	t.snap.ConsecutiveFailures = info.ConsecutiveFailures
	t.snap.ReinitAttempts = info.ReinitAttempts
	if info.Reading != nil {
		r := *info.Reading
		t.snap.LastReading = &r
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetCalibration records the active soil probe endpoints.
func (t *Tracker) SetCalibration(dry, wet int32) {
	t.mu.Lock()
	t.snap.Calibration = Calibration{Dry: dry, Wet: wet}
	t.mu.Unlock()
}

// ReadingPublished counts a reading delivered to the broker.
func (t *Tracker) ReadingPublished() {
	t.mu.Lock()
	t.snap.Counts.Published++
	t.mu.Unlock()
}

// ReadingDropped counts a reading discarded while disconnected.
func (t *Tracker) ReadingDropped() {
	t.mu.Lock()
	t.snap.Counts.Dropped++
	t.mu.Unlock()
}

// PublishFailed counts a publish attempt that errored.
func (t *Tracker) PublishFailed() {
	t.mu.Lock()
	t.snap.Counts.PublishFailures++
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
