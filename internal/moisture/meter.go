// Package moisture converts raw soil probe readings into a calibrated
// 0-100 percentage and manages persistence of the calibration endpoints.
package moisture

import (
	"errors"
	"log"
	"sync"

	"github.com/jamesooo/greenhouse-node/internal/adc"
	"github.com/jamesooo/greenhouse-node/internal/store"
)

// Store keys, matching the firmware's NVS layout.
const (
	KeyDry = "dry_value"
	KeyWet = "wet_value"
)

// Calibration holds the two raw endpoints of the percentage mapping.
// Conventionally Dry > Wet (a drier probe reads higher), but the mapping
// works under either orientation.
type Calibration struct {
	Dry int32
	Wet int32
}

// Percent maps a raw reading to a moisture percentage. Readings at or beyond
// the dry endpoint map to 0, at or beyond the wet endpoint to 100, and
// in between by linear interpolation with integer truncation. A degenerate
// calibration (Dry == Wet) splits at the shared endpoint: at or below it is
// fully wet, above it fully dry.
func (c Calibration) Percent(raw int32) int {
	if c.Dry == c.Wet {
		if raw <= c.Wet {
			return 100
		}
		return 0
	}

	lo, hi := c.Wet, c.Dry
	if lo > hi {
		lo, hi = hi, lo
	}
	if raw < lo {
		raw = lo
	}
	if raw > hi {
		raw = hi
	}

	// Widened so the scaled span cannot overflow for any int32 endpoints.
	return int(100 - (int64(raw)-int64(c.Wet))*100/(int64(c.Dry)-int64(c.Wet)))
}

// Meter reads the soil probe and owns the calibration profile. Calibration
// updates arrive from the MQTT goroutine while the measurement loop reads,
// so the profile is guarded by a mutex.
type Meter struct {
	reader   adc.Reader // nil when the analog subsystem is unavailable
	store    store.Store
	defaults Calibration

	mu  sync.Mutex
	cal Calibration
}

// NewMeter creates a Meter with the given compiled-in default calibration.
// reader may be nil if the analog subsystem failed to initialize; ReadPercent
// then reports the probe as unavailable.
func NewMeter(reader adc.Reader, st store.Store, defaults Calibration) *Meter {
	return &Meter{
		reader:   reader,
		store:    st,
		defaults: defaults,
		cal:      defaults,
	}
}

// LoadCalibration overwrites the profile with persisted values. Each field
// falls back to its compiled default independently, so a missing wet value
// does not invalidate a present dry value.
func (m *Meter) LoadCalibration() {
	cal := m.defaults

	if v, err := m.store.GetInt32(KeyDry); err == nil {
		cal.Dry = v
	} else {
		log.Printf("moisture: no stored %s, using default %d: %v", KeyDry, m.defaults.Dry, err)
	}
	if v, err := m.store.GetInt32(KeyWet); err == nil {
		cal.Wet = v
	} else {
		log.Printf("moisture: no stored %s, using default %d: %v", KeyWet, m.defaults.Wet, err)
	}

	m.mu.Lock()
	m.cal = cal
	m.mu.Unlock()
	log.Printf("moisture: calibration dry=%d wet=%d", cal.Dry, cal.Wet)
}

// ReadPercent samples the probe and returns the calibrated percentage.
func (m *Meter) ReadPercent() (int, error) {
	if m.reader == nil {
		return 0, errUnavailable
	}
	raw, err := m.reader.ReadRaw()
	if err != nil {
		return 0, err
	}
	return m.Calibration().Percent(raw), nil
}

// Calibration returns a snapshot of the current profile.
func (m *Meter) Calibration() Calibration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cal
}

// UpdateCalibration applies the supplied endpoints, leaving nil fields
// untouched. If anything changed, both current values are persisted as one
// atomic commit. A failed commit is logged; the in-memory profile stays
// updated so calibration keeps working for the rest of the session.
func (m *Meter) UpdateCalibration(dry, wet *int32) {
	m.mu.Lock()
	changed := false
	if dry != nil && *dry != m.cal.Dry {
		m.cal.Dry = *dry
		changed = true
	}
	if wet != nil && *wet != m.cal.Wet {
		m.cal.Wet = *wet
		changed = true
	}
	cal := m.cal
	m.mu.Unlock()

	if !changed {
		return
	}
	log.Printf("moisture: calibration updated dry=%d wet=%d", cal.Dry, cal.Wet)

	if err := m.store.SetInt32(KeyDry, cal.Dry); err != nil {
		log.Printf("moisture: stage %s: %v", KeyDry, err)
		return
	}
	if err := m.store.SetInt32(KeyWet, cal.Wet); err != nil {
		log.Printf("moisture: stage %s: %v", KeyWet, err)
		return
	}
	if err := m.store.Commit(); err != nil {
		log.Printf("moisture: persist calibration: %v", err)
	}
}

var errUnavailable = errors.New("soil probe unavailable")
