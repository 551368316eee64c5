package moisture

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesooo/greenhouse-node/internal/adc"
	"github.com/jamesooo/greenhouse-node/internal/store"
)

var defaults = Calibration{Dry: 2800, Wet: 1200}

func TestPercentEndpoints(t *testing.T) {
	tests := []struct {
		name string
		raw  int32
		want int
	}{
		{"at dry endpoint", 2800, 0},
		{"beyond dry endpoint", 4095, 0},
		{"at wet endpoint", 1200, 100},
		{"beyond wet endpoint", 0, 100},
		{"midpoint", 2000, 50},
		{"three quarters dry", 2400, 25},
		{"one quarter dry", 1600, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaults.Percent(tt.raw))
		})
	}
}

func TestPercentMonotonicAndBounded(t *testing.T) {
	prev := 101
	for raw := int32(1200); raw <= 2800; raw++ {
		pct := defaults.Percent(raw)
		require.GreaterOrEqual(t, pct, 0)
		require.LessOrEqual(t, pct, 100)
		require.LessOrEqual(t, pct, prev, "raw=%d", raw)
		prev = pct
	}
}

func TestPercentTruncates(t *testing.T) {
	// (2001-1200)*100/1600 = 50.0625 -> interpolation truncates, 100-50 = 50.
	assert.Equal(t, 50, defaults.Percent(2001))
	// (2016-1200)*100/1600 = 51 exactly -> 49.
	assert.Equal(t, 49, defaults.Percent(2016))
}

func TestPercentReversedOrientation(t *testing.T) {
	rev := Calibration{Dry: 1200, Wet: 2800}

	assert.Equal(t, 0, rev.Percent(1200))
	assert.Equal(t, 0, rev.Percent(0))
	assert.Equal(t, 100, rev.Percent(2800))
	assert.Equal(t, 100, rev.Percent(4095))
	assert.Equal(t, 50, rev.Percent(2000))

	for raw := int32(1200); raw <= 2800; raw++ {
		pct := rev.Percent(raw)
		require.GreaterOrEqual(t, pct, 0)
		require.LessOrEqual(t, pct, 100)
	}
}

func TestPercentExtremeEndpoints(t *testing.T) {
	// Spans wider than ~21M raw counts would overflow 32-bit interpolation.
	wide := Calibration{Dry: math.MaxInt32, Wet: math.MinInt32}

	assert.Equal(t, 0, wide.Percent(math.MaxInt32))
	assert.Equal(t, 100, wide.Percent(math.MinInt32))
	assert.Equal(t, 50, wide.Percent(0))

	span := Calibration{Dry: 2_000_000_000, Wet: -2_000_000_000}
	assert.Equal(t, 25, span.Percent(1_000_000_000))
	assert.Equal(t, 75, span.Percent(-1_000_000_000))
}

func TestPercentDegenerateCalibration(t *testing.T) {
	deg := Calibration{Dry: 2000, Wet: 2000}

	assert.Equal(t, 100, deg.Percent(1999))
	assert.Equal(t, 100, deg.Percent(2000))
	assert.Equal(t, 0, deg.Percent(2001))
}

func TestLoadCalibrationEmptyStoreUsesDefaults(t *testing.T) {
	m := NewMeter(nil, store.NewFakeStore(), defaults)
	m.LoadCalibration()

	assert.Equal(t, defaults, m.Calibration())
}

func TestLoadCalibrationPartialFallback(t *testing.T) {
	st := store.NewFakeStore()
	st.Committed[KeyDry] = 3000
	// Wet read fails; dry must still load.
	st.GetErrors = map[string]error{KeyWet: errors.New("corrupt entry")}

	m := NewMeter(nil, st, defaults)
	m.LoadCalibration()

	assert.Equal(t, Calibration{Dry: 3000, Wet: defaults.Wet}, m.Calibration())
}

func TestLoadCalibrationStoredValues(t *testing.T) {
	st := store.NewFakeStore()
	st.Committed[KeyDry] = 2600
	st.Committed[KeyWet] = 1100

	m := NewMeter(nil, st, defaults)
	m.LoadCalibration()

	assert.Equal(t, Calibration{Dry: 2600, Wet: 1100}, m.Calibration())
}

func TestUpdateCalibrationPartial(t *testing.T) {
	st := store.NewFakeStore()
	m := NewMeter(nil, st, defaults)

	dry := int32(2900)
	m.UpdateCalibration(&dry, nil)

	assert.Equal(t, Calibration{Dry: 2900, Wet: defaults.Wet}, m.Calibration())
	// Both current values are persisted together.
	assert.Equal(t, int32(2900), st.Committed[KeyDry])
	assert.Equal(t, defaults.Wet, st.Committed[KeyWet])
	assert.Equal(t, 1, st.Commits)

	wet := int32(1000)
	m.UpdateCalibration(nil, &wet)
	assert.Equal(t, Calibration{Dry: 2900, Wet: 1000}, m.Calibration())
	assert.Equal(t, 2, st.Commits)
}

func TestUpdateCalibrationNoChangeSkipsCommit(t *testing.T) {
	st := store.NewFakeStore()
	m := NewMeter(nil, st, defaults)

	dry := defaults.Dry
	m.UpdateCalibration(&dry, nil)
	assert.Zero(t, st.Commits)

	m.UpdateCalibration(nil, nil)
	assert.Zero(t, st.Commits)
}

func TestUpdateCalibrationCommitFailureKeepsMemoryValues(t *testing.T) {
	st := store.NewFakeStore()
	st.CommitError = errors.New("flash write failed")
	m := NewMeter(nil, st, defaults)

	dry := int32(3100)
	m.UpdateCalibration(&dry, nil)

	// In-memory profile stays updated even though persistence failed.
	assert.Equal(t, int32(3100), m.Calibration().Dry)
	assert.Empty(t, st.Committed)
}

func TestReadPercentUnavailable(t *testing.T) {
	m := NewMeter(nil, store.NewFakeStore(), defaults)

	_, err := m.ReadPercent()
	require.Error(t, err)
}

func TestReadPercentFromProbe(t *testing.T) {
	m := NewMeter(adc.NewFakeReader(2000), store.NewFakeStore(), defaults)

	pct, err := m.ReadPercent()
	require.NoError(t, err)
	assert.Equal(t, 50, pct)
}

func TestReadPercentProbeError(t *testing.T) {
	reader := adc.NewFakeReader(2000)
	reader.ReadError = errors.New("i2c timeout")
	m := NewMeter(reader, store.NewFakeStore(), defaults)

	_, err := m.ReadPercent()
	require.Error(t, err)
}
