package status

import (
	"encoding/json"
	"time"

	"github.com/jamesooo/greenhouse-node/internal/sensor"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	State               string          `json:"state"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	ReinitAttempts      int             `json:"reinit_attempts"`
	UptimeSeconds       int64           `json:"uptime_seconds"`
	StartTime           string          `json:"start_time"`
	Timestamp           string          `json:"timestamp"`
	MQTT                MQTTStatus      `json:"mqtt"`
	LastReading         *ReadingJSON    `json:"last_reading,omitempty"`
	Calibration         CalibrationJSON `json:"calibration"`
	Counts              CountsJSON      `json:"publish_counts"`
	Config              ConfigJSON      `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ReadingJSON is the JSON representation of the most recent reading.
type ReadingJSON struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	GasResistance float64 `json:"gas_resistance"`
	SoilMoisture  *int    `json:"soil_moisture,omitempty"`
	Timestamp     string  `json:"timestamp"`
}

// CalibrationJSON is the JSON representation of the soil probe endpoints.
type CalibrationJSON struct {
	DryValue int32 `json:"dry_value"`
	WetValue int32 `json:"wet_value"`
}

// CountsJSON is the JSON representation of publication counts.
type CountsJSON struct {
	Published       int `json:"published"`
	Dropped         int `json:"dropped"`
	PublishFailures int `json:"publish_failures"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	DeviceID   string `json:"device_id"`
	LocationX  int    `json:"location_x"`
	LocationY  int    `json:"location_y"`
	IntervalMs int64  `json:"interval_ms"`
	Broker     string `json:"broker"`
	HTTPAddr   string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = string(sensor.Uninitialized)
	}

	inner := StatusInner{
		State:               state,
		ConsecutiveFailures: snap.ConsecutiveFailures,
		ReinitAttempts:      snap.ReinitAttempts,
		UptimeSeconds:       int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:           snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:           snap.Now.UTC().Format(time.RFC3339),
		MQTT:                MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Calibration:         CalibrationJSON{DryValue: snap.Calibration.Dry, WetValue: snap.Calibration.Wet},
		Counts: CountsJSON{
			Published:       snap.Counts.Published,
			Dropped:         snap.Counts.Dropped,
			PublishFailures: snap.Counts.PublishFailures,
		},
		Config: ConfigJSON{
			DeviceID:   snap.Config.DeviceID,
			LocationX:  snap.Config.LocationX,
			LocationY:  snap.Config.LocationY,
			IntervalMs: snap.Config.IntervalMs,
			Broker:     snap.Config.Broker,
			HTTPAddr:   snap.Config.HTTPAddr,
		},
	}

	if snap.LastReading != nil {
		inner.LastReading = &ReadingJSON{
			Temperature:   snap.LastReading.TemperatureC,
			Humidity:      snap.LastReading.HumidityPct,
			Pressure:      snap.LastReading.PressureHPa,
			GasResistance: snap.LastReading.GasResistanceOhm,
			SoilMoisture:  snap.LastReading.MoisturePercent,
			Timestamp:     snap.LastReading.Timestamp.UTC().Format(time.RFC3339),
		}
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
