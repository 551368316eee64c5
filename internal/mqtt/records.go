package mqtt

import (
	"encoding/json"
	"fmt"
)

// DataRecord is the outbound climate reading. SoilMoisture is omitted from
// the encoded form when the probe had no valid sample.
type DataRecord struct {
	DeviceID      string  `json:"device_id"`
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	GasResistance float64 `json:"gas_resistance"`
	SoilMoisture  *int    `json:"soil_moisture,omitempty"`
	LocationX     int     `json:"location_x"`
	LocationY     int     `json:"location_y"`
}

// LivenessRecord is the fixed-content heartbeat.
type LivenessRecord struct {
	DeviceID string `json:"device_id"`
	Status   string `json:"status"`
}

// StatusAlive is the only liveness status the node reports.
const StatusAlive = "alive"

// FormatDataRecord creates the JSON payload for a climate reading.
func FormatDataRecord(r DataRecord) ([]byte, error) {
	return json.Marshal(r)
}

// FormatLivenessRecord creates the JSON payload for a heartbeat.
func FormatLivenessRecord(deviceID string) ([]byte, error) {
	return json.Marshal(LivenessRecord{DeviceID: deviceID, Status: StatusAlive})
}

// CalibrationUpdate is an inbound calibration message. Absent fields are nil
// and leave the corresponding endpoint untouched.
type CalibrationUpdate struct {
	DryValue *int32 `json:"dry_value"`
	WetValue *int32 `json:"wet_value"`
}

// ParseCalibrationUpdate decodes a config message payload.
func ParseCalibrationUpdate(payload []byte) (CalibrationUpdate, error) {
	var u CalibrationUpdate
	if err := json.Unmarshal(payload, &u); err != nil {
		return CalibrationUpdate{}, fmt.Errorf("parse config message: %w", err)
	}
	return u, nil
}
