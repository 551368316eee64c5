package mqtt

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigTopic(t *testing.T) {
	got := ConfigTopic("greenhouse-01")
	want := "sensor/config/greenhouse-01"
	if got != want {
		t.Errorf("ConfigTopic = %q, want %q", got, want)
	}
}

func TestFormatDataRecord(t *testing.T) {
	moisture := 42
	payload, err := FormatDataRecord(DataRecord{
		DeviceID:      "greenhouse-01",
		Temperature:   23.5,
		Humidity:      61.2,
		Pressure:      1013.2,
		GasResistance: 52000,
		SoilMoisture:  &moisture,
		LocationX:     3,
		LocationY:     7,
	})
	if err != nil {
		t.Fatalf("FormatDataRecord failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}

	checks := map[string]interface{}{
		"device_id":      "greenhouse-01",
		"temperature":    23.5,
		"humidity":       61.2,
		"pressure":       1013.2,
		"gas_resistance": 52000.0,
		"soil_moisture":  42.0,
		"location_x":     3.0,
		"location_y":     7.0,
	}
	for key, want := range checks {
		if got, ok := decoded[key]; !ok {
			t.Errorf("payload missing %q", key)
		} else if got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
}

func TestFormatDataRecordOmitsMissingMoisture(t *testing.T) {
	payload, err := FormatDataRecord(DataRecord{DeviceID: "greenhouse-01"})
	if err != nil {
		t.Fatalf("FormatDataRecord failed: %v", err)
	}
	if strings.Contains(string(payload), "soil_moisture") {
		t.Errorf("payload must not mention soil_moisture when no sample exists: %s", payload)
	}
}

func TestFormatDataRecordKeepsZeroMoisture(t *testing.T) {
	zero := 0
	payload, err := FormatDataRecord(DataRecord{DeviceID: "greenhouse-01", SoilMoisture: &zero})
	if err != nil {
		t.Fatalf("FormatDataRecord failed: %v", err)
	}
	if !strings.Contains(string(payload), `"soil_moisture":0`) {
		t.Errorf("a valid 0%% sample must be encoded: %s", payload)
	}
}

func TestFormatLivenessRecord(t *testing.T) {
	payload, err := FormatLivenessRecord("greenhouse-01")
	if err != nil {
		t.Fatalf("FormatLivenessRecord failed: %v", err)
	}
	want := `{"device_id":"greenhouse-01","status":"alive"}`
	if string(payload) != want {
		t.Errorf("payload = %s, want %s", payload, want)
	}
}

func TestParseCalibrationUpdate(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantDry *int32
		wantWet *int32
		wantErr bool
	}{
		{
			name:    "both endpoints",
			payload: `{"dry_value":2900,"wet_value":1100}`,
			wantDry: int32p(2900),
			wantWet: int32p(1100),
		},
		{
			name:    "dry only",
			payload: `{"dry_value":2700}`,
			wantDry: int32p(2700),
		},
		{
			name:    "wet only",
			payload: `{"wet_value":1300}`,
			wantWet: int32p(1300),
		},
		{
			name:    "empty object leaves both unset",
			payload: `{}`,
		},
		{
			name:    "unknown fields ignored",
			payload: `{"dry_value":2800,"firmware":"v2"}`,
			wantDry: int32p(2800),
		},
		{
			name:    "malformed JSON",
			payload: `{"dry_value":`,
			wantErr: true,
		},
		{
			name:    "wrong value type",
			payload: `{"dry_value":"high"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := ParseCalibrationUpdate([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected parse error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCalibrationUpdate failed: %v", err)
			}
			checkInt32p(t, "dry_value", update.DryValue, tt.wantDry)
			checkInt32p(t, "wet_value", update.WetValue, tt.wantWet)
		})
	}
}

func int32p(v int32) *int32 {
	return &v
}

func checkInt32p(t *testing.T, name string, got, want *int32) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("%s = %d, want unset", name, *got)
	case want != nil && got == nil:
		t.Errorf("%s unset, want %d", name, *want)
	case want != nil && got != nil && *got != *want:
		t.Errorf("%s = %d, want %d", name, *got, *want)
	}
}

func TestFakeClientRecordsMessages(t *testing.T) {
	fake := NewFakeClient()

	if err := fake.Publish(TopicClimate, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := fake.Publish(TopicHeartbeat, []byte(`{"b":2}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(fake.Messages) != 2 {
		t.Fatalf("recorded %d messages, want 2", len(fake.Messages))
	}
	climate := fake.MessagesOn(TopicClimate)
	if len(climate) != 1 || string(climate[0]) != `{"a":1}` {
		t.Errorf("MessagesOn(climate) = %v", climate)
	}

	fake.Reset()
	if len(fake.Messages) != 0 {
		t.Error("Reset must clear recorded messages")
	}
}
