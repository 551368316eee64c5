package main

import (
	"testing"
	"time"

	"github.com/jamesooo/greenhouse-node/internal/mqtt"
	"github.com/jamesooo/greenhouse-node/internal/sensor"
	"github.com/jamesooo/greenhouse-node/internal/status"
)

func TestCycleObserverRefreshesConnectivity(t *testing.T) {
	tracker := status.NewTracker(time.Now(), status.Config{})
	client := mqtt.NewFakeClient()
	obs := &cycleObserver{tracker: tracker, conn: client}

	client.Connected = true
	obs.SensorCycle(sensor.CycleInfo{State: sensor.Ready})

	snap := tracker.Snapshot()
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected=true after cycle")
	}
	if snap.State != sensor.Ready {
		t.Errorf("State: got %q, want READY", snap.State)
	}

	client.Connected = false
	obs.SensorCycle(sensor.CycleInfo{State: sensor.Faulted, ConsecutiveFailures: 0, ReinitAttempts: 1})

	snap = tracker.Snapshot()
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false after disconnect")
	}
	if snap.State != sensor.Faulted {
		t.Errorf("State: got %q, want FAULTED", snap.State)
	}
	if snap.ReinitAttempts != 1 {
		t.Errorf("ReinitAttempts: got %d, want 1", snap.ReinitAttempts)
	}
}

func TestCycleObserverForwardsReading(t *testing.T) {
	tracker := status.NewTracker(time.Now(), status.Config{})
	client := mqtt.NewFakeClient()
	obs := &cycleObserver{tracker: tracker, conn: client}

	reading := sensor.Reading{
		Sample:    sensor.Sample{TemperatureC: 19.5},
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	obs.SensorCycle(sensor.CycleInfo{State: sensor.Ready, Reading: &reading})

	snap := tracker.Snapshot()
	if snap.LastReading == nil {
		t.Fatal("expected LastReading to be recorded")
	}
	if snap.LastReading.TemperatureC != 19.5 {
		t.Errorf("LastReading.TemperatureC: got %v, want 19.5", snap.LastReading.TemperatureC)
	}
}
