package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesooo/greenhouse-node/internal/mqtt"
	"github.com/jamesooo/greenhouse-node/internal/sensor"
)

type countingStats struct {
	published int
	dropped   int
	failed    int
}

func (c *countingStats) ReadingPublished() { c.published++ }
func (c *countingStats) ReadingDropped()   { c.dropped++ }
func (c *countingStats) PublishFailed()    { c.failed++ }

func testReading(moisture *int) sensor.Reading {
	return sensor.Reading{
		Sample: sensor.Sample{
			TemperatureC:     23.5,
			HumidityPct:      61.2,
			PressureHPa:      1013.2,
			GasResistanceOhm: 52000,
		},
		MoisturePercent: moisture,
		Timestamp:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestEmitPublishesClimateAndHeartbeat(t *testing.T) {
	fake := mqtt.NewFakeClient()
	fake.Connected = true
	stats := &countingStats{}
	g := NewGate(fake, fake, "greenhouse-01", 3, 7)
	g.Stats = stats

	moisture := 55
	g.Emit(testReading(&moisture))

	climate := fake.MessagesOn(mqtt.TopicClimate)
	require.Len(t, climate, 1)

	var record mqtt.DataRecord
	require.NoError(t, json.Unmarshal(climate[0], &record))
	assert.Equal(t, "greenhouse-01", record.DeviceID)
	assert.Equal(t, 23.5, record.Temperature)
	assert.Equal(t, 61.2, record.Humidity)
	assert.Equal(t, 1013.2, record.Pressure)
	assert.Equal(t, float64(52000), record.GasResistance)
	require.NotNil(t, record.SoilMoisture)
	assert.Equal(t, 55, *record.SoilMoisture)
	assert.Equal(t, 3, record.LocationX)
	assert.Equal(t, 7, record.LocationY)

	heartbeat := fake.MessagesOn(mqtt.TopicHeartbeat)
	require.Len(t, heartbeat, 1)
	assert.JSONEq(t, `{"device_id":"greenhouse-01","status":"alive"}`, string(heartbeat[0]))

	assert.Equal(t, 1, stats.published)
	assert.Zero(t, stats.dropped)
	assert.Zero(t, stats.failed)
}

func TestEmitOmitsMoistureWhenAbsent(t *testing.T) {
	fake := mqtt.NewFakeClient()
	fake.Connected = true
	g := NewGate(fake, fake, "greenhouse-01", 0, 0)

	g.Emit(testReading(nil))

	climate := fake.MessagesOn(mqtt.TopicClimate)
	require.Len(t, climate, 1)
	assert.NotContains(t, string(climate[0]), "soil_moisture")
}

func TestEmitDropsWhileDisconnected(t *testing.T) {
	fake := mqtt.NewFakeClient()
	fake.Connected = false
	stats := &countingStats{}
	g := NewGate(fake, fake, "greenhouse-01", 0, 0)
	g.Stats = stats

	g.Emit(testReading(nil))

	assert.Empty(t, fake.Messages, "nothing may be handed to the client while disconnected")
	assert.Equal(t, 1, stats.dropped)
	assert.Zero(t, stats.published)
}

func TestEmitCountsPublishFailures(t *testing.T) {
	fake := mqtt.NewFakeClient()
	fake.Connected = true
	fake.PublishError = errors.New("connection reset")
	stats := &countingStats{}
	g := NewGate(fake, fake, "greenhouse-01", 0, 0)
	g.Stats = stats

	g.Emit(testReading(nil))

	assert.Equal(t, 1, stats.failed)
	assert.Zero(t, stats.published)
}

// topicFailingClient fails publishes to one topic and records the rest.
type topicFailingClient struct {
	mqtt.FakeClient
	failTopic string
}

func (c *topicFailingClient) Publish(topic string, payload []byte) error {
	if topic == c.failTopic {
		return errors.New("publish timeout")
	}
	return c.FakeClient.Publish(topic, payload)
}

func TestEmitSendsHeartbeatWhenClimateFails(t *testing.T) {
	fake := &topicFailingClient{failTopic: mqtt.TopicClimate}
	fake.Connected = true
	stats := &countingStats{}
	g := NewGate(fake, &fake.FakeClient, "greenhouse-01", 0, 0)
	g.Stats = stats

	g.Emit(testReading(nil))

	assert.Empty(t, fake.MessagesOn(mqtt.TopicClimate))
	heartbeat := fake.MessagesOn(mqtt.TopicHeartbeat)
	require.Len(t, heartbeat, 1, "heartbeat must still be attempted after a failed climate publish")
	assert.JSONEq(t, `{"device_id":"greenhouse-01","status":"alive"}`, string(heartbeat[0]))

	assert.Equal(t, 1, stats.failed)
	assert.Zero(t, stats.published)
}

func TestEmitWithoutStats(t *testing.T) {
	fake := mqtt.NewFakeClient()
	fake.Connected = true
	g := NewGate(fake, fake, "greenhouse-01", 0, 0)

	// Must not panic with no Stats attached.
	g.Emit(testReading(nil))
	require.Len(t, fake.Messages, 2)
}
