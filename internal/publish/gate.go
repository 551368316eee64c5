// Package publish turns completed sensor readings into MQTT records.
package publish

import (
	"log"

	"github.com/jamesooo/greenhouse-node/internal/mqtt"
	"github.com/jamesooo/greenhouse-node/internal/sensor"
)

// Stats receives publication outcomes, one call per reading.
type Stats interface {
	ReadingPublished()
	ReadingDropped()
	PublishFailed()
}

// Gate publishes each reading as a climate record plus a heartbeat, but only
// while the broker connection is up. Readings that arrive while disconnected
// are dropped outright; there is no queue, the next reading supersedes the
// lost one.
type Gate struct {
	client mqtt.Publisher
	status mqtt.ConnectionStatus

	deviceID  string
	locationX int
	locationY int

	// Stats, if set, is notified of every outcome.
	Stats Stats
}

// NewGate creates a Gate stamping records with the given device identity.
func NewGate(client mqtt.Publisher, status mqtt.ConnectionStatus, deviceID string, locationX, locationY int) *Gate {
	return &Gate{
		client:    client,
		status:    status,
		deviceID:  deviceID,
		locationX: locationX,
		locationY: locationY,
	}
}

// Emit publishes the reading. It never blocks the measurement loop on broker
// trouble: failures are logged and counted, nothing is retried.
func (g *Gate) Emit(r sensor.Reading) {
	if !g.status.IsConnected() {
		log.Printf("publish: broker not connected, dropping reading")
		g.dropped()
		return
	}

	record := mqtt.DataRecord{
		DeviceID:      g.deviceID,
		Temperature:   r.TemperatureC,
		Humidity:      r.HumidityPct,
		Pressure:      r.PressureHPa,
		GasResistance: r.GasResistanceOhm,
		SoilMoisture:  r.MoisturePercent,
		LocationX:     g.locationX,
		LocationY:     g.locationY,
	}

	ok := true
	if data, err := mqtt.FormatDataRecord(record); err != nil {
		log.Printf("publish: format climate record: %v", err)
		ok = false
	} else if err := g.client.Publish(mqtt.TopicClimate, data); err != nil {
		log.Printf("publish: climate record: %v", err)
		ok = false
	}

	// The heartbeat goes out regardless of the climate record's fate: a node
	// whose data publish failed is still alive.
	if heartbeat, err := mqtt.FormatLivenessRecord(g.deviceID); err != nil {
		log.Printf("publish: format liveness record: %v", err)
		ok = false
	} else if err := g.client.Publish(mqtt.TopicHeartbeat, heartbeat); err != nil {
		log.Printf("publish: liveness record: %v", err)
		ok = false
	}

	if ok {
		g.published()
	} else {
		g.failed()
	}
}

func (g *Gate) published() {
	if g.Stats != nil {
		g.Stats.ReadingPublished()
	}
}

func (g *Gate) dropped() {
	if g.Stats != nil {
		g.Stats.ReadingDropped()
	}
}

func (g *Gate) failed() {
	if g.Stats != nil {
		g.Stats.PublishFailed()
	}
}
