// Package mqtt provides MQTT publishing with abstraction for testing, plus
// the record shapes the node exchanges with the broker.
package mqtt

// TopicClimate is the MQTT topic for full sensor readings.
const TopicClimate = "sensor/climate"

// TopicHeartbeat is the MQTT topic for liveness records.
const TopicHeartbeat = "sensor/heartbeat"

const topicConfigPrefix = "sensor/config/"

// ConfigTopic returns the calibration-update topic for a device.
func ConfigTopic(deviceID string) string {
	return topicConfigPrefix + deviceID
}

// Publisher publishes payloads to the broker.
type Publisher interface {
	// Publish hands a payload to the transport. Delivery is fire-and-forget:
	// an error reports only that the message could not be handed off.
	Publish(topic string, payload []byte) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}
