package mqtt

import (
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// ConfigHandler receives parsed calibration updates addressed to this device.
type ConfigHandler func(CalibrationUpdate)

// RealClient publishes to an actual MQTT broker. Connection management is
// delegated entirely to the paho client: it retries the initial connect and
// reconnects in the background forever, while the node keeps sampling and
// drops readings until the broker is reachable again.
type RealClient struct {
	client paho.Client
}

// NewRealClient creates a client for the given broker and starts connecting.
// It returns immediately; connection establishment proceeds in the
// background. onConfig, if non-nil, is invoked for every calibration update
// received on this device's config topic.
func NewRealClient(broker, deviceID string, onConfig ConfigHandler) *RealClient {
	configTopic := ConfigTopic(deviceID)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("greenhouse-node-" + deviceID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c paho.Client) {
			log.Printf("mqtt: connected to %s", broker)
			if onConfig == nil {
				return
			}
			// Resubscribe on every (re)connect; the session is not persistent.
			token := c.Subscribe(configTopic, 1, func(_ paho.Client, msg paho.Message) {
				update, err := ParseCalibrationUpdate(msg.Payload())
				if err != nil {
					log.Printf("mqtt: %v", err)
					return
				}
				onConfig(update)
			})
			go func() {
				token.Wait()
				if err := token.Error(); err != nil {
					log.Printf("mqtt: subscribe %s: %v", configTopic, err)
				} else {
					log.Printf("mqtt: subscribed to %s", configTopic)
				}
			}()
		})

	client := paho.NewClient(opts)
	client.Connect()

	return &RealClient{client: client}
}

// Publish enqueues the payload at QoS 1 and returns without waiting for the
// broker. Completion errors are logged; the caller does not retry, the next
// reading supersedes the lost one.
func (c *RealClient) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 1, false, payload)
	if err := token.Error(); err != nil {
		return err
	}
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("mqtt: publish %s: %v", topic, err)
		}
	}()
	return nil
}

// IsConnected reports whether the connection is currently open. It is false
// while the client is reconnecting.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
