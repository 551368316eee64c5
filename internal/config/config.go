// Package config loads the node configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level node configuration.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Sensor  SensorConfig  `yaml:"sensor"`
	Soil    SoilConfig    `yaml:"soil"`
	Storage StorageConfig `yaml:"storage"`
	LED     LEDConfig     `yaml:"led"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// DeviceConfig identifies this node and its position in the greenhouse grid.
type DeviceConfig struct {
	ID        string `yaml:"id"`
	LocationX int    `yaml:"location_x"`
	LocationY int    `yaml:"location_y"`
}

// MQTTConfig points at the broker.
type MQTTConfig struct {
	Broker string `yaml:"broker"`
}

// SensorConfig controls the environmental sensor and sampling cadence.
type SensorConfig struct {
	I2CBus     string `yaml:"i2c_bus"`
	IntervalMs int64  `yaml:"interval_ms"`
}

// SoilConfig controls the moisture probe and its default calibration.
// The defaults apply only until stored or pushed calibration overrides them.
type SoilConfig struct {
	Enabled    bool  `yaml:"enabled"`
	Channel    int   `yaml:"channel"`
	DryDefault int32 `yaml:"dry_default"`
	WetDefault int32 `yaml:"wet_default"`
}

// StorageConfig locates the calibration database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LEDConfig controls the status LED.
type LEDConfig struct {
	Enabled bool `yaml:"enabled"`
	Pin     int  `yaml:"pin"`
}

// HTTPConfig controls the status endpoint.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Device: DeviceConfig{ID: "greenhouse-node"},
		MQTT:   MQTTConfig{Broker: "tcp://localhost:1883"},
		Sensor: SensorConfig{I2CBus: "1", IntervalMs: 1000},
		Soil: SoilConfig{
			Enabled:    true,
			Channel:    0,
			DryDefault: 2800,
			WetDefault: 1200,
		},
		Storage: StorageConfig{Path: "/var/lib/greenhouse-node/calibration.db"},
		LED:     LEDConfig{Enabled: true, Pin: 17},
		HTTP:    HTTPConfig{Addr: ":8080"},
	}
}

// Load reads the configuration file at path, applying defaults for any
// fields the file leaves unset.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.Device.ID == "" {
		return fmt.Errorf("config: device.id must not be empty")
	}
	if c.MQTT.Broker == "" {
		return fmt.Errorf("config: mqtt.broker must not be empty")
	}
	if c.Sensor.IntervalMs <= 0 {
		return fmt.Errorf("config: sensor.interval_ms must be positive, got %d", c.Sensor.IntervalMs)
	}
	if c.Soil.Channel < 0 || c.Soil.Channel > 3 {
		return fmt.Errorf("config: soil.channel must be 0-3, got %d", c.Soil.Channel)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("config: storage.path must not be empty")
	}
	return nil
}
