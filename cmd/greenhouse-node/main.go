// Command greenhouse-node samples climate and soil moisture and publishes
// readings to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/jamesooo/greenhouse-node/internal/adc"
	"github.com/jamesooo/greenhouse-node/internal/bme680"
	"github.com/jamesooo/greenhouse-node/internal/config"
	"github.com/jamesooo/greenhouse-node/internal/led"
	"github.com/jamesooo/greenhouse-node/internal/moisture"
	"github.com/jamesooo/greenhouse-node/internal/mqtt"
	"github.com/jamesooo/greenhouse-node/internal/publish"
	"github.com/jamesooo/greenhouse-node/internal/sensor"
	"github.com/jamesooo/greenhouse-node/internal/status"
	"github.com/jamesooo/greenhouse-node/internal/store"
	"github.com/jamesooo/greenhouse-node/internal/web"
)

// Bucket name for soil calibration values in the on-disk store.
const calibrationNamespace = "soil_cal"

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (empty = built-in defaults)")
	printReading := flag.Bool("print-reading", false, "Take one reading, print it, and exit")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
	}

	if err := run(cfg, *printReading); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, printReading bool) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("init periph host: %w", err)
	}

	opener := bmeOpener(cfg.Sensor.I2CBus)

	if printReading {
		return printOneReading(opener)
	}

	// Calibration store
	st, err := store.OpenBolt(cfg.Storage.Path, calibrationNamespace)
	if err != nil {
		return fmt.Errorf("open calibration store: %w", err)
	}
	defer st.Close()

	// Soil moisture probe. ADC trouble is not fatal: the node keeps publishing
	// climate readings without the soil field.
	var soilReader adc.Reader
	if cfg.Soil.Enabled {
		soilBus, err := i2creg.Open(cfg.Sensor.I2CBus)
		if err != nil {
			log.Printf("soil: open i2c bus: %v (continuing without probe)", err)
		} else if r, err := adc.NewADS1115(soilBus, cfg.Soil.Channel); err != nil {
			log.Printf("soil: init adc: %v (continuing without probe)", err)
			soilBus.Close()
		} else {
			soilReader = r
			defer func() {
				r.Close()
				soilBus.Close()
			}()
		}
	}

	meter := moisture.NewMeter(soilReader, st, moisture.Calibration{
		Dry: cfg.Soil.DryDefault,
		Wet: cfg.Soil.WetDefault,
	})
	meter.LoadCalibration()

	var moistureSource sensor.MoistureSource
	if cfg.Soil.Enabled {
		moistureSource = meter
	}

	// Status tracker
	tracker := status.NewTracker(time.Now(), status.Config{
		DeviceID:   cfg.Device.ID,
		LocationX:  cfg.Device.LocationX,
		LocationY:  cfg.Device.LocationY,
		IntervalMs: cfg.Sensor.IntervalMs,
		Broker:     cfg.MQTT.Broker,
		HTTPAddr:   cfg.HTTP.Addr,
	})
	cal := meter.Calibration()
	tracker.SetCalibration(cal.Dry, cal.Wet)

	// MQTT. Connects in the background; calibration pushes apply immediately
	// and persist through the store.
	client := mqtt.NewRealClient(cfg.MQTT.Broker, cfg.Device.ID, func(u mqtt.CalibrationUpdate) {
		meter.UpdateCalibration(u.DryValue, u.WetValue)
		cal := meter.Calibration()
		tracker.SetCalibration(cal.Dry, cal.Wet)
		log.Printf("calibration updated: dry=%d wet=%d", cal.Dry, cal.Wet)
	})
	defer client.Close()

	gate := publish.NewGate(client, client, cfg.Device.ID, cfg.Device.LocationX, cfg.Device.LocationY)
	gate.Stats = tracker

	// Measurement loop
	policy := sensor.NewPolicy(opener)
	controller := sensor.NewController(policy, moistureSource, gate, time.Duration(cfg.Sensor.IntervalMs)*time.Millisecond)
	controller.Observer = &cycleObserver{tracker: tracker, conn: client}

	if cfg.LED.Enabled {
		drv, err := led.NewRealDriver(cfg.LED.Pin)
		if err != nil {
			log.Printf("led: %v (continuing without status led)", err)
		} else {
			controller.Light = drv
			defer drv.Close()
		}
	}

	// HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("started: device=%s interval=%dms broker=%s", cfg.Device.ID, cfg.Sensor.IntervalMs, cfg.MQTT.Broker)
	controller.Run(ctx)
	log.Printf("shut down")
	return nil
}

// bmeOpener returns an Opener that acquires a fresh bus handle on every
// attempt, so a wedged bus is reopened along with the sensor during recovery.
func bmeOpener(busName string) sensor.Opener {
	return func() (sensor.Device, error) {
		bus, err := i2creg.Open(busName)
		if err != nil {
			return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
		}
		dev, err := bme680.Probe(bus, &bme680.DefaultOpts)
		if err != nil {
			bus.Close()
			return nil, err
		}
		return &bmeDevice{dev: dev, bus: bus}, nil
	}
}

// bmeDevice adapts the driver to the measurement loop and ties the bus
// handle's lifetime to the device's.
type bmeDevice struct {
	dev *bme680.Dev
	bus i2c.BusCloser
}

func (b *bmeDevice) SetAmbientTemperature(tempC float64) { b.dev.SetAmbientTemperature(tempC) }
func (b *bmeDevice) Trigger() error                      { return b.dev.Trigger() }
func (b *bmeDevice) MeasurementDuration() time.Duration  { return b.dev.MeasurementDuration() }

func (b *bmeDevice) Read() (sensor.Sample, error) {
	m, err := b.dev.Read()
	if err != nil {
		return sensor.Sample{}, err
	}
	return sensor.Sample{
		TemperatureC:     m.Temperature,
		HumidityPct:      m.Humidity,
		PressureHPa:      m.Pressure,
		GasResistanceOhm: m.GasResistance,
	}, nil
}

func (b *bmeDevice) Close() error {
	err := b.dev.Close()
	if cerr := b.bus.Close(); err == nil {
		err = cerr
	}
	return err
}

// cycleObserver refreshes the MQTT connection state alongside every cycle
// outcome, so the status endpoint never shows stale connectivity.
type cycleObserver struct {
	tracker *status.Tracker
	conn    mqtt.ConnectionStatus
}

func (o *cycleObserver) SensorCycle(info sensor.CycleInfo) {
	o.tracker.SetMQTTConnected(o.conn.IsConnected())
	o.tracker.SensorCycle(info)
}

func printOneReading(open sensor.Opener) error {
	dev, err := open()
	if err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	defer dev.Close()

	if err := dev.Trigger(); err != nil {
		return fmt.Errorf("trigger measurement: %w", err)
	}
	time.Sleep(dev.MeasurementDuration())

	s, err := dev.Read()
	if err != nil {
		return fmt.Errorf("read results: %w", err)
	}

	fmt.Printf("temperature:    %.2f °C\n", s.TemperatureC)
	fmt.Printf("humidity:       %.2f %%\n", s.HumidityPct)
	fmt.Printf("pressure:       %.2f hPa\n", s.PressureHPa)
	fmt.Printf("gas resistance: %.0f Ω\n", s.GasResistanceOhm)
	return nil
}
