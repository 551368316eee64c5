// Package bme680 drives a Bosch BME680 environmental sensor over I2C in
// forced mode. Each measurement is explicitly triggered; the caller waits
// MeasurementDuration before reading results, mirroring the sensor's
// trigger/wait/read cycle.
package bme680

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// I2C addresses. Boards wire SDO high (0x77) or low (0x76).
const (
	PrimaryAddr   = 0x77
	SecondaryAddr = 0x76
)

const chipID = 0x61

// Register map (memory page 0, forced-mode subset).
const (
	regMeasStatus0  = 0x1D
	regResHeat0     = 0x5A
	regGasWait0     = 0x64
	regCtrlGas1     = 0x71
	regCtrlHum      = 0x72
	regCtrlMeas     = 0x74
	regConfig       = 0x75
	regCoeff1       = 0x89
	regChipID       = 0xD0
	regReset        = 0xE0
	regCoeff2       = 0xE1
	regResHeatVal   = 0x00
	regResHeatRange = 0x02
	regRangeSwErr   = 0x04
)

const (
	cmdReset   = 0xB6
	modeForced = 0x01
	runGas     = 0x10

	statusNewData = 0x80
	gasValidMask  = 0x20
	heatStabMask  = 0x10
)

// Oversampling selects the number of measurement cycles per sample.
type Oversampling uint8

const (
	OversamplingOff Oversampling = iota
	Oversampling1x
	Oversampling2x
	Oversampling4x
	Oversampling8x
	Oversampling16x
)

// FilterSize selects the IIR filter coefficient for temperature and pressure.
type FilterSize uint8

const (
	FilterOff FilterSize = iota
	Filter1
	Filter3
	Filter7
	Filter15
	Filter31
	Filter63
	Filter127
)

// Opts configures the measurement profile.
type Opts struct {
	Temperature Oversampling
	Pressure    Oversampling
	Humidity    Oversampling
	Filter      FilterSize

	// Gas heater profile (slot 0).
	HeaterTemperature int // target plate temperature, degrees C
	HeaterDuration    time.Duration
}

// DefaultOpts is the maximum-precision profile: 16x oversampling on all
// channels, heaviest IIR filtering, heater at 200C for 100ms.
var DefaultOpts = Opts{
	Temperature:       Oversampling16x,
	Pressure:          Oversampling16x,
	Humidity:          Oversampling16x,
	Filter:            Filter127,
	HeaterTemperature: 200,
	HeaterDuration:    100 * time.Millisecond,
}

// Measurement holds one compensated sample in physical units.
type Measurement struct {
	Temperature   float64 // degrees C
	Humidity      float64 // percent relative humidity
	Pressure      float64 // hPa
	GasResistance float64 // ohm; 0 when the gas measurement was invalid
}

// Dev is an open BME680.
type Dev struct {
	d        i2c.Dev
	opts     Opts
	cal      calibration
	ambient  float64 // ambient temperature input for heater compensation
	duration time.Duration
}

// Probe opens a BME680 at the primary address, falling back to the secondary
// address when nothing answers there.
func Probe(bus i2c.Bus, opts *Opts) (*Dev, error) {
	dev, err := Open(bus, PrimaryAddr, opts)
	if err == nil {
		return dev, nil
	}
	log.Printf("bme680: no sensor at %#x (%v), trying %#x", PrimaryAddr, err, SecondaryAddr)

	dev, err2 := Open(bus, SecondaryAddr, opts)
	if err2 != nil {
		return nil, fmt.Errorf("probe %#x: %w; probe %#x: %v", PrimaryAddr, err, SecondaryAddr, err2)
	}
	return dev, nil
}

// Open resets and configures the sensor at addr.
func Open(bus i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}

	dev := &Dev{
		d:       i2c.Dev{Bus: bus, Addr: addr},
		opts:    *opts,
		ambient: 25,
	}

	id, err := dev.readReg(regChipID)
	if err != nil {
		return nil, fmt.Errorf("read chip id: %w", err)
	}
	if id != chipID {
		return nil, fmt.Errorf("unexpected chip id %#x (want %#x)", id, chipID)
	}

	if err := dev.writeReg(regReset, cmdReset); err != nil {
		return nil, fmt.Errorf("soft reset: %w", err)
	}
	// Let the sensor stabilize after reset before touching configuration.
	time.Sleep(100 * time.Millisecond)

	if err := dev.readCalibration(); err != nil {
		return nil, err
	}
	if err := dev.configure(); err != nil {
		return nil, err
	}
	dev.computeDuration()

	return dev, nil
}

func (d *Dev) configure() error {
	writes := []struct {
		reg, val byte
		what     string
	}{
		{regCtrlHum, byte(d.opts.Humidity) & 0x07, "humidity oversampling"},
		{regConfig, byte(d.opts.Filter) << 2, "iir filter"},
		{regGasWait0, encodeGasWait(d.opts.HeaterDuration), "gas wait"},
		{regResHeat0, d.cal.heaterResistance(d.ambient, d.opts.HeaterTemperature), "heater resistance"},
		{regCtrlGas1, runGas, "gas control"},
		{regCtrlMeas, byte(d.opts.Temperature)<<5 | byte(d.opts.Pressure)<<2, "t/p oversampling"},
	}
	for _, w := range writes {
		if err := d.writeReg(w.reg, w.val); err != nil {
			return fmt.Errorf("configure %s: %w", w.what, err)
		}
	}
	return nil
}

// SetAmbientTemperature sets the ambient temperature used to compensate the
// gas heater resistance. Takes effect on the next Trigger.
func (d *Dev) SetAmbientTemperature(tempC float64) {
	d.ambient = tempC
}

// Trigger starts one forced measurement. Results are available after
// MeasurementDuration has elapsed.
func (d *Dev) Trigger() error {
	if err := d.writeReg(regResHeat0, d.cal.heaterResistance(d.ambient, d.opts.HeaterTemperature)); err != nil {
		return fmt.Errorf("set heater resistance: %w", err)
	}
	mode := byte(d.opts.Temperature)<<5 | byte(d.opts.Pressure)<<2 | modeForced
	if err := d.writeReg(regCtrlMeas, mode); err != nil {
		return fmt.Errorf("force measurement: %w", err)
	}
	return nil
}

// MeasurementDuration returns the worst-case duration of one forced
// measurement for the configured oversampling, filter and heater profile.
func (d *Dev) MeasurementDuration() time.Duration {
	return d.duration
}

// Read returns the compensated results of the last triggered measurement.
// It fails if the measurement has not completed yet.
func (d *Dev) Read() (Measurement, error) {
	buf, err := d.readRegs(regMeasStatus0, 15)
	if err != nil {
		return Measurement{}, fmt.Errorf("read field data: %w", err)
	}
	if buf[0]&statusNewData == 0 {
		return Measurement{}, fmt.Errorf("measurement not ready (status %#x)", buf[0])
	}

	adcP := uint32(buf[2])<<12 | uint32(buf[3])<<4 | uint32(buf[4])>>4
	adcT := uint32(buf[5])<<12 | uint32(buf[6])<<4 | uint32(buf[7])>>4
	adcH := uint16(buf[8])<<8 | uint16(buf[9])
	adcG := uint16(buf[13])<<2 | uint16(buf[14])>>6
	gasRange := buf[14] & 0x0F

	temp, tFine := d.cal.temperature(adcT)
	m := Measurement{
		Temperature: temp,
		Pressure:    d.cal.pressure(adcP, tFine),
		Humidity:    d.cal.humidity(adcH, temp),
	}
	// Gas resistance is only meaningful when the heater reached its target
	// temperature and the conversion completed.
	if buf[14]&gasValidMask != 0 && buf[14]&heatStabMask != 0 {
		m.GasResistance = d.cal.gasResistance(adcG, gasRange)
	}
	return m, nil
}

// Close puts the sensor back into sleep mode. The I2C bus is owned by the
// caller.
func (d *Dev) Close() error {
	mode := byte(d.opts.Temperature)<<5 | byte(d.opts.Pressure)<<2
	if err := d.writeReg(regCtrlMeas, mode); err != nil {
		return fmt.Errorf("enter sleep mode: %w", err)
	}
	return nil
}

// computeDuration implements the Bosch reference timing model: 1963us per
// measurement cycle plus fixed TPH switching, gas measurement and wake-up
// costs, rounded up, plus the heater dwell time.
func (d *Dev) computeDuration() {
	cycles := osCycles[d.opts.Temperature] + osCycles[d.opts.Pressure] + osCycles[d.opts.Humidity]

	us := cycles * 1963
	us += 477 * 4 // TPH switching
	us += 477 * 5 // gas measurement
	us += 500     // wake-up

	d.duration = time.Duration(us/1000+1)*time.Millisecond + d.opts.HeaterDuration
}

var osCycles = [...]uint32{0, 1, 2, 4, 8, 16}

// encodeGasWait packs a heater dwell duration into the gas_wait register
// format: a 6-bit millisecond count with a 2-bit x1/x4/x16/x64 multiplier.
func encodeGasWait(dur time.Duration) byte {
	ms := dur.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	var factor byte
	for ms > 63 && factor < 3 {
		ms /= 4
		factor++
	}
	if ms > 63 {
		ms = 63
	}
	return factor<<6 | byte(ms)
}

func (d *Dev) readReg(reg byte) (byte, error) {
	var buf [1]byte
	if err := d.d.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (d *Dev) readRegs(reg byte, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := d.d.Tx([]byte{reg}, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *Dev) writeReg(reg, val byte) error {
	return d.d.Tx([]byte{reg, val}, nil)
}
