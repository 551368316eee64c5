package adc

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

// ADS1115 reads a single-ended channel of a TI ADS1115 converter. The soil
// probe's analog output swings 0-3.3V, so the pin is configured for a 3.3V
// full-scale range.
type ADS1115 struct {
	pin ads1x15.PinADC
}

var channels = [...]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// NewADS1115 configures channel (0-3) of an ADS1115 on the given bus at the
// default address 0x48.
func NewADS1115(bus i2c.Bus, channel int) (*ADS1115, error) {
	if channel < 0 || channel >= len(channels) {
		return nil, fmt.Errorf("adc channel %d out of range 0-3", channel)
	}

	dev, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("init ads1115: %w", err)
	}

	pin, err := dev.PinForChannel(channels[channel], 3300*physic.MilliVolt, 1*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		return nil, fmt.Errorf("configure channel %d: %w", channel, err)
	}

	return &ADS1115{pin: pin}, nil
}

// ReadRaw performs a single conversion and returns the raw counter value.
func (a *ADS1115) ReadRaw() (int32, error) {
	sample, err := a.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}
	return sample.Raw, nil
}

// Close halts the converter. The I2C bus is owned by the caller.
func (a *ADS1115) Close() error {
	return a.pin.Halt()
}
