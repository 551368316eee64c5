// Package adc provides raw analog sampling for the soil moisture probe with
// hardware abstraction. The real implementation reads an ADS1115 converter
// over I2C; the fake allows testing without hardware.
package adc

// Reader reads raw analog samples.
type Reader interface {
	// ReadRaw returns the raw converter value for the configured channel.
	ReadRaw() (int32, error)

	// Close releases converter resources.
	Close() error
}
