// Package led drives the status LED with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package led

// Driver sets the status LED state.
type Driver interface {
	// Set drives the LED on or off.
	Set(on bool) error

	// Close turns the LED off and releases GPIO resources.
	Close() error
}

// DefaultPin is the status LED line (BCM numbering).
const DefaultPin = 17
