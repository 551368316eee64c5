package sensor

import "time"

// FakeDevice is a scriptable Device for tests.
type FakeDevice struct {
	// Sample is returned by Read when ReadError is nil.
	Sample Sample

	// TriggerError, if set, is returned by Trigger.
	TriggerError error

	// ReadError, if set, is returned by Read.
	ReadError error

	// Duration is returned by MeasurementDuration.
	Duration time.Duration

	// Ambient records every SetAmbientTemperature call.
	Ambient []float64

	// Triggers and Reads count the respective calls.
	Triggers int
	Reads    int

	// Closed tracks if Close was called.
	Closed bool
}

// SetAmbientTemperature records the compensation input.
func (f *FakeDevice) SetAmbientTemperature(tempC float64) {
	f.Ambient = append(f.Ambient, tempC)
}

// Trigger returns the scripted error, if any.
func (f *FakeDevice) Trigger() error {
	f.Triggers++
	return f.TriggerError
}

// MeasurementDuration returns the scripted duration.
func (f *FakeDevice) MeasurementDuration() time.Duration {
	return f.Duration
}

// Read returns the scripted sample or error.
func (f *FakeDevice) Read() (Sample, error) {
	f.Reads++
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}
	return f.Sample, nil
}

// Close marks the device as closed.
func (f *FakeDevice) Close() error {
	f.Closed = true
	return nil
}

// FakeOpener is a scriptable Opener for tests.
type FakeOpener struct {
	// Device is handed out on successful opens.
	Device *FakeDevice

	// OpenError, if set, makes Open fail.
	OpenError error

	// Opens counts Open calls.
	Opens int
}

// Open returns the scripted device or error.
func (f *FakeOpener) Open() (Device, error) {
	f.Opens++
	if f.OpenError != nil {
		return nil, f.OpenError
	}
	return f.Device, nil
}
