package adc

import "errors"

// FakeReader is a test double that returns scripted raw values.
type FakeReader struct {
	// Samples contains scripted raw values to return. Each call to ReadRaw
	// consumes the next sample; the last sample repeats once exhausted.
	Samples []int32

	// ReadError, if set, will be returned by ReadRaw.
	ReadError error

	// Closed tracks if Close was called.
	Closed bool

	index int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...int32) *FakeReader {
	return &FakeReader{Samples: samples}
}

// ReadRaw returns the next scripted sample.
func (f *FakeReader) ReadRaw() (int32, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the reader to the first sample.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}
