package led

// FakeDriver is a test double that records LED state changes.
type FakeDriver struct {
	// States records every value passed to Set, in order.
	States []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDriver creates a FakeDriver for testing.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// Set records the requested state.
func (f *FakeDriver) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, on)
	return nil
}

// On reports the most recently set state, false if Set was never called.
func (f *FakeDriver) On() bool {
	if len(f.States) == 0 {
		return false
	}
	return f.States[len(f.States)-1]
}

// Close marks the driver as closed.
func (f *FakeDriver) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded state.
func (f *FakeDriver) Reset() {
	f.States = nil
	f.SetError = nil
	f.Closed = false
}
