package store

// FakeStore is an in-memory Store for tests. Committed holds durable values;
// staged writes only reach it on Commit.
type FakeStore struct {
	// Committed contains the durable values.
	Committed map[string]int32

	// GetErrors maps keys to errors returned by GetInt32, simulating
	// per-field read failures.
	GetErrors map[string]error

	// SetError, if set, is returned by SetInt32.
	SetError error

	// CommitError, if set, is returned by Commit and leaves Committed untouched.
	CommitError error

	// Commits counts successful Commit calls.
	Commits int

	// Closed tracks if Close was called.
	Closed bool

	pending map[string]int32
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		Committed: make(map[string]int32),
		pending:   make(map[string]int32),
	}
}

// GetInt32 returns a staged value, then a committed one, then ErrNotFound.
func (f *FakeStore) GetInt32(key string) (int32, error) {
	if err := f.GetErrors[key]; err != nil {
		return 0, err
	}
	if v, ok := f.pending[key]; ok {
		return v, nil
	}
	if v, ok := f.Committed[key]; ok {
		return v, nil
	}
	return 0, ErrNotFound
}

// SetInt32 stages a value.
func (f *FakeStore) SetInt32(key string, value int32) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.pending[key] = value
	return nil
}

// Commit moves staged values into Committed.
func (f *FakeStore) Commit() error {
	if f.CommitError != nil {
		return f.CommitError
	}
	for k, v := range f.pending {
		f.Committed[k] = v
	}
	f.pending = make(map[string]int32)
	f.Commits++
	return nil
}

// Close marks the store as closed.
func (f *FakeStore) Close() error {
	f.Closed = true
	return nil
}
