package mqtt

// Message is one payload recorded by the FakeClient.
type Message struct {
	Topic   string
	Payload []byte
}

// FakeClient records published messages for test assertions.
type FakeClient struct {
	// Messages contains all published messages in order.
	Messages []Message

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Connected controls the return value of IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeClient creates a FakeClient for testing.
func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

// Publish records the message.
func (f *FakeClient) Publish(topic string, payload []byte) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Messages = append(f.Messages, Message{Topic: topic, Payload: payload})
	return nil
}

// MessagesOn returns the payloads published to topic, in order.
func (f *FakeClient) MessagesOn(topic string) [][]byte {
	var payloads [][]byte
	for _, m := range f.Messages {
		if m.Topic == topic {
			payloads = append(payloads, m.Payload)
		}
	}
	return payloads
}

// IsConnected reports whether the fake client is "connected".
func (f *FakeClient) IsConnected() bool {
	return f.Connected
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded messages and state.
func (f *FakeClient) Reset() {
	f.Messages = nil
	f.PublishError = nil
	f.Connected = false
	f.Closed = false
}
