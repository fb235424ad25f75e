package realtime

import "sync"

// RecordedEvent is a broadcast captured by the mock broadcaster
type RecordedEvent struct {
	Event   string
	Payload interface{}
}

// MockBroadcaster records broadcast events for test assertions
type MockBroadcaster struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// NewMockBroadcaster creates a new mock broadcaster
func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{}
}

// Broadcast records the event instead of delivering it
func (m *MockBroadcaster) Broadcast(event string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, RecordedEvent{Event: event, Payload: payload})
}

// Events returns a copy of the recorded events
func (m *MockBroadcaster) Events() []RecordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]RecordedEvent, len(m.events))
	copy(events, m.events)
	return events
}

// Clear drops all recorded events
func (m *MockBroadcaster) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
