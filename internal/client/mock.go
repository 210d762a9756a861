package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tradepulse/msgbus/internal/schema"
)

// Mock is an in-memory Bus for tests and for code paths that must work
// without a running broker. It records everything published so assertions
// and dry runs can inspect the traffic.
type Mock struct {
	mu      sync.Mutex
	topics  map[string]struct{}
	records []schema.Record
	closed  bool
}

var _ Bus = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{topics: make(map[string]struct{})}
}

func (m *Mock) Ping() error { return nil }

func (m *Mock) Subscribe(topic string) error {
	if topic == "" {
		return fmt.Errorf("No topic specified")
	}
	m.mu.Lock()
	m.topics[topic] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *Mock) Publish(topic string, message any) error {
	raw, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if topic == "" || len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("Topic and message required")
	}
	m.mu.Lock()
	m.records = append(m.records, schema.Record{Topic: topic, Message: raw, Timestamp: schema.Now()})
	m.mu.Unlock()
	return nil
}

func (m *Mock) Status() (*schema.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &schema.Snapshot{
		Running:             !m.closed,
		Port:                5555,
		SubscribersCount:    len(m.topics),
		MessageHistoryCount: len(m.records),
		Timestamp:           schema.Now(),
	}, nil
}

func (m *Mock) History() ([]schema.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schema.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Published returns all records published so far, newest last.
func (m *Mock) Published() []schema.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schema.Record, len(m.records))
	copy(out, m.records)
	return out
}
