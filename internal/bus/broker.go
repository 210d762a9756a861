// Package bus holds the message bus broker state: the topic subscription
// registry and the bounded in-memory history of published messages.
//
// Both structures live for the process lifetime, are never persisted, and
// are cleared only by process termination. A single RWMutex guards them so
// the dispatch loop and the periodic stats reader never race.
package bus

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/tradepulse/msgbus/internal/schema"
)

const (
	// HistoryCapacity bounds the retained history; once exceeded the oldest
	// entries are evicted first.
	HistoryCapacity = 1000

	// HistoryRequestLimit caps how many entries a history request returns,
	// independent of how many are retained.
	HistoryRequestLimit = 100
)

var (
	ErrNoTopic            = errors.New("No topic specified")
	ErrTopicAndMsgMissing = errors.New("Topic and message required")
)

// Broker owns the subscription registry and message history and implements
// the request dispatch for the four supported message types.
type Broker struct {
	port int

	mu      sync.RWMutex
	topics  map[string]struct{}
	history *ring
	running bool
}

// New creates an empty broker. port is only reported in status snapshots;
// binding is the transport's concern.
func New(port int) *Broker {
	return &Broker{
		port:    port,
		topics:  make(map[string]struct{}),
		history: newRing(HistoryCapacity),
	}
}

// SetRunning records whether the serving loop is active. Flipped by the
// transport on start and teardown.
func (b *Broker) SetRunning(v bool) {
	b.mu.Lock()
	b.running = v
	b.mu.Unlock()
}

// Running reports whether the serving loop is active.
func (b *Broker) Running() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// Subscribe registers a topic in the registry. Registering the same topic
// twice is a no-op, not an error. Subscriber identity is not recorded:
// published messages are never pushed to subscribers, they are only
// retained in the shared history for polling. That matches the behavior of
// the TradePulse services this broker was built for.
func (b *Broker) Subscribe(topic string) error {
	if topic == "" {
		return ErrNoTopic
	}
	b.mu.Lock()
	b.topics[topic] = struct{}{}
	b.mu.Unlock()
	return nil
}

// Publish appends a record to the history, evicting the oldest entry once
// the capacity bound is reached. Both topic and message are required.
func (b *Broker) Publish(topic string, message json.RawMessage) error {
	if topic == "" || len(message) == 0 || string(message) == "null" {
		return ErrTopicAndMsgMissing
	}
	rec := schema.Record{Topic: topic, Message: message, Timestamp: schema.Now()}
	b.mu.Lock()
	b.history.append(rec)
	b.mu.Unlock()
	return nil
}

// TopicCount returns the number of distinct topics ever subscribed.
func (b *Broker) TopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

// HistoryCount returns the number of retained history entries.
func (b *Broker) HistoryCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.history.len()
}

// Recent returns the newest n retained records in publish order.
func (b *Broker) Recent(n int) []schema.Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.history.last(n)
}

// Status builds the snapshot returned for a status request.
func (b *Broker) Status() schema.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return schema.Snapshot{
		Running:             b.running,
		Port:                b.port,
		SubscribersCount:    len(b.topics),
		MessageHistoryCount: b.history.len(),
		Timestamp:           schema.Now(),
	}
}

// Handle dispatches one decoded request and builds its reply. Invalid input
// never mutates broker state; it only produces an error reply.
func (b *Broker) Handle(req schema.Request) schema.Response {
	switch req.Type {
	case schema.TypeSubscribe:
		if err := b.Subscribe(req.Data.Topic); err != nil {
			return schema.Errorf("%s", err)
		}
		return schema.OK("Subscribed to %s", req.Data.Topic)

	case schema.TypePublish:
		if err := b.Publish(req.Data.Topic, req.Data.Message); err != nil {
			return schema.Errorf("%s", err)
		}
		return schema.OK("Published to %s", req.Data.Topic)

	case schema.TypeRequest:
		return b.handleRequest(req.Data.RequestType)

	case schema.TypePing:
		resp := schema.OK("pong")
		resp.Timestamp = schema.Now()
		return resp

	default:
		return schema.Errorf("Unknown message type: %s", req.Type)
	}
}

func (b *Broker) handleRequest(requestType string) schema.Response {
	switch requestType {
	case schema.RequestStatus:
		return schema.OKData(b.Status())
	case schema.RequestHistory:
		return schema.OKData(schema.HistoryPayload{History: b.Recent(HistoryRequestLimit)})
	default:
		return schema.Errorf("Unknown request type: %s", requestType)
	}
}
