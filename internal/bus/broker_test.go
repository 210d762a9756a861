package bus

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/tradepulse/msgbus/internal/schema"
)

func rawMsg(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	return data
}

// publishN publishes n sequenced messages to topic and fails the test on any error.
func publishN(t *testing.T, b *Broker, topic string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		if err := b.Publish(topic, rawMsg(t, map[string]any{"seq": i})); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
}

func seqOf(t *testing.T, rec schema.Record) int {
	t.Helper()
	var m struct {
		Seq int `json:"seq"`
	}
	if err := json.Unmarshal(rec.Message, &m); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	return m.Seq
}

// ---- subscribe -------------------------------------------------------------

func TestSubscribe(t *testing.T) {
	b := New(5555)

	resp := b.Handle(schema.Request{Type: schema.TypeSubscribe, Data: schema.RequestData{Topic: "prices"}})
	if resp.Status != schema.StatusSuccess {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Message != "Subscribed to prices" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if b.TopicCount() != 1 {
		t.Errorf("expected 1 topic, got %d", b.TopicCount())
	}
}

func TestSubscribe_EmptyTopic(t *testing.T) {
	b := New(5555)

	resp := b.Handle(schema.Request{Type: schema.TypeSubscribe})
	if resp.Status != schema.StatusError {
		t.Fatalf("expected error, got %+v", resp)
	}
	if resp.Message != "No topic specified" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if b.TopicCount() != 0 {
		t.Errorf("registry mutated on invalid subscribe: %d topics", b.TopicCount())
	}
}

func TestSubscribe_Idempotent(t *testing.T) {
	b := New(5555)

	for i := 0; i < 3; i++ {
		resp := b.Handle(schema.Request{Type: schema.TypeSubscribe, Data: schema.RequestData{Topic: "signals"}})
		if resp.Status != schema.StatusSuccess {
			t.Fatalf("subscribe %d: expected success, got %+v", i, resp)
		}
	}
	if b.TopicCount() != 1 {
		t.Errorf("expected 1 distinct topic after repeated subscribes, got %d", b.TopicCount())
	}
}

// ---- publish ---------------------------------------------------------------

func TestPublish(t *testing.T) {
	b := New(5555)

	resp := b.Handle(schema.Request{
		Type: schema.TypePublish,
		Data: schema.RequestData{Topic: "prices", Message: rawMsg(t, map[string]any{"symbol": "AAPL", "price": 150.0})},
	})
	if resp.Status != schema.StatusSuccess {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Message != "Published to prices" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if b.HistoryCount() != 1 {
		t.Errorf("expected 1 history entry, got %d", b.HistoryCount())
	}

	recs := b.Recent(HistoryRequestLimit)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Topic != "prices" {
		t.Errorf("unexpected topic: %q", recs[0].Topic)
	}
	if recs[0].Timestamp == "" {
		t.Error("expected record timestamp to be set")
	}
}

func TestPublish_MissingFields(t *testing.T) {
	b := New(5555)

	cases := []struct {
		name string
		data schema.RequestData
	}{
		{"no topic", schema.RequestData{Message: rawMsg(t, map[string]any{"x": 1})}},
		{"no message", schema.RequestData{Topic: "prices"}},
		{"null message", schema.RequestData{Topic: "prices", Message: json.RawMessage("null")}},
		{"nothing", schema.RequestData{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := b.Handle(schema.Request{Type: schema.TypePublish, Data: tc.data})
			if resp.Status != schema.StatusError {
				t.Fatalf("expected error, got %+v", resp)
			}
			if resp.Message != "Topic and message required" {
				t.Errorf("unexpected message: %q", resp.Message)
			}
		})
	}
	if b.HistoryCount() != 0 {
		t.Errorf("history mutated on invalid publish: %d entries", b.HistoryCount())
	}
}

func TestPublish_HistoryBound(t *testing.T) {
	b := New(5555)

	publishN(t, b, "t", 500)
	if b.HistoryCount() != 500 {
		t.Fatalf("expected 500 entries, got %d", b.HistoryCount())
	}

	publishN(t, b, "t", 1000)
	if b.HistoryCount() != HistoryCapacity {
		t.Fatalf("expected history capped at %d, got %d", HistoryCapacity, b.HistoryCount())
	}

	// After 500+1000 publishes the retained window is the second batch,
	// sequences 1..1000, oldest evicted first.
	recs := b.Recent(HistoryCapacity)
	if len(recs) != HistoryCapacity {
		t.Fatalf("expected %d records, got %d", HistoryCapacity, len(recs))
	}
	if got := seqOf(t, recs[0]); got != 1 {
		t.Errorf("expected oldest retained seq 1, got %d", got)
	}
	if got := seqOf(t, recs[len(recs)-1]); got != 1000 {
		t.Errorf("expected newest retained seq 1000, got %d", got)
	}
}

// ---- request ---------------------------------------------------------------

func TestRequest_Status(t *testing.T) {
	b := New(4242)
	b.SetRunning(true)

	if err := b.Subscribe("prices"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := b.Subscribe("signals"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	publishN(t, b, "prices", 7)

	resp := b.Handle(schema.Request{Type: schema.TypeRequest, Data: schema.RequestData{RequestType: schema.RequestStatus}})
	if resp.Status != schema.StatusSuccess {
		t.Fatalf("expected success, got %+v", resp)
	}

	var snap schema.Snapshot
	if err := json.Unmarshal(resp.Data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if !snap.Running {
		t.Error("expected running=true")
	}
	if snap.Port != 4242 {
		t.Errorf("expected port 4242, got %d", snap.Port)
	}
	if snap.SubscribersCount != 2 {
		t.Errorf("expected 2 subscribed topics, got %d", snap.SubscribersCount)
	}
	if snap.MessageHistoryCount != 7 {
		t.Errorf("expected 7 history entries, got %d", snap.MessageHistoryCount)
	}
	if snap.Timestamp == "" {
		t.Error("expected snapshot timestamp to be set")
	}
}

func TestRequest_History_CappedAt100(t *testing.T) {
	b := New(5555)
	publishN(t, b, "t", 1500)

	resp := b.Handle(schema.Request{Type: schema.TypeRequest, Data: schema.RequestData{RequestType: schema.RequestHistory}})
	if resp.Status != schema.StatusSuccess {
		t.Fatalf("expected success, got %+v", resp)
	}

	var payload schema.HistoryPayload
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(payload.History) != HistoryRequestLimit {
		t.Fatalf("expected %d entries, got %d", HistoryRequestLimit, len(payload.History))
	}
	// 1500 published, 1000 retained, last 100 returned: seqs 1401..1500.
	for i, rec := range payload.History {
		want := 1401 + i
		if got := seqOf(t, rec); got != want {
			t.Fatalf("entry %d: expected seq %d, got %d", i, want, got)
		}
	}
}

func TestRequest_History_FewerThanLimit(t *testing.T) {
	b := New(5555)
	publishN(t, b, "t", 3)

	resp := b.Handle(schema.Request{Type: schema.TypeRequest, Data: schema.RequestData{RequestType: schema.RequestHistory}})
	var payload schema.HistoryPayload
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(payload.History) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(payload.History))
	}
	for i, rec := range payload.History {
		if got := seqOf(t, rec); got != i+1 {
			t.Errorf("entry %d: expected seq %d, got %d", i, i+1, got)
		}
	}
}

func TestRequest_UnknownRequestType(t *testing.T) {
	b := New(5555)

	resp := b.Handle(schema.Request{Type: schema.TypeRequest, Data: schema.RequestData{RequestType: "metrics"}})
	if resp.Status != schema.StatusError {
		t.Fatalf("expected error, got %+v", resp)
	}
	if resp.Message != "Unknown request type: metrics" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

// ---- ping / unknown --------------------------------------------------------

func TestPing(t *testing.T) {
	b := New(5555)

	resp := b.Handle(schema.Request{Type: schema.TypePing})
	if resp.Status != schema.StatusSuccess {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Message != "pong" {
		t.Errorf("expected pong, got %q", resp.Message)
	}
	if resp.Timestamp == "" {
		t.Error("expected ping timestamp to be set")
	}
}

func TestUnknownType(t *testing.T) {
	b := New(5555)
	publishN(t, b, "t", 2)
	if err := b.Subscribe("t"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	resp := b.Handle(schema.Request{Type: "teleport"})
	if resp.Status != schema.StatusError {
		t.Fatalf("expected error, got %+v", resp)
	}
	if resp.Message != "Unknown message type: teleport" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if b.HistoryCount() != 2 || b.TopicCount() != 1 {
		t.Error("unknown type mutated broker state")
	}
}

// End-to-end dispatch scenario from the service contract: ping, publish one
// price, then poll history and find exactly that message.
func TestScenario_PublishThenHistory(t *testing.T) {
	b := New(5555)

	if resp := b.Handle(schema.Request{Type: schema.TypePing}); resp.Message != "pong" {
		t.Fatalf("ping failed: %+v", resp)
	}

	pub := schema.Request{
		Type: schema.TypePublish,
		Data: schema.RequestData{Topic: "prices", Message: rawMsg(t, map[string]any{"symbol": "AAPL", "price": 150.0})},
	}
	if resp := b.Handle(pub); resp.Status != schema.StatusSuccess {
		t.Fatalf("publish failed: %+v", resp)
	}

	resp := b.Handle(schema.Request{Type: schema.TypeRequest, Data: schema.RequestData{RequestType: schema.RequestHistory}})
	var payload schema.HistoryPayload
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(payload.History) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(payload.History))
	}
	var msg struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	if err := json.Unmarshal(payload.History[0].Message, &msg); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if msg.Symbol != "AAPL" || msg.Price != 150.0 {
		t.Errorf("unexpected payload: %+v", msg)
	}
}

func TestHistoryCount_MinOfPublishedAndCap(t *testing.T) {
	for _, n := range []int{0, 1, 999, 1000, 1001, 2500} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			b := New(5555)
			publishN(t, b, "t", n)
			want := n
			if want > HistoryCapacity {
				want = HistoryCapacity
			}
			if b.HistoryCount() != want {
				t.Errorf("after %d publishes expected %d retained, got %d", n, want, b.HistoryCount())
			}
		})
	}
}
