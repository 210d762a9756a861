// Package schema defines the JSON envelopes exchanged between the message
// bus server and its clients.
//
// Every request is `{type, data}` and every reply is `{status, ...}` with
// status either "success" or "error". The shapes mirror the TradePulse
// inter-service protocol so Python and Go peers stay wire-compatible.
package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message types accepted by the server.
const (
	TypeSubscribe = "subscribe"
	TypePublish   = "publish"
	TypeRequest   = "request"
	TypePing      = "ping"
)

// Request sub-types for TypeRequest.
const (
	RequestStatus  = "status"
	RequestHistory = "history"
)

// Reply status discriminator. There are no structured error codes; a reply
// is either success or error plus a human-readable message.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Request is one message sent to the server.
type Request struct {
	Type string      `json:"type"`
	Data RequestData `json:"data,omitempty"`
}

// RequestData carries the per-type payload. Unused fields stay empty;
// Message is kept raw so the broker never re-interprets publisher payloads.
type RequestData struct {
	Topic       string          `json:"topic,omitempty"`
	Message     json.RawMessage `json:"message,omitempty"`
	RequestType string          `json:"request_type,omitempty"`
}

// Response is one reply from the server.
type Response struct {
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Record is one retained history entry: what was published, where, and when.
type Record struct {
	Topic     string          `json:"topic"`
	Message   json.RawMessage `json:"message"`
	Timestamp string          `json:"timestamp"`
}

// Snapshot is the payload of a status request reply.
type Snapshot struct {
	Running             bool   `json:"running"`
	Port                int    `json:"port"`
	SubscribersCount    int    `json:"subscribers_count"`
	MessageHistoryCount int    `json:"message_history_count"`
	Timestamp           string `json:"timestamp"`
}

// HistoryPayload is the payload of a history request reply.
type HistoryPayload struct {
	History []Record `json:"history"`
}

// OK builds a success reply with a human-readable message.
func OK(format string, args ...any) Response {
	return Response{Status: StatusSuccess, Message: fmt.Sprintf(format, args...)}
}

// Errorf builds an error reply.
func Errorf(format string, args ...any) Response {
	return Response{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// OKData builds a success reply carrying a data payload.
// Marshal failures degrade to an error reply rather than a broken frame.
func OKData(v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return Errorf("encode response data: %v", err)
	}
	return Response{Status: StatusSuccess, Data: data}
}

// Now returns the current time as an ISO-8601 string, the timestamp format
// used throughout the protocol.
func Now() string {
	return time.Now().Format(time.RFC3339Nano)
}
