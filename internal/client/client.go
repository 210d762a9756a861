// Package client talks to the message bus server over a ZeroMQ REQ socket.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"
	"github.com/rs/zerolog"

	"github.com/tradepulse/msgbus/internal/schema"
)

// DefaultTimeout bounds each send and receive on the REQ socket.
const DefaultTimeout = 5 * time.Second

// Bus is the contract for talking to the message bus. Client is the real
// implementation; Mock serves tests and code that runs without a broker.
type Bus interface {
	Ping() error
	Subscribe(topic string) error
	Publish(topic string, message any) error
	Status() (*schema.Snapshot, error)
	History() ([]schema.Record, error)
	Close() error
}

// Client is a synchronous REQ client. It connects lazily on first use and
// reconnects after a failed exchange, since a REQ socket that missed its
// reply cannot be reused.
type Client struct {
	host    string
	port    int
	timeout time.Duration
	log     zerolog.Logger

	mu        sync.Mutex
	zctx      *zmq.Context
	sock      *zmq.Socket
	connected bool
}

func New(host string, port int, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{host: host, port: port, timeout: timeout, log: log}
}

// Connect establishes the REQ socket. Calling it on a connected client is a no-op.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	if c.connected {
		return nil
	}

	if c.zctx == nil {
		zctx, err := zmq.NewContext()
		if err != nil {
			return fmt.Errorf("create zmq context: %w", err)
		}
		c.zctx = zctx
	}

	sock, err := c.zctx.NewSocket(zmq.REQ)
	if err != nil {
		return fmt.Errorf("create REQ socket: %w", err)
	}
	if err := sock.SetRcvtimeo(c.timeout); err != nil {
		sock.Close()
		return fmt.Errorf("set receive timeout: %w", err)
	}
	if err := sock.SetSndtimeo(c.timeout); err != nil {
		sock.Close()
		return fmt.Errorf("set send timeout: %w", err)
	}
	if err := sock.SetLinger(0); err != nil {
		sock.Close()
		return fmt.Errorf("set linger: %w", err)
	}

	endpoint := fmt.Sprintf("tcp://%s:%d", c.host, c.port)
	if err := sock.Connect(endpoint); err != nil {
		sock.Close()
		return fmt.Errorf("connect %s: %w", endpoint, err)
	}

	c.sock = sock
	c.connected = true
	c.log.Debug().Str("host", c.host).Int("port", c.port).Msg("connected to message bus")
	return nil
}

// Close releases the socket and zmq context.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropLocked()
	if c.zctx != nil {
		if err := c.zctx.Term(); err != nil {
			return fmt.Errorf("terminate zmq context: %w", err)
		}
		c.zctx = nil
	}
	return nil
}

// dropLocked discards the current socket so the next Send reconnects.
func (c *Client) dropLocked() {
	if c.sock != nil {
		_ = c.sock.Close()
		c.sock = nil
	}
	c.connected = false
}

// Send performs one request/reply exchange. A failed exchange drops the
// socket: the REQ state machine is out of step with the server after a
// missed reply, a fresh socket is the only recovery.
func (c *Client) Send(req schema.Request) (*schema.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if _, err := c.sock.SendBytes(raw, 0); err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("send: %w", err)
	}

	reply, err := c.sock.RecvBytes(0)
	if err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("receive: %w", err)
	}

	var resp schema.Response
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &resp, nil
}

// exchange sends req and converts an error-status reply into a Go error.
func (c *Client) exchange(req schema.Request) (*schema.Response, error) {
	resp, err := c.Send(req)
	if err != nil {
		return nil, err
	}
	if resp.Status != schema.StatusSuccess {
		return nil, errors.New(resp.Message)
	}
	return resp, nil
}

// Ping checks broker liveness.
func (c *Client) Ping() error {
	_, err := c.exchange(schema.Request{Type: schema.TypePing})
	return err
}

// Subscribe registers a topic on the broker.
func (c *Client) Subscribe(topic string) error {
	_, err := c.exchange(schema.Request{
		Type: schema.TypeSubscribe,
		Data: schema.RequestData{Topic: topic},
	})
	return err
}

// Publish sends one message to a topic. message is JSON-serialized as-is.
func (c *Client) Publish(topic string, message any) error {
	raw, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	_, err = c.exchange(schema.Request{
		Type: schema.TypePublish,
		Data: schema.RequestData{Topic: topic, Message: raw},
	})
	return err
}

// Status fetches the broker status snapshot.
func (c *Client) Status() (*schema.Snapshot, error) {
	resp, err := c.exchange(schema.Request{
		Type: schema.TypeRequest,
		Data: schema.RequestData{RequestType: schema.RequestStatus},
	})
	if err != nil {
		return nil, err
	}
	var snap schema.Snapshot
	if err := json.Unmarshal(resp.Data, &snap); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &snap, nil
}

// History fetches the broker's recent history (at most 100 entries,
// the server-side cap).
func (c *Client) History() ([]schema.Record, error) {
	resp, err := c.exchange(schema.Request{
		Type: schema.TypeRequest,
		Data: schema.RequestData{RequestType: schema.RequestHistory},
	})
	if err != nil {
		return nil, err
	}
	var payload schema.HistoryPayload
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return payload.History, nil
}
