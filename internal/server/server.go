// Package server exposes the broker over a ZeroMQ REP socket.
//
// The protocol is strict request/reply: one frame in, one frame out, always.
// Even an undecodable request gets an error reply so the REQ peer's state
// machine never wedges.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall"
	"time"

	zmq "github.com/pebbe/zmq4"
	"github.com/rs/zerolog"

	"github.com/tradepulse/msgbus/internal/bus"
	"github.com/tradepulse/msgbus/internal/schema"
)

// pollInterval bounds how long a shutdown request can go unnoticed while the
// socket is idle.
const pollInterval = 100 * time.Millisecond

// Server runs the accept-and-dispatch loop for one broker.
type Server struct {
	broker *bus.Broker
	port   int
	log    zerolog.Logger
}

func New(broker *bus.Broker, port int, log zerolog.Logger) *Server {
	return &Server{broker: broker, port: port, log: log}
}

// Start binds tcp://*:<port> and serves until ctx is cancelled. Per-message
// failures are logged and answered with an error reply; only bind and
// transport setup errors are returned. The socket and its context are torn
// down on every exit path.
func (s *Server) Start(ctx context.Context) error {
	zctx, err := zmq.NewContext()
	if err != nil {
		return fmt.Errorf("create zmq context: %w", err)
	}
	defer func() {
		if err := zctx.Term(); err != nil {
			s.log.Error().Err(err).Msg("terminate zmq context")
		}
	}()

	sock, err := zctx.NewSocket(zmq.REP)
	if err != nil {
		return fmt.Errorf("create REP socket: %w", err)
	}
	defer func() {
		if err := sock.Close(); err != nil {
			s.log.Error().Err(err).Msg("close REP socket")
		}
	}()

	if err := sock.SetLinger(0); err != nil {
		return fmt.Errorf("set linger: %w", err)
	}

	endpoint := fmt.Sprintf("tcp://*:%d", s.port)
	if err := sock.Bind(endpoint); err != nil {
		return fmt.Errorf("bind %s: %w", endpoint, err)
	}

	s.broker.SetRunning(true)
	defer s.broker.SetRunning(false)
	s.log.Info().Int("port", s.port).Msg("message bus server listening")

	poller := zmq.NewPoller()
	poller.Add(sock, zmq.POLLIN)

	for {
		if ctx.Err() != nil {
			s.log.Info().Msg("message bus server stopping")
			return ctx.Err()
		}

		polled, err := poller.Poll(pollInterval)
		if err != nil {
			// Signals interrupt poll; the next iteration sees the cancelled
			// context and exits cleanly.
			if zmq.AsErrno(err) == zmq.Errno(syscall.EINTR) {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}
		if len(polled) == 0 {
			continue
		}

		raw, err := sock.RecvBytes(0)
		if err != nil {
			s.log.Error().Err(err).Msg("receive failed")
			continue
		}

		resp := s.handle(raw)
		out, err := json.Marshal(resp)
		if err != nil {
			s.log.Error().Err(err).Msg("encode reply")
			out = []byte(`{"status":"error","message":"internal encoding error"}`)
		}
		if _, err := sock.SendBytes(out, 0); err != nil {
			s.log.Error().Err(err).Msg("send reply failed")
		}
	}
}

// handle decodes one frame and dispatches it. A malformed frame is isolated
// to its own error reply; it never takes the loop down.
func (s *Server) handle(raw []byte) schema.Response {
	var req schema.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		s.log.Error().Err(err).Msg("malformed request")
		return schema.Errorf("%s", err)
	}

	resp := s.broker.Handle(req)
	if resp.Status == schema.StatusError {
		s.log.Error().Str("type", req.Type).Str("reason", resp.Message).Msg("request rejected")
	} else {
		s.log.Debug().Str("type", req.Type).Str("topic", req.Data.Topic).Msg("request handled")
	}
	return resp
}
