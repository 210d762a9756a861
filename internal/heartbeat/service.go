// Package heartbeat periodically publishes a module-health record so other
// services can watch the <module>_heartbeat topic for liveness.
package heartbeat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradepulse/msgbus/internal/client"
	"github.com/tradepulse/msgbus/internal/schema"
)

// Payload is one heartbeat record.
type Payload struct {
	Module    string `json:"module"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Service publishes a heartbeat for one named module at a fixed interval.
type Service struct {
	bus      client.Bus
	module   string
	interval time.Duration
	log      zerolog.Logger
}

// NewService creates a heartbeat publisher.
// interval defaults to 30 seconds if zero.
func NewService(bus client.Bus, module string, interval time.Duration, log zerolog.Logger) *Service {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Service{bus: bus, module: module, interval: interval, log: log}
}

// Topic returns the heartbeat topic for the service's module.
func (s *Service) Topic() string {
	return s.module + "_heartbeat"
}

// Start runs the heartbeat loop until ctx is cancelled. The first beat is
// sent immediately so watchers see the module as soon as it comes up.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Str("module", s.module).Dur("interval", s.interval).Msg("heartbeat started")
	s.beat()

	for {
		select {
		case <-ticker.C:
			s.beat()
		case <-ctx.Done():
			s.log.Info().Str("module", s.module).Msg("heartbeat stopped")
			return ctx.Err()
		}
	}
}

func (s *Service) beat() {
	payload := Payload{
		Module:    s.module,
		Status:    "healthy",
		Timestamp: schema.Now(),
	}
	if err := s.bus.Publish(s.Topic(), payload); err != nil {
		s.log.Error().Err(err).Str("module", s.module).Msg("heartbeat publish failed")
	}
}
