// Package container wires the broker services using go.uber.org/dig.
package container

import (
	"github.com/rs/zerolog"
	"go.uber.org/dig"

	"github.com/tradepulse/msgbus/internal/bus"
	"github.com/tradepulse/msgbus/internal/config"
	"github.com/tradepulse/msgbus/internal/logging"
	"github.com/tradepulse/msgbus/internal/server"
)

// Container holds the resolved service singletons. Callers use the typed
// getters; they never need to import dig directly.
type Container struct {
	log    zerolog.Logger
	broker *bus.Broker
	srv    *server.Server
}

func (c *Container) Logger() zerolog.Logger { return c.log }
func (c *Container) Broker() *bus.Broker    { return c.broker }
func (c *Container) Server() *server.Server { return c.srv }

// New builds and wires the broker, transport, and logger from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(newLogger); err != nil {
		return nil, err
	}
	if err := d.Provide(newBroker); err != nil {
		return nil, err
	}
	if err := d.Provide(newServer); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(log zerolog.Logger, broker *bus.Broker, srv *server.Server) {
		result = &Container{log: log, broker: broker, srv: srv}
	})
	return result, err
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.LogLevel)
}

func newBroker(cfg *config.Config) *bus.Broker {
	return bus.New(cfg.Port)
}

func newServer(cfg *config.Config, broker *bus.Broker, log zerolog.Logger) *server.Server {
	return server.New(broker, cfg.Port, log)
}
