package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tradepulse/msgbus/internal/config"
	"github.com/tradepulse/msgbus/internal/container"
)

var (
	servePort     int
	serveLogLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the message bus broker",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Broker port (overrides config and ZMQ_PORT)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Log level (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveLogLevel != "" {
		cfg.LogLevel = serveLogLevel
	}

	c, err := container.New(cfg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	log := c.Logger()

	fmt.Printf("%s Starting message bus broker on port %d...\n", logo, cfg.Port)

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Periodic stats snapshot so an idle broker still leaves a trace in the logs.
	statsCron := cron.New()
	spec := fmt.Sprintf("@every %ds", cfg.StatsIntervalSec)
	if _, err := statsCron.AddFunc(spec, func() {
		snap := c.Broker().Status()
		log.Info().
			Int("topics", snap.SubscribersCount).
			Int("history", snap.MessageHistoryCount).
			Msg("broker stats")
	}); err != nil {
		return fmt.Errorf("schedule stats job: %w", err)
	}

	g.Go(func() error { return c.Server().Start(gctx) })
	g.Go(func() error {
		statsCron.Start()
		<-gctx.Done()
		<-statsCron.Stop().Done()
		return gctx.Err()
	})

	fmt.Printf("%s Broker running. Press Ctrl+C to stop.\n", logo)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("broker failed")
		fmt.Fprintf(os.Stderr, "broker error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
