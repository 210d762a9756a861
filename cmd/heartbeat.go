package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradepulse/msgbus/internal/heartbeat"
	"github.com/tradepulse/msgbus/internal/logging"
)

var (
	heartbeatModule   string
	heartbeatInterval time.Duration
)

var heartbeatCmd = &cobra.Command{
	Use:   "heartbeat",
	Short: "Publish periodic health beats for a module",
	RunE:  runHeartbeat,
}

func init() {
	heartbeatCmd.Flags().StringVarP(&heartbeatModule, "module", "m", "", "Module name to report for")
	heartbeatCmd.Flags().DurationVarP(&heartbeatInterval, "interval", "i", 30*time.Second, "Beat interval")
	_ = heartbeatCmd.MarkFlagRequired("module")
}

func runHeartbeat(_ *cobra.Command, _ []string) error {
	c, cfg, err := newBusClient()
	if err != nil {
		return err
	}
	defer c.Close()

	log := logging.New(cfg.LogLevel)
	svc := heartbeat.NewService(c, heartbeatModule, heartbeatInterval, log)

	fmt.Printf("%s Publishing heartbeats for %s every %s. Press Ctrl+C to stop.\n",
		logo, heartbeatModule, heartbeatInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println("\nStopped.")
	return nil
}
