// Package cmd implements the msgbus CLI using cobra.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradepulse/msgbus/internal/client"
	"github.com/tradepulse/msgbus/internal/config"
	"github.com/tradepulse/msgbus/internal/logging"
)

const version = "0.1.0"
const logo = "📡"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "msgbus",
	Short: logo + " msgbus — TradePulse message bus",
	Long:  logo + " msgbus — the TradePulse inter-service message bus broker and client tooling",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(subscribeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(heartbeatCmd)
	rootCmd.AddCommand(initCmd)
}

// newBusClient builds a client from the loaded config for the client-side
// subcommands.
func newBusClient() (*client.Client, *config.Config, error) {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.LogLevel)
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	return client.New(cfg.Host, cfg.Port, timeout, log), cfg, nil
}
