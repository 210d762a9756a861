package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check broker liveness",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, cfg, err := newBusClient()
		if err != nil {
			return err
		}
		defer c.Close()

		start := time.Now()
		if err := c.Ping(); err != nil {
			return fmt.Errorf("ping %s:%d: %w", cfg.Host, cfg.Port, err)
		}
		fmt.Printf("pong from %s:%d (%s)\n", cfg.Host, cfg.Port, time.Since(start).Round(time.Millisecond))
		return nil
	},
}
