package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show broker status",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, cfg, err := newBusClient()
		if err != nil {
			return err
		}
		defer c.Close()

		snap, err := c.Status()
		if err != nil {
			return fmt.Errorf("status %s:%d: %w", cfg.Host, cfg.Port, err)
		}

		fmt.Printf("%s Message Bus Status\n\n", logo)
		running := "✗"
		if snap.Running {
			running = "✓"
		}
		fmt.Printf("Running:   %s\n", running)
		fmt.Printf("Port:      %d\n", snap.Port)
		fmt.Printf("Topics:    %d\n", snap.SubscribersCount)
		fmt.Printf("History:   %d messages\n", snap.MessageHistoryCount)
		fmt.Printf("Timestamp: %s\n", snap.Timestamp)
		return nil
	},
}
