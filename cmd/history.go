package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently published messages",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 100, "Maximum entries to show (the broker returns at most 100)")
}

func runHistory(_ *cobra.Command, _ []string) error {
	c, _, err := newBusClient()
	if err != nil {
		return err
	}
	defer c.Close()

	recs, err := c.History()
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if historyLimit > 0 && len(recs) > historyLimit {
		recs = recs[len(recs)-historyLimit:]
	}

	if len(recs) == 0 {
		fmt.Println("No messages published yet.")
		return nil
	}
	for _, rec := range recs {
		fmt.Printf("%-30s %-20s %s\n", rec.Timestamp, rec.Topic, rec.Message)
	}
	return nil
}
