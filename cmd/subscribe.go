package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var subscribeTopic string

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Register a topic on the broker",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, _, err := newBusClient()
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Subscribe(subscribeTopic); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		fmt.Printf("Subscribed to %s\n", subscribeTopic)
		return nil
	},
}

func init() {
	subscribeCmd.Flags().StringVarP(&subscribeTopic, "topic", "t", "", "Topic to subscribe to")
	_ = subscribeCmd.MarkFlagRequired("topic")
}
