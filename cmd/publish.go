package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	publishTopic   string
	publishMessage string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a message to a topic",
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVarP(&publishTopic, "topic", "t", "", "Topic to publish to")
	publishCmd.Flags().StringVarP(&publishMessage, "message", "m", "", "Message payload (JSON, or plain text to send as a string)")
	_ = publishCmd.MarkFlagRequired("topic")
	_ = publishCmd.MarkFlagRequired("message")
}

func runPublish(_ *cobra.Command, _ []string) error {
	c, _, err := newBusClient()
	if err != nil {
		return err
	}
	defer c.Close()

	// Pass JSON through untouched; wrap anything else as a JSON string.
	var payload any
	if json.Valid([]byte(publishMessage)) {
		payload = json.RawMessage(publishMessage)
	} else {
		payload = publishMessage
	}

	if err := c.Publish(publishTopic, payload); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	fmt.Printf("Published to %s\n", publishTopic)
	return nil
}
