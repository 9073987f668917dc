package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/app"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

var (
	eventsFeeder string
	eventsLimit  int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Display recent fault events",
	RunE: func(cmd *cobra.Command, args []string) error {
		if eventsLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}
		return getApp().Events(cmd.Context(), app.EventsOptions{
			FeederID: eventsFeeder,
			Limit:    eventsLimit,
			Out:      cmd.OutOrStdout(),
		})
	},
}

var ackCmd = &cobra.Command{
	Use:   "ack <event-id>",
	Short: "Acknowledge a fault event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SetEventStatus(cmd.Context(), args[0], models.EventStatusAcknowledged)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <event-id>",
	Short: "Mark a fault event resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SetEventStatus(cmd.Context(), args[0], models.EventStatusResolved)
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsFeeder, "feeder", "", "Only show events for this feeder")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Number of events to display")

	eventsCmd.AddCommand(ackCmd)
	eventsCmd.AddCommand(resolveCmd)
}
