package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newSubscriptionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "List channels this device subscribed to",
		Long:  "List the channels this device registered a push subscription with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubscriptionsList(cmd.OutOrStdout())
		},
	}

	return cmd
}

func runSubscriptionsList(out io.Writer) error {
	registrations, err := state.ListRegistrations()
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}

	if len(registrations) == 0 {
		fmt.Fprintln(out, "No subscriptions found")
		return nil
	}

	fmt.Fprintf(out, "Found %d subscription(s):\n\n", len(registrations))
	for i, reg := range registrations {
		fmt.Fprintf(out, "%d. Channel: %s\n", i+1, reg.ChannelID)
		fmt.Fprintf(out, "   Subscription: %s\n", reg.SubscriptionID)
		fmt.Fprintf(out, "   Registered: %s\n", reg.RegisteredAt.Format("2006-01-02 15:04:05"))
		if i < len(registrations)-1 {
			fmt.Fprintln(out)
		}
	}
	return nil
}
