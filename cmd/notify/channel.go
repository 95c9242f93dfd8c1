package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aeolun/notify/pkg/client"
	"github.com/aeolun/notify/pkg/client/ui"
	"github.com/spf13/cobra"
)

func newRegisterCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new channel",
		Long: `Register a new channel and store its endpoint. Later calls to 'send'
and 'view' use the stored endpoint unless given another one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), cmd.OutOrStdout(), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an already registered channel")

	return cmd
}

func runRegister(ctx context.Context, out io.Writer, force bool) error {
	if existing := state.GetEndpoint(); existing != "" && !force {
		return fmt.Errorf("a channel is already registered (%s) - use --force to replace it", existing)
	}

	info, err := api.RegisterChannel(ctx)
	if err != nil {
		return err
	}
	if err := state.SetEndpoint(info.Endpoint); err != nil {
		return fmt.Errorf("failed to store endpoint: %w", err)
	}

	log.Info().Str("channel", info.ChannelID).Msg("registered channel")
	printEndpoint(out, info)
	return nil
}

func newSendCommand() *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message to a channel",
		Long:  "Send a message to the registered channel, or to --endpoint.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), cmd.OutOrStdout(), endpoint, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Channel endpoint (defaults to the registered channel)")

	return cmd
}

func runSend(ctx context.Context, out io.Writer, endpoint, message string) error {
	if endpoint == "" {
		var err error
		if endpoint, err = storedEndpoint(); err != nil {
			return err
		}
	}

	if err := api.Send(ctx, endpoint, message); err != nil {
		return err
	}
	fmt.Fprintln(out, "Message sent")
	return nil
}

func newInfoCommand() *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the registered channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.Context(), cmd.OutOrStdout(), endpoint)
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Channel endpoint (defaults to the registered channel)")

	return cmd
}

func runInfo(ctx context.Context, out io.Writer, endpoint string) error {
	if endpoint == "" {
		var err error
		if endpoint, err = storedEndpoint(); err != nil {
			return err
		}
	}

	info, err := api.Info(ctx, endpoint)
	if err != nil {
		return err
	}
	printEndpoint(out, info)
	return nil
}

// printEndpoint prints a channel's endpoint, web page and a QR code of the page
func printEndpoint(out io.Writer, info *client.EndpointInfo) {
	page := info.ChannelPage
	if page == "" {
		page = api.WebLink(info.ChannelID)
	}

	fmt.Fprintf(out, "Endpoint: %s\n", info.Endpoint)
	fmt.Fprintf(out, "To subscribe, open: %s\n", page)
	if code, err := ui.RenderQR(page); err == nil {
		fmt.Fprintf(out, "\n%s\n", code)
	}
	fmt.Fprintf(out, "\nSend a test message with:\n  curl %s -d \"message goes here\"\n", info.Endpoint)
}
