package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aeolun/notify/pkg/channelview"
	"github.com/aeolun/notify/pkg/client"
	"github.com/aeolun/notify/pkg/client/ui"
	"github.com/aeolun/notify/pkg/config"
	"github.com/aeolun/notify/pkg/logger"
	"github.com/aeolun/notify/pkg/subscription"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [channel]",
		Short: "Open a live view of a channel",
		Long: `Open a live view of a channel. The channel can be given as an id or as
its endpoint URL and defaults to the registered channel.

Press 's' to subscribe this device, 'c' for a QR code another device can
scan and 'q' to quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			channelID, err := resolveChannel(arg)
			if err != nil {
				return err
			}
			return runView(cmd.Context(), channelID)
		},
	}

	return cmd
}

// resolveChannel turns a channel id, an endpoint URL or nothing (the
// registered channel) into a channel id
func resolveChannel(arg string) (string, error) {
	if arg == "" {
		endpoint, err := storedEndpoint()
		if err != nil {
			return "", err
		}
		return client.ChannelIDFromEndpoint(endpoint)
	}
	if strings.Contains(arg, "://") {
		return client.ChannelIDFromEndpoint(arg)
	}
	if strings.Contains(arg, "/") {
		return "", fmt.Errorf("%w: %q is neither a channel id nor a URL", client.ErrInvalidEndpoint, arg)
	}
	return arg, nil
}

func runView(ctx context.Context, channelID string) error {
	stateDir, err := config.ExpandPath(cfg.Client.StateDir)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI from here on, log to a file instead
	fileLog, closer, err := logger.NewFile(cfg.Client.LogLevel, stateDir)
	if err != nil {
		return err
	}
	defer closer.Close()

	viewAPI, err := client.NewAPI(cfg.APIConfig(), fileLog)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	controllerConfig, err := cfg.ControllerConfig()
	if err != nil {
		return err
	}
	controllerConfig.Logger = fileLog

	if cfg.Metrics.ListenAddr != "" {
		reg := prometheus.NewRegistry()
		controllerConfig.Metrics = channelview.NewMetrics(reg)
		stop := serveMetrics(cfg.Metrics.ListenAddr, reg, fileLog)
		defer stop()
	}

	controller := channelview.New(channelID, viewAPI, subscription.NewFactory(state, viewAPI, fileLog), controllerConfig)
	if err := controller.Activate(ctx); err != nil {
		return err
	}
	defer controller.Deactivate()

	fileLog.Info().Str("channel", channelID).Str("version", Version).Msg("opening channel view")

	model := ui.NewModel(controller, ui.Config{
		DesktopNotifications: cfg.Notifications.Desktop,
		Logger:               fileLog,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("channel view failed: %w", err)
	}
	return nil
}

// serveMetrics exposes reg on addr until the returned function is called
func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
