package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aeolun/notify/pkg/client"
	"github.com/aeolun/notify/pkg/config"
	"github.com/aeolun/notify/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var Version = "dev"

var (
	// Global flags
	configPath string
	apiServer  string
	logLevel   string

	// Initialized in PersistentPreRunE
	cfg   config.Config
	api   *client.API
	state *client.State
	log   zerolog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	// Post-run hooks are skipped when a command fails
	_ = closeClient(nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "notify",
		Short: "notify.run command line client",
		Long: `notify is a command line client for notify.run channels.
It registers channels, sends messages and shows a live view of a channel
from which this device can subscribe to its notifications.`,
		Version:            Version,
		SilenceUsage:       true,
		PersistentPreRunE:  initializeClient,
		PersistentPostRunE: closeClient,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&apiServer, "api-server", "", "notify API server (overrides the config file)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newRegisterCommand())
	rootCmd.AddCommand(newSendCommand())
	rootCmd.AddCommand(newInfoCommand())
	rootCmd.AddCommand(newViewCommand())
	rootCmd.AddCommand(newSubscriptionsCommand())

	return rootCmd
}

// initializeClient loads the configuration, opens the state database and
// builds the API client
func initializeClient(cmd *cobra.Command, args []string) error {
	// Skip client initialization for help commands
	if cmd.Name() == "help" || cmd.Parent() == nil {
		return nil
	}

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if apiServer != "" {
		cfg.Server.APIServer = apiServer
	}
	if logLevel != "" {
		cfg.Client.LogLevel = logLevel
	}

	log = logger.New(cfg.Client.LogLevel, cmd.ErrOrStderr())

	stateDir, err := config.ExpandPath(cfg.Client.StateDir)
	if err != nil {
		return err
	}
	state, err = client.OpenState(filepath.Join(stateDir, "state.db"))
	if err != nil {
		return err
	}

	api, err = client.NewAPI(cfg.APIConfig(), log)
	if err != nil {
		_ = closeClient(cmd, args)
		return fmt.Errorf("failed to create API client: %w", err)
	}
	return nil
}

func closeClient(cmd *cobra.Command, args []string) error {
	if state == nil {
		return nil
	}
	err := state.Close()
	state = nil
	return err
}

// storedEndpoint returns the endpoint saved by `notify register`
func storedEndpoint() (string, error) {
	endpoint := state.GetEndpoint()
	if endpoint == "" {
		return "", fmt.Errorf("%w - run 'notify register' first", client.ErrNotConfigured)
	}
	return endpoint, nil
}
