// Package config loads the notify client configuration from a TOML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aeolun/notify/pkg/channelview"
	"github.com/aeolun/notify/pkg/client"
)

// DefaultPath is where the config file lives unless --config says otherwise
const DefaultPath = "~/.config/notify/config.toml"

// Config represents the structure of the config file
type Config struct {
	Server        ServerSection        `toml:"server"`
	Channel       ChannelSection       `toml:"channel"`
	Client        ClientSection        `toml:"client"`
	Notifications NotificationsSection `toml:"notifications"`
	Metrics       MetricsSection       `toml:"metrics"`
}

type ServerSection struct {
	APIServer             string `toml:"api_server"`
	WebServer             string `toml:"web_server"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

type ChannelSection struct {
	PollIntervalSeconds  int    `toml:"poll_interval_seconds"`
	Ordering             string `toml:"ordering"`
	VerifyAfterSubscribe bool   `toml:"verify_after_subscribe"`
}

type ClientSection struct {
	StateDir string `toml:"state_dir"`
	LogLevel string `toml:"log_level"`
}

type NotificationsSection struct {
	Desktop bool `toml:"desktop"`
}

type MetricsSection struct {
	ListenAddr string `toml:"listen_addr"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Server: ServerSection{
			APIServer:             client.DefaultAPIServer,
			WebServer:             client.DefaultWebServer,
			RequestTimeoutSeconds: 10,
		},
		Channel: ChannelSection{
			PollIntervalSeconds: 30,
			Ordering:            channelview.OrderLastCompleted.String(),
		},
		Client: ClientSection{
			StateDir: "~/.config/notify",
			LogLevel: "info",
		},
		Notifications: NotificationsSection{
			Desktop: true,
		},
	}
}

// Load loads configuration from a TOML file, creates a default one if not
// found, and applies environment variable overrides. Keys missing from the
// file keep their defaults.
func Load(path string) (Config, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return Config{}, err
	}

	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Running without a writable config directory is fine
		_ = writeDefault(path)
	} else if _, err := toml.DecodeFile(path, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	config = applyEnvOverrides(config)
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks values that cannot be corrected silently
func (c Config) Validate() error {
	if _, err := ParseOrdering(c.Channel.Ordering); err != nil {
		return err
	}
	if c.Channel.PollIntervalSeconds < 0 {
		return fmt.Errorf("poll_interval_seconds must not be negative, got %d", c.Channel.PollIntervalSeconds)
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative, got %d", c.Server.RequestTimeoutSeconds)
	}
	return nil
}

// ExpandPath expands a leading ~/ to the user's home directory
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// ParseOrdering parses the ordering setting
func ParseOrdering(s string) (channelview.Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-completed":
		return channelview.OrderLastCompleted, nil
	case "latest-issued":
		return channelview.OrderLatestIssued, nil
	default:
		return 0, fmt.Errorf("unknown ordering %q (want last-completed or latest-issued)", s)
	}
}

// APIConfig returns the API client configuration
func (c Config) APIConfig() client.APIConfig {
	return client.APIConfig{
		APIServer: c.Server.APIServer,
		WebServer: c.Server.WebServer,
		Timeout:   time.Duration(c.Server.RequestTimeoutSeconds) * time.Second,
	}
}

// ControllerConfig returns the channel view configuration. Logger and
// metrics are left for the caller.
func (c Config) ControllerConfig() (channelview.Config, error) {
	ordering, err := ParseOrdering(c.Channel.Ordering)
	if err != nil {
		return channelview.Config{}, err
	}
	return channelview.Config{
		PollInterval:         time.Duration(c.Channel.PollIntervalSeconds) * time.Second,
		Ordering:             ordering,
		RequestTimeout:       time.Duration(c.Server.RequestTimeoutSeconds) * time.Second,
		VerifyAfterSubscribe: c.Channel.VerifyAfterSubscribe,
	}, nil
}

// applyEnvOverrides applies environment variable overrides to the config
// Environment variables follow the pattern: NOTIFY_SECTION_KEY
// Example: NOTIFY_CHANNEL_POLL_INTERVAL_SECONDS=10
func applyEnvOverrides(config Config) Config {
	// Server section
	if val := os.Getenv("NOTIFY_SERVER_API_SERVER"); val != "" {
		config.Server.APIServer = val
	}
	if val := os.Getenv("NOTIFY_SERVER_WEB_SERVER"); val != "" {
		config.Server.WebServer = val
	}
	if val := os.Getenv("NOTIFY_SERVER_REQUEST_TIMEOUT_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			config.Server.RequestTimeoutSeconds = seconds
		}
	}

	// Channel section
	if val := os.Getenv("NOTIFY_CHANNEL_POLL_INTERVAL_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			config.Channel.PollIntervalSeconds = seconds
		}
	}
	if val := os.Getenv("NOTIFY_CHANNEL_ORDERING"); val != "" {
		config.Channel.Ordering = val
	}
	if val := os.Getenv("NOTIFY_CHANNEL_VERIFY_AFTER_SUBSCRIBE"); val != "" {
		if verify, err := strconv.ParseBool(val); err == nil {
			config.Channel.VerifyAfterSubscribe = verify
		}
	}

	// Client section
	if val := os.Getenv("NOTIFY_CLIENT_STATE_DIR"); val != "" {
		config.Client.StateDir = val
	}
	if val := os.Getenv("NOTIFY_CLIENT_LOG_LEVEL"); val != "" {
		config.Client.LogLevel = val
	}

	// Notifications section
	if val := os.Getenv("NOTIFY_NOTIFICATIONS_DESKTOP"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			config.Notifications.Desktop = enabled
		}
	}

	// Metrics section
	if val := os.Getenv("NOTIFY_METRICS_LISTEN_ADDR"); val != "" {
		config.Metrics.ListenAddr = val
	}

	return config
}

// writeDefault writes the default config to a file with all options documented
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	content := `# notify configuration
# This file was auto-generated with default values
#
# Environment variables can override these settings:
# NOTIFY_SECTION_KEY (e.g., NOTIFY_CHANNEL_POLL_INTERVAL_SECONDS=10)

[server]
# Base URL of the notify API
api_server = "https://notify.run/api"

# Base URL of the web front-end (channel pages)
web_server = "https://notify.run"

# Timeout for each request in seconds (0 = no timeout)
request_timeout_seconds = 10

[channel]
# How often the channel view polls for new messages
poll_interval_seconds = 30

# Which result wins when polls overlap:
#   "last-completed" - whichever poll finishes last is shown
#   "latest-issued"  - results of older polls are discarded
ordering = "last-completed"

# Poll again right after subscribing to confirm the server lists this device
# verify_after_subscribe = false

[client]
# Where the device keys, identities and registrations are stored
state_dir = "~/.config/notify"

# Log level: debug, info, warn, error
log_level = "info"

[notifications]
# Desktop notification for new messages on channels this device is subscribed to
desktop = true

[metrics]
# Serve prometheus metrics on this address while viewing a channel
# Uncomment to enable:
# listen_addr = "127.0.0.1:9464"
`

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
