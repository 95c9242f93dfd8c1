package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aeolun/notify/pkg/channelview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	// The written file parses back to the defaults
	_, err = os.Stat(path)
	require.NoError(t, err)
	var written Config
	_, err = toml.DecodeFile(path, &written)
	require.NoError(t, err)
	assert.Equal(t, Default().Server, written.Server)
	assert.Equal(t, Default().Channel, written.Channel)
	assert.Equal(t, Default().Client, written.Client)
	assert.Equal(t, Default().Notifications, written.Notifications)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
api_server = "http://localhost:5000/api"

[channel]
ordering = "latest-issued"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", cfg.Server.APIServer)
	assert.Equal(t, "https://notify.run", cfg.Server.WebServer)
	assert.Equal(t, 30, cfg.Channel.PollIntervalSeconds)
	assert.Equal(t, "latest-issued", cfg.Channel.Ordering)
	assert.True(t, cfg.Notifications.Desktop)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("NOTIFY_SERVER_API_SERVER", "http://env/api")
	t.Setenv("NOTIFY_SERVER_REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("NOTIFY_CHANNEL_POLL_INTERVAL_SECONDS", "5")
	t.Setenv("NOTIFY_CHANNEL_ORDERING", "latest-issued")
	t.Setenv("NOTIFY_CHANNEL_VERIFY_AFTER_SUBSCRIBE", "true")
	t.Setenv("NOTIFY_CLIENT_LOG_LEVEL", "debug")
	t.Setenv("NOTIFY_NOTIFICATIONS_DESKTOP", "false")
	t.Setenv("NOTIFY_METRICS_LISTEN_ADDR", ":9464")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env/api", cfg.Server.APIServer)
	assert.Equal(t, 3, cfg.Server.RequestTimeoutSeconds)
	assert.Equal(t, 5, cfg.Channel.PollIntervalSeconds)
	assert.Equal(t, "latest-issued", cfg.Channel.Ordering)
	assert.True(t, cfg.Channel.VerifyAfterSubscribe)
	assert.Equal(t, "debug", cfg.Client.LogLevel)
	assert.False(t, cfg.Notifications.Desktop)
	assert.Equal(t, ":9464", cfg.Metrics.ListenAddr)
}

func TestLoad_InvalidEnvNumberIgnored(t *testing.T) {
	t.Setenv("NOTIFY_CHANNEL_POLL_INTERVAL_SECONDS", "soon")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Channel.PollIntervalSeconds)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[server\n"), 0644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("unknown_ordering", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[channel]\nordering = \"random\"\n"), 0644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "unknown ordering")
	})

	t.Run("negative_interval", func(t *testing.T) {
		t.Setenv("NOTIFY_CHANNEL_POLL_INTERVAL_SECONDS", "-1")
		_, err := Load(filepath.Join(t.TempDir(), "config.toml"))
		assert.Error(t, err)
	})
}

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		in      string
		want    channelview.Ordering
		wantErr bool
	}{
		{"", channelview.OrderLastCompleted, false},
		{"last-completed", channelview.OrderLastCompleted, false},
		{" Latest-Issued ", channelview.OrderLatestIssued, false},
		{"newest", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseOrdering(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Channel.Ordering = "latest-issued"
	cfg.Channel.VerifyAfterSubscribe = true

	api := cfg.APIConfig()
	assert.Equal(t, "https://notify.run/api", api.APIServer)
	assert.Equal(t, "https://notify.run", api.WebServer)
	assert.Equal(t, 10*time.Second, api.Timeout)

	ctrl, err := cfg.ControllerConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ctrl.PollInterval)
	assert.Equal(t, channelview.OrderLatestIssued, ctrl.Ordering)
	assert.Equal(t, 10*time.Second, ctrl.RequestTimeout)
	assert.True(t, ctrl.VerifyAfterSubscribe)
}

func TestControllerConfig_UnknownOrdering(t *testing.T) {
	cfg := Default()
	cfg.Channel.Ordering = "newest-first"

	_, err := cfg.ControllerConfig()
	assert.ErrorContains(t, err, "unknown ordering")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/x/y")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "y"), got)

	got, err = ExpandPath("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}
