package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultAPIServer = "https://notify.run/api"
	DefaultWebServer = "https://notify.run"
)

// APIConfig holds API client configuration
type APIConfig struct {
	// APIServer is the base URL of the notify API (e.g. "https://notify.run/api")
	APIServer string

	// WebServer is the base URL of the web front-end used for channel pages
	WebServer string

	// Timeout for HTTP requests (0 = no timeout)
	Timeout time.Duration
}

// SetDefaults fills in unset servers
func (c *APIConfig) SetDefaults() {
	if c.APIServer == "" {
		c.APIServer = DefaultAPIServer
	}
	if c.WebServer == "" {
		c.WebServer = DefaultWebServer
	}
	c.APIServer = strings.TrimRight(c.APIServer, "/")
	c.WebServer = strings.TrimRight(c.WebServer, "/")
}

// API is the HTTP client for the notify API
type API struct {
	config     APIConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewAPI creates a new API client
func NewAPI(config APIConfig, logger zerolog.Logger) (*API, error) {
	config.SetDefaults()

	if _, err := url.ParseRequestURI(config.APIServer); err != nil {
		return nil, fmt.Errorf("invalid APIServer: %w", err)
	}
	if _, err := url.ParseRequestURI(config.WebServer); err != nil {
		return nil, fmt.Errorf("invalid WebServer: %w", err)
	}

	return &API{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.With().Str("component", "api").Logger(),
	}, nil
}

// EndpointURL returns the URL messages are posted to for a channel
func (a *API) EndpointURL(channelID string) string {
	return a.config.APIServer + "/" + url.PathEscape(channelID)
}

// WebLink returns the channel page a second device opens to subscribe
func (a *API) WebLink(channelID string) string {
	return a.config.WebServer + "/c/" + url.PathEscape(channelID)
}

// PreviewImageURL returns the QR code image location for a channel
func (a *API) PreviewImageURL(channelID string) string {
	return a.EndpointURL(channelID) + "/qr.svg"
}

// FetchChannel fetches messages, subscribers and push key of a channel
func (a *API) FetchChannel(ctx context.Context, channelID string) (ChannelSnapshot, error) {
	var snap ChannelSnapshot
	if err := a.doRequest(ctx, http.MethodGet, a.EndpointURL(channelID)+"/json", nil, &snap); err != nil {
		return ChannelSnapshot{}, fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}
	if snap.Messages == nil {
		snap.Messages = []Message{}
	}
	return snap, nil
}

// RegisterSubscription stores a device subscription for a channel
func (a *API) RegisterSubscription(ctx context.Context, channelID string, req SubscribeRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}
	if err := a.doRequest(ctx, http.MethodPost, a.EndpointURL(channelID)+"/subscribe", jsonBody(body), nil); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channelID, err)
	}
	return nil
}

// RegisterChannel creates a new channel
func (a *API) RegisterChannel(ctx context.Context) (*EndpointInfo, error) {
	var info EndpointInfo
	if err := a.doRequest(ctx, http.MethodPost, a.config.APIServer+"/register_channel", nil, &info); err != nil {
		return nil, fmt.Errorf("failed to register channel: %w", err)
	}
	if err := ValidateEndpoint(info.Endpoint); err != nil {
		return nil, err
	}
	return &info, nil
}

// Send posts a message to a channel endpoint
func (a *API) Send(ctx context.Context, endpoint, message string) error {
	if err := ValidateEndpoint(endpoint); err != nil {
		return err
	}
	body := &requestBody{contentType: "text/plain; charset=utf-8", reader: strings.NewReader(message)}
	if err := a.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Info fetches the endpoint description of a channel
func (a *API) Info(ctx context.Context, endpoint string) (*EndpointInfo, error) {
	if err := ValidateEndpoint(endpoint); err != nil {
		return nil, err
	}
	var info EndpointInfo
	if err := a.doRequest(ctx, http.MethodGet, strings.TrimRight(endpoint, "/")+"/info", nil, &info); err != nil {
		return nil, fmt.Errorf("failed to get endpoint info: %w", err)
	}
	return &info, nil
}

// ValidateEndpoint accepts only http and https URLs
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: endpoint should be a URL with an HTTP or HTTPS scheme (scheme was %q)", ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}
	return nil
}

// ChannelIDFromEndpoint returns the last path segment of an endpoint URL
func ChannelIDFromEndpoint(endpoint string) (string, error) {
	if err := ValidateEndpoint(endpoint); err != nil {
		return "", err
	}
	u, _ := url.Parse(endpoint)
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	id := segments[len(segments)-1]
	if id == "" {
		return "", fmt.Errorf("%w: no channel in %q", ErrInvalidEndpoint, endpoint)
	}
	return id, nil
}

type requestBody struct {
	contentType string
	reader      io.Reader
}

func jsonBody(b []byte) *requestBody {
	return &requestBody{contentType: "application/json", reader: bytes.NewReader(b)}
}

// doRequest performs an HTTP request and decodes a JSON response into respBody
func (a *API) doRequest(ctx context.Context, method, fullURL string, body *requestBody, respBody interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = body.reader
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrNetwork, err)
	}

	a.logger.Debug().
		Str("method", method).
		Str("url", fullURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request complete")

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	if respBody != nil {
		if err := json.Unmarshal(bodyBytes, respBody); err != nil {
			return fmt.Errorf("%w: failed to parse response: %v", ErrNetwork, err)
		}
	}

	return nil
}
