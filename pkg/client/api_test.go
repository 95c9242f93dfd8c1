package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) (*API, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api, err := NewAPI(APIConfig{
		APIServer: server.URL + "/api",
		WebServer: server.URL,
	}, zerolog.Nop())
	require.NoError(t, err)
	return api, server
}

func TestNewAPI(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		api, err := NewAPI(APIConfig{}, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, DefaultAPIServer, api.config.APIServer)
		assert.Equal(t, DefaultWebServer, api.config.WebServer)
	})

	t.Run("trailing_slash_trimmed", func(t *testing.T) {
		api, err := NewAPI(APIConfig{APIServer: "http://localhost:5000/api/", WebServer: "http://localhost:3000/"}, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:5000/api/abc", api.EndpointURL("abc"))
		assert.Equal(t, "http://localhost:3000/c/abc", api.WebLink("abc"))
		assert.Equal(t, "http://localhost:5000/api/abc/qr.svg", api.PreviewImageURL("abc"))
	})

	t.Run("invalid_server", func(t *testing.T) {
		api, err := NewAPI(APIConfig{APIServer: "not a url"}, zerolog.Nop())
		assert.Error(t, err)
		assert.Nil(t, api)
		assert.Contains(t, err.Error(), "invalid APIServer")
	})
}

func TestAPI_FetchChannel(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/abc/json", r.URL.Path)
			w.Write([]byte(`{"messages":[{"message":"hi","time":"12:00"}],"subscriptions":["dev1"],"pubKey":"k1"}`))
		})

		snap, err := api.FetchChannel(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, []Message{{Message: "hi", Time: "12:00"}}, snap.Messages)
		assert.Equal(t, []string{"dev1"}, snap.Subscriptions)
		assert.Equal(t, "k1", snap.PushKey)
	})

	t.Run("absent_messages_become_empty", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"subscriptions":[],"pubKey":"k1"}`))
		})

		snap, err := api.FetchChannel(context.Background(), "abc")
		require.NoError(t, err)
		assert.NotNil(t, snap.Messages)
		assert.Empty(t, snap.Messages)
	})

	t.Run("not_found", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such channel", http.StatusNotFound)
		})

		_, err := api.FetchChannel(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})

	t.Run("server_error_is_network_error", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := api.FetchChannel(context.Background(), "abc")
		assert.True(t, errors.Is(err, ErrNetwork))
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	t.Run("unreachable_server", func(t *testing.T) {
		api, server := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {})
		server.Close()

		_, err := api.FetchChannel(context.Background(), "abc")
		assert.True(t, errors.Is(err, ErrNetwork))
	})

	t.Run("malformed_json", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"messages":`))
		})

		_, err := api.FetchChannel(context.Background(), "abc")
		assert.True(t, errors.Is(err, ErrNetwork))
	})
}

func TestAPI_RegisterSubscription(t *testing.T) {
	var got SubscribeRequest
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/abc/subscribe", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	req := SubscribeRequest{
		ID: "dev1",
		Subscription: PushSubscription{
			Keys: SubscriptionKeys{P256dh: "pub", Auth: "auth"},
		},
	}
	require.NoError(t, api.RegisterSubscription(context.Background(), "abc", req))
	assert.Equal(t, req, got)
}

func TestAPI_RegisterChannel(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var api *API
		api, _ = newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/register_channel", r.URL.Path)
			json.NewEncoder(w).Encode(EndpointInfo{
				ChannelID:   "abc",
				Endpoint:    api.EndpointURL("abc"),
				ChannelPage: api.WebLink("abc"),
			})
		})

		info, err := api.RegisterChannel(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc", info.ChannelID)
		assert.Equal(t, api.EndpointURL("abc"), info.Endpoint)
	})

	t.Run("bad_endpoint_in_response", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"channelId":"abc","endpoint":"ftp://x/abc"}`))
		})

		_, err := api.RegisterChannel(context.Background())
		assert.True(t, errors.Is(err, ErrInvalidEndpoint))
	})
}

func TestAPI_Send(t *testing.T) {
	var body string
	var api *API
	api, _ = newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/abc", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	})

	require.NoError(t, api.Send(context.Background(), api.EndpointURL("abc"), "message goes here"))
	assert.Equal(t, "message goes here", body)

	err := api.Send(context.Background(), "mailto:someone", "x")
	assert.True(t, errors.Is(err, ErrInvalidEndpoint))
}

func TestAPI_Info(t *testing.T) {
	var api *API
	api, _ = newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/abc/info", r.URL.Path)
		json.NewEncoder(w).Encode(EndpointInfo{Endpoint: api.EndpointURL("abc"), ChannelPage: api.WebLink("abc")})
	})

	info, err := api.Info(context.Background(), api.EndpointURL("abc"))
	require.NoError(t, err)
	assert.Equal(t, api.WebLink("abc"), info.ChannelPage)
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		wantErr  bool
	}{
		{"https", "https://notify.run/abc", false},
		{"http", "http://localhost:5000/abc", false},
		{"ftp scheme", "ftp://notify.run/abc", true},
		{"no scheme", "notify.run/abc", true},
		{"empty", "", true},
		{"no host", "https:///abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEndpoint(tt.endpoint)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidEndpoint))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChannelIDFromEndpoint(t *testing.T) {
	id, err := ChannelIDFromEndpoint("https://notify.run/api/abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	id, err = ChannelIDFromEndpoint("https://notify.run/abc123/")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	_, err = ChannelIDFromEndpoint("https://notify.run/")
	assert.True(t, errors.Is(err, ErrInvalidEndpoint))
}

func TestChannelSnapshot_HasSubscriber(t *testing.T) {
	snap := ChannelSnapshot{Subscriptions: []string{"dev1", "dev2"}}
	assert.True(t, snap.HasSubscriber("dev1"))
	assert.True(t, snap.HasSubscriber("dev2"))
	assert.False(t, snap.HasSubscriber("dev3"))
	assert.False(t, snap.HasSubscriber(""))
	assert.False(t, ChannelSnapshot{}.HasSubscriber("dev1"))
}
