package delivery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(WithScheme("http"))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_SendEvent(t *testing.T) {
	var (
		gotPath, gotQuery, gotContentType, gotBody string
		gotMethod                                  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t)
	err := c.SendEvent(context.Background(), EventRequest{
		Server:      strings.TrimPrefix(srv.URL, "http://") + "/v3",
		EventType:   "a",
		PublisherID: "pub-1",
		Host:        "news.example.com",
		Body:        []byte(`{"event":"a"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v3/a", gotPath)
	assert.Contains(t, gotQuery, "publisherId=pub-1")
	assert.Contains(t, gotQuery, "host=news.example.com")
	assert.True(t, strings.HasPrefix(gotContentType, "text/plain"))
	assert.Equal(t, `{"event":"a"}`, gotBody)
}

func TestClient_SendEvent_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t)
	err := c.SendEvent(context.Background(), EventRequest{
		Server:    strings.TrimPrefix(srv.URL, "http://"),
		EventType: "i",
	})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_FetchConfig(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    ServerConfig
		wantErr error
	}{
		{
			name:   "valid config",
			status: http.StatusOK,
			body:   `{"a":1,"i":0,"bat":"1"}`,
			want:   ServerConfig{"a": 1.0, "i": 0.0, "bat": "1"},
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `{"a":1`,
			wantErr: ErrMalformedConfig,
		},
		{
			name:    "json null",
			status:  http.StatusOK,
			body:    `null`,
			wantErr: ErrMalformedConfig,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: ErrUnexpectedStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotQuery string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotQuery = r.URL.RawQuery
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(t)
			cfg, err := c.FetchConfig(context.Background(), ConfigRequest{
				ConfigServer: strings.TrimPrefix(srv.URL, "http://") + "/v3",
				PublisherID:  "pub-1",
				Host:         "news.example.com",
			})

			assert.Equal(t, "/v3/c", gotPath)
			assert.Contains(t, gotQuery, "publisherId=pub-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestServerConfig_Enabled(t *testing.T) {
	cfg := ServerConfig{
		"a":     1.0,
		"i":     0.0,
		"bat":   "1",
		"x":     "0",
		"y":     true,
		"z":     "yes",
		"other": nil,
	}

	assert.True(t, cfg.Enabled("a"))
	assert.False(t, cfg.Enabled("i"))
	assert.True(t, cfg.Enabled("bat"))
	assert.False(t, cfg.Enabled("x"))
	assert.True(t, cfg.Enabled("y"))
	assert.False(t, cfg.Enabled("z"))
	assert.False(t, cfg.Enabled("other"))
	assert.False(t, cfg.Enabled("missing"))
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig("a", "i", "bat")

	assert.True(t, cfg.Enabled("a"))
	assert.True(t, cfg.Enabled("i"))
	assert.True(t, cfg.Enabled("bat"))
	assert.Equal(t, 1, cfg[IsErrorKey])
	assert.False(t, cfg.Enabled("auctionInit"))
}
