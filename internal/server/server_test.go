package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growly/resume-bot/internal/observability"
	"github.com/growly/resume-bot/internal/types"
)

type mockStore struct {
	pingErr    error
	metrics    types.QualityMetrics
	metricsErr error
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) GetQualityMetrics(context.Context) (types.QualityMetrics, error) {
	return m.metrics, m.metricsErr
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		store      Store
		wantStatus int
		want       string
	}{
		{name: "no database", wantStatus: http.StatusOK, want: "ok"},
		{name: "database up", store: &mockStore{}, wantStatus: http.StatusOK, want: "ok"},
		{name: "database down", store: &mockStore{pingErr: errors.New("connection refused")}, wantStatus: http.StatusServiceUnavailable, want: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{Store: tt.store})
			w := httptest.NewRecorder()

			s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp["status"])
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	store := &mockStore{metrics: types.ComputeQualityMetrics([]types.Rating{5, 4, 4})}
	s := New(Config{Store: store})
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		TotalRatings int            `json:"total_ratings"`
		Average      float64        `json:"average_rating"`
		Distribution map[string]int `json:"rating_distribution"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.TotalRatings)
	assert.InDelta(t, 4.333, resp.Average, 0.001)
	assert.Equal(t, map[string]int{"1": 0, "2": 0, "3": 0, "4": 2, "5": 1}, resp.Distribution)
}

func TestStatsEndpoint_Errors(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		w := httptest.NewRecorder()
		New(Config{}).Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("query failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		s := New(Config{Store: &mockStore{metricsErr: errors.New("timeout")}})
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "timeout")
	})
}

func TestWebhookEndpoint(t *testing.T) {
	s := New(Config{WebhookPath: "/hook/secret"})
	body := `{"update_id": 77, "message": {"message_id": 1, "chat": {"id": 1001, "type": "private"}, "text": "hi"}}`
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook/secret", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	select {
	case update := <-s.Updates():
		assert.Equal(t, 77, update.UpdateID)
		require.NotNil(t, update.Message)
		assert.Equal(t, int64(1001), update.Message.Chat.ID)
		assert.Equal(t, "hi", update.Message.Text)
	default:
		t.Fatal("update was not queued")
	}
}

func TestWebhookEndpoint_Rejects(t *testing.T) {
	s := New(Config{WebhookPath: "/hook/secret"})

	t.Run("malformed body", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook/secret", strings.NewReader("{not json")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong path", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}")))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hook/secret", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	assert.Empty(t, s.Updates())
}

func TestWebhookEndpoint_SecretToken(t *testing.T) {
	s := New(Config{WebhookPath: "/webhook", WebhookSecret: "s3cr3t-token"})
	forged := `{"update_id": 9, "message": {"message_id": 1, "from": {"id": 42}, "chat": {"id": 42, "type": "private"}, "text": "/start"}}`

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong token", token: "guess", wantStatus: http.StatusUnauthorized},
		{name: "matching token", token: "s3cr3t-token", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(forged))
			if tt.token != "" {
				req.Header.Set(SecretTokenHeader, tt.token)
			}
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	// only the request carrying the secret reached the bot
	assert.Len(t, s.Updates(), 1)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(Config{ShutdownTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, open := <-s.Updates()
	assert.False(t, open)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetrics()
	s := New(Config{Metrics: metrics})

	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/health",status_code="200"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="unmatched",status_code="404"} 1`)
}

func TestMetricsEndpoint_DisabledWithoutMetrics(t *testing.T) {
	w := httptest.NewRecorder()
	New(Config{}).Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
