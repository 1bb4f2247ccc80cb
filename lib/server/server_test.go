package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const testSecret = "s3cret"

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	s, err := New(cfg, nil, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func post(s *Server, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhook_QueuesUpdate(t *testing.T) {
	s := newTestServer(t, Config{Mode: "webhook", WebhookSecret: testSecret})

	rec := post(s, "/telegram/"+testSecret,
		`{"update_id": 10, "message": {"message_id": 1, "text": "hi", "chat": {"id": 99, "type": "private"}, "from": {"id": 5}}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case update := <-s.Updates():
		assert.Equal(t, 10, update.UpdateID)
		require.NotNil(t, update.Message)
		assert.Equal(t, "hi", update.Message.Text)
		assert.Equal(t, int64(99), update.Message.Chat.ID)
		assert.Equal(t, int64(5), update.Message.From.ID)
	default:
		t.Fatal("update was not queued")
	}
}

func TestWebhook_WrongSecret(t *testing.T) {
	s := newTestServer(t, Config{Mode: "webhook", WebhookSecret: testSecret})

	rec := post(s, "/telegram/wrong", `{"update_id": 1}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, s.Updates())
}

func TestWebhook_InvalidPayload(t *testing.T) {
	s := newTestServer(t, Config{Mode: "webhook", WebhookSecret: testSecret})

	rec := post(s, "/telegram/"+testSecret, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_DisabledWithoutSecret(t *testing.T) {
	s := newTestServer(t, Config{Mode: "polling"})

	rec := post(s, "/telegram/anything", `{"update_id": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhook_AfterClose(t *testing.T) {
	s := newTestServer(t, Config{Mode: "webhook", WebhookSecret: testSecret})
	s.Close()
	s.Close()

	rec := post(s, "/telegram/"+testSecret, `{"update_id": 1}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebhook_QueueFull(t *testing.T) {
	s := newTestServer(t, Config{Mode: "webhook", WebhookSecret: testSecret, UpdateBuffer: 1})
	require.Equal(t, http.StatusOK, post(s, "/telegram/"+testSecret, `{"update_id": 1}`).Code)

	done := make(chan int)
	go func() {
		done <- post(s, "/telegram/"+testSecret, `{"update_id": 2}`).Code
	}()
	select {
	case code := <-done:
		assert.Equal(t, http.StatusServiceUnavailable, code)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook request blocked on a full queue")
	}

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	update, ok := <-s.Updates()
	require.True(t, ok)
	assert.Equal(t, 1, update.UpdateID)
	_, ok = <-s.Updates()
	assert.False(t, ok)
}

func TestWebhook_TracesRequest(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	s := newTestServer(t, Config{
		Mode:           "webhook",
		WebhookSecret:  testSecret,
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
	})

	require.Equal(t, http.StatusOK, post(s, "/telegram/"+testSecret, `{"update_id": 7}`).Code)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.NotContains(t, ended[0].Name(), testSecret)
	assert.Contains(t, ended[0].Attributes(), attribute.Int("update_id", 7))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Config{Mode: "polling"})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "polling", resp.Mode)
}

func TestHealth_CheckFails(t *testing.T) {
	s := newTestServer(t, Config{
		Mode:  "webhook",
		Check: func(context.Context) error { return errors.New("database is locked") },
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, "database is locked", resp.Error)
}
