package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/onkernel/finbot/lib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newSecretRouter(secret string) http.Handler {
	r := chi.NewRouter()
	r.With(VerifySecret(secret, "secret")).Post("/telegram/{secret}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestVerifySecret(t *testing.T) {
	h := newSecretRouter("s3cret")

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"matching path", "/telegram/s3cret", "", http.StatusNoContent},
		{"matching path and header", "/telegram/s3cret", "s3cret", http.StatusNoContent},
		{"wrong path", "/telegram/nope", "", http.StatusUnauthorized},
		{"prefix of secret", "/telegram/s3cre", "", http.StatusUnauthorized},
		{"wrong header", "/telegram/s3cret", "nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(SecretTokenHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestVerifySecret_EmptySecretRejectsEverything(t *testing.T) {
	r := chi.NewRouter()
	r.With(VerifySecret("", "secret")).Post("/telegram/{secret}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/", nil))
	assert.NotEqual(t, http.StatusNoContent, rec.Code)
}

func TestAccessLogger_UsesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(AccessLogger(log))
	r.Post("/telegram/{secret}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/telegram/s3cret", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "/telegram/{secret}", entry["path"])
	assert.Equal(t, float64(http.StatusAccepted), entry["status"])
	assert.Equal(t, float64(2), entry["bytes"])
	assert.NotContains(t, buf.String(), "s3cret")
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	m, err := NewHTTPMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestInjectLogger(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	var got *slog.Logger
	h := InjectLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logger.FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Same(t, log, got)
}

func TestTracing_NamesSpanAfterRoute(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	r := chi.NewRouter()
	r.Use(Tracing("finbot", r, tp))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})
	r.Post("/telegram/{secret}", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, trace.SpanFromContext(r.Context()).SpanContext().IsValid())
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/telegram/s3cret", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Contains(t, ended[0].Name(), "/telegram/{secret}")
	assert.NotContains(t, ended[0].Name(), "s3cret")
}
