package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/internal/api/handlers"
	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/decision"
	"github.com/wonny/gem/pkg/config"
	"github.com/wonny/gem/pkg/logger"
)

type stubDecider struct {
	got time.Time
	err error
}

func (s *stubDecider) Decide(ctx context.Context, date time.Time) (*decision.Decision, error) {
	s.got = date
	if s.err != nil {
		return nil, s.err
	}
	return &decision.Decision{Date: date, Instrument: "VEU", Role: contracts.RoleInternational}, nil
}

type stubLatest struct{ d *decision.Decision }

func (s stubLatest) Last() *decision.Decision { return s.d }

func serve(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestRouter_Health(t *testing.T) {
	router := NewRouter(handlers.NewSignalHandler(&stubDecider{}, nil, logger.Nop()), logger.Nop())

	rec, body := serve(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Signal(t *testing.T) {
	decider := &stubDecider{}
	router := NewRouter(handlers.NewSignalHandler(decider, nil, logger.Nop()), logger.Nop())

	rec, body := serve(t, router, "/api/signal?date=2024-03-15")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "VEU", body["instrument"])
	assert.Equal(t, "international", body["role"])
	assert.Equal(t, "2024-03-15", contracts.DateKey(decider.got))

	rec, _ = serve(t, router, "/api/signal")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decider.got.IsZero(), "no date means today")

	rec, body = serve(t, router, "/api/signal?date=15-03-2024")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "date")
}

func TestRouter_SignalErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"short history", &contracts.OutOfRangeError{Symbol: "VEU", Reason: "lookback extends before available data"}, http.StatusUnprocessableEntity, "out_of_range"},
		{"provider down", &contracts.FetchError{Symbol: "VOO", Err: errors.New("503")}, http.StatusBadGateway, "fetch"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(handlers.NewSignalHandler(&stubDecider{err: tt.err}, nil, logger.Nop()), logger.Nop())

			rec, body := serve(t, router, "/api/signal")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind, body["kind"])
		})
	}
}

func TestRouter_Latest(t *testing.T) {
	noScheduler := NewRouter(handlers.NewSignalHandler(&stubDecider{}, nil, logger.Nop()), logger.Nop())
	rec, _ := serve(t, noScheduler, "/api/signal/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	empty := NewRouter(handlers.NewSignalHandler(&stubDecider{}, stubLatest{}, logger.Nop()), logger.Nop())
	rec, _ = serve(t, empty, "/api/signal/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	latest := stubLatest{d: &decision.Decision{Instrument: "BND", Role: contracts.RoleBond}}
	withDecision := NewRouter(handlers.NewSignalHandler(&stubDecider{}, latest, logger.Nop()), logger.Nop())
	rec, body := serve(t, withDecision, "/api/signal/latest")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BND", body["instrument"])
}

func TestRouter_RecoversPanics(t *testing.T) {
	router := NewRouter(handlers.NewSignalHandler(nil, nil, logger.Nop()), logger.Nop())

	rec, body := serve(t, router, "/api/signal")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestRouter_RequestID(t *testing.T) {
	router := NewRouter(handlers.NewSignalHandler(&stubDecider{}, nil, logger.Nop()), logger.Nop())

	rec, _ := serve(t, router, "/health")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestRouter_SignalRateLimit(t *testing.T) {
	router := NewRouter(handlers.NewSignalHandler(&stubDecider{}, stubLatest{}, logger.Nop()), logger.Nop())

	for i := 0; i < signalBurst; i++ {
		rec, _ := serve(t, router, "/api/signal")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec, body := serve(t, router, "/api/signal")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, body["error"], "Too many")

	// latest is served from memory and never throttled
	rec, _ = serve(t, router, "/api/signal/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := &config.Config{Port: "0", Env: "test"}
	srv := New(cfg, logger.Nop(), http.NewServeMux())
	assert.Equal(t, ":0", srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
