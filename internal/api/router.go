package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/gem/internal/api/handlers"
	"github.com/wonny/gem/pkg/logger"
)

// signalRate caps on-demand evaluations; each one may hit the market-data provider
const (
	signalRate  = rate.Limit(1)
	signalBurst = 5
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(signalHandler *handlers.SignalHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// 최근 스케줄 결과는 캐시된 값이라 제한 없음
	api.HandleFunc("/signal/latest", signalHandler.GetLatest).Methods(http.MethodGet)

	limited := api.NewRoute().Subrouter()
	limited.Use(rateLimitMiddleware(rate.NewLimiter(signalRate, signalBurst)))
	limited.HandleFunc("/signal", signalHandler.GetSignal).Methods(http.MethodGet)

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "gem-api",
	})
}
