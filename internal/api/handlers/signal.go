package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/decision"
	"github.com/wonny/gem/pkg/logger"
)

// Decider evaluates the rotation for one date
type Decider interface {
	Decide(ctx context.Context, date time.Time) (*decision.Decision, error)
}

// LatestSource exposes the last scheduled decision
type LatestSource interface {
	Last() *decision.Decision
}

// SignalHandler handles rotation signal endpoints
// ⭐ SSOT: 시그널 API 핸들러는 이 구조체에서만
type SignalHandler struct {
	decider Decider
	latest  LatestSource
	logger  *logger.Logger
}

// NewSignalHandler creates a new signal handler. latest may be nil.
func NewSignalHandler(decider Decider, latest LatestSource, log *logger.Logger) *SignalHandler {
	return &SignalHandler{
		decider: decider,
		latest:  latest,
		logger:  log,
	}
}

// GetSignal evaluates the rotation for ?date=YYYY-MM-DD (default today)
// GET /api/signal
func (h *SignalHandler) GetSignal(w http.ResponseWriter, r *http.Request) {
	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := contracts.ParseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
			return
		}
		date = parsed
	}

	d, err := h.decider.Decide(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).WithField("kind", contracts.Kind(err)).Warn("Signal evaluation failed")
		respondJSON(w, statusFor(err), map[string]string{
			"error": err.Error(),
			"kind":  contracts.Kind(err),
		})
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// GetLatest returns the decision of the last scheduled run
// GET /api/signal/latest
func (h *SignalHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if h.latest == nil {
		respondError(w, http.StatusNotFound, "Scheduler not running")
		return
	}

	d := h.latest.Last()
	if d == nil {
		respondError(w, http.StatusNotFound, "No scheduled decision yet")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// statusFor maps an error kind to an HTTP status
func statusFor(err error) int {
	switch contracts.Kind(err) {
	case contracts.KindOutOfRange, contracts.KindDivision:
		return http.StatusUnprocessableEntity
	case contracts.KindFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
