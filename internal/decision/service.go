package decision

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/momentum"
	"github.com/wonny/gem/pkg/logger"
)

// UniverseLoader fetches every series of the universe up front
type UniverseLoader interface {
	LoadAll(ctx context.Context, universe contracts.Universe) (contracts.SeriesSet, error)
}

// Decision is the rotation choice for a single date
type Decision struct {
	Date        time.Time                 `json:"date"`
	Instrument  contracts.Instrument      `json:"instrument"`
	Role        contracts.Role            `json:"role"`
	Reason      string                    `json:"reason"`
	Snapshot    *contracts.SignalSnapshot `json:"snapshot"`
	EvaluatedAt time.Time                 `json:"evaluated_at"`
}

// Service evaluates today's (or any date's) rotation on fresh data
// ⭐ SSOT: 단일 일자 의사결정은 여기서만 (CLI/API/스케줄러 공용)
type Service struct {
	loader       UniverseLoader
	engine       *momentum.Engine
	policy       *momentum.Policy
	lookbackDays int
	logger       *logger.Logger
	now          func() time.Time
}

// NewService creates a decision service
func NewService(loader UniverseLoader, engine *momentum.Engine, policy *momentum.Policy, lookbackDays int, log *logger.Logger) *Service {
	if lookbackDays <= 0 {
		lookbackDays = momentum.DefaultLookbackDays
	}
	return &Service{
		loader:       loader,
		engine:       engine,
		policy:       policy,
		lookbackDays: lookbackDays,
		logger:       log.Component("decision"),
		now:          time.Now,
	}
}

// Decide loads the universe and evaluates date. A zero date means today (UTC).
func (s *Service) Decide(ctx context.Context, date time.Time) (*Decision, error) {
	if date.IsZero() {
		date = s.now().UTC()
	}

	series, err := s.loader.LoadAll(ctx, s.engine.Universe())
	if err != nil {
		return nil, err
	}
	return s.Evaluate(date, series)
}

// Evaluate runs the signal engine and policy on already loaded series
func (s *Service) Evaluate(date time.Time, series contracts.SeriesSet) (*Decision, error) {
	date = contracts.Day(date)

	snapshot, err := s.engine.Evaluate(date, s.lookbackDays, series)
	if err != nil {
		return nil, fmt.Errorf("decide %s: %w", contracts.DateKey(date), err)
	}

	choice := s.policy.Decide(snapshot)
	role, _ := s.engine.Universe().Role(choice)

	d := &Decision{
		Date:        date,
		Instrument:  choice,
		Role:        role,
		Reason:      s.policy.Reason(snapshot),
		Snapshot:    snapshot,
		EvaluatedAt: s.now(),
	}

	s.logger.WithDate("date", date).WithFields(map[string]interface{}{
		"instrument": choice,
		"role":       role,
	}).Info("Rotation decided")

	return d, nil
}
