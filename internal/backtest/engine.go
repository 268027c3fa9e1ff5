package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/momentum"
	"github.com/wonny/gem/pkg/logger"
)

const (
	// DefaultIntervalDays is the spacing of revalidations
	DefaultIntervalDays = 30
	// DefaultMaxIterations bounds a single run
	DefaultMaxIterations = 10000
)

// Engine runs the revalidation loop over a date range
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	signals   *momentum.Engine
	policy    *momentum.Policy
	simulator *Simulator
	logger    *logger.Logger
}

// Config holds backtest configuration
type Config struct {
	Range          contracts.DateRange
	LookbackDays   int
	IntervalDays   int             // revalidation spacing (e.g. 30)
	MaxIterations  int             // safety bound, 0 = DefaultMaxIterations
	InitialCapital decimal.Decimal // 0 disables paper valuation
}

// Revalidation is one pass of the loop
type Revalidation struct {
	Date     time.Time                 `json:"date"`
	Snapshot *contracts.SignalSnapshot `json:"snapshot"`
	Decision contracts.Instrument      `json:"decision"`
	Reason   string                    `json:"reason"`
	Switched bool                      `json:"switched"`
	Equity   decimal.Decimal           `json:"equity"`
}

// Result holds backtest results
type Result struct {
	RunID      string        `json:"run_id"`
	Config     Config        `json:"config"`
	Duration   time.Duration `json:"duration"`
	Iterations int           `json:"iterations"`

	Revalidations []Revalidation        `json:"revalidations"`
	Trades        []Trade               `json:"trades"`
	Wallet        contracts.WalletState `json:"wallet"`

	// Performance, in percent. Zero without initial capital.
	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalEquity    decimal.Decimal `json:"final_equity"`
	TotalReturn    float64         `json:"total_return"`
	MaxDrawdown    float64         `json:"max_drawdown"`
}

// NewEngine creates a new backtest engine
func NewEngine(
	signals *momentum.Engine,
	policy *momentum.Policy,
	simulator *Simulator,
	logger *logger.Logger,
) *Engine {
	return &Engine{
		signals:   signals,
		policy:    policy,
		simulator: simulator,
		logger:    logger,
	}
}

// Run re-evaluates the rotation every IntervalDays from Range.From while
// Range.To - interval is after the last revalidation. Revalidations happen at
// From, From+interval, ... so a run makes ceil((To-From)/interval) passes.
func (e *Engine) Run(ctx context.Context, config Config, series contracts.SeriesSet) (*Result, error) {
	if config.IntervalDays <= 0 {
		config.IntervalDays = DefaultIntervalDays
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultMaxIterations
	}
	if config.LookbackDays < 0 {
		return nil, fmt.Errorf("lookback must not be negative: %d", config.LookbackDays)
	}
	if config.InitialCapital.IsNegative() {
		return nil, fmt.Errorf("initial capital must not be negative: %s", config.InitialCapital)
	}

	runID := uuid.New().String()
	log := e.logger.WithField("run_id", runID)

	log.WithFields(map[string]interface{}{
		"range":           config.Range.String(),
		"lookback_days":   config.LookbackDays,
		"interval_days":   config.IntervalDays,
		"initial_capital": config.InitialCapital.String(),
	}).Info("Starting backtest")

	startTime := time.Now()
	universe := e.signals.Universe()
	wallet := contracts.NewWalletState(config.Range, config.IntervalDays, universe.Cash)
	e.simulator.Initialize(config.InitialCapital)

	result := &Result{
		RunID:          runID,
		Config:         config,
		InitialCapital: config.InitialCapital,
		Revalidations:  make([]Revalidation, 0),
	}

	stop := config.Range.To.AddDate(0, 0, -config.IntervalDays)
	for stop.After(wallet.LastRevalidation) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest cancelled after %d revalidations: %w", result.Iterations, err)
		}
		if result.Iterations >= config.MaxIterations {
			return nil, fmt.Errorf("after %d revalidations: %w", result.Iterations, contracts.ErrIterationLimit)
		}

		date := wallet.LastRevalidation.AddDate(0, 0, config.IntervalDays)

		snapshot, err := e.signals.Evaluate(date, config.LookbackDays, series)
		if err != nil {
			return nil, fmt.Errorf("revalidation %d: %w", result.Iterations+1, err)
		}

		choice := e.policy.Decide(snapshot)
		held := wallet.HeldInstrument
		equity, switched, err := e.simulator.Rotate(&wallet, choice, date, series)
		if err != nil {
			return nil, fmt.Errorf("revalidation %d at %s: %w", result.Iterations+1, contracts.DateKey(date), err)
		}
		wallet.LastRevalidation = date
		result.Iterations++

		result.Revalidations = append(result.Revalidations, Revalidation{
			Date:     date,
			Snapshot: snapshot,
			Decision: choice,
			Reason:   e.policy.Reason(snapshot),
			Switched: switched,
			Equity:   equity,
		})

		entry := log.WithDate("date", date).WithFields(map[string]interface{}{
			"decision": choice,
			"held":     held,
		})
		if switched {
			entry.Info("Rotation switched")
		} else {
			entry.Debug("Revalidated, holding")
		}
	}

	result.Wallet = wallet
	result.Trades = e.simulator.Trades()
	result.Duration = time.Since(startTime)
	e.finalize(result, series)

	log.WithFields(map[string]interface{}{
		"duration":     result.Duration.String(),
		"iterations":   result.Iterations,
		"transactions": wallet.TransactionCount,
		"held":         wallet.HeldInstrument,
		"total_return": fmt.Sprintf("%.2f%%", result.TotalReturn),
		"max_drawdown": fmt.Sprintf("%.2f%%", result.MaxDrawdown),
	}).Info("Backtest completed")

	return result, nil
}

// finalize marks the wallet to market at Range.To and computes the metrics
func (e *Engine) finalize(result *Result, series contracts.SeriesSet) {
	if !e.simulator.Enabled() {
		return
	}

	final, err := e.simulator.Equity(&result.Wallet, result.Config.Range.To, series)
	if err != nil {
		e.logger.WithError(err).Warn("Final valuation failed, using last revalidation equity")
		final = result.InitialCapital
		if n := len(result.Revalidations); n > 0 {
			final = result.Revalidations[n-1].Equity
		}
	}
	result.FinalEquity = final

	result.TotalReturn, _ = final.Div(result.InitialCapital).Mul(decimal.NewFromInt(100)).Sub(decimal.NewFromInt(100)).Float64()

	curve := make([]decimal.Decimal, 0, len(result.Revalidations)+1)
	for _, r := range result.Revalidations {
		curve = append(curve, r.Equity)
	}
	curve = append(curve, final)
	result.MaxDrawdown = maxDrawdown(curve)
}

// maxDrawdown returns the largest peak-to-trough decline in percent
func maxDrawdown(curve []decimal.Decimal) float64 {
	if len(curve) == 0 {
		return 0
	}

	worst := decimal.Zero
	peak := curve[0]
	for _, equity := range curve {
		if equity.GreaterThan(peak) {
			peak = equity
		}
		if !peak.IsPositive() {
			continue
		}
		drawdown := peak.Sub(equity).Div(peak)
		if drawdown.GreaterThan(worst) {
			worst = drawdown
		}
	}

	pct, _ := worst.Mul(decimal.NewFromInt(100)).Float64()
	return pct
}
