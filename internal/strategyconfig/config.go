package strategyconfig

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/gem/internal/contracts"
)

// Config는 GEM 로테이션 전략의 전체 설정
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Universe   Universe   `yaml:"universe" json:"universe"`
	Signal     Signal     `yaml:"signal" json:"signal"`
	Rotation   Rotation   `yaml:"rotation" json:"rotation"`
	Backtest   Backtest   `yaml:"backtest" json:"backtest"`
	Scheduling Scheduling `yaml:"scheduling" json:"scheduling"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Universe 4종 자산 (역할 고정, 심볼만 변경 가능)
type Universe struct {
	Cash          string `yaml:"cash" json:"cash"`
	Domestic      string `yaml:"domestic" json:"domestic"`
	International string `yaml:"international" json:"international"`
	Bond          string `yaml:"bond" json:"bond"`
}

// Signal 모멘텀 계산
type Signal struct {
	LookbackDays int    `yaml:"lookback_days" json:"lookback_days"`
	PriceField   string `yaml:"price_field" json:"price_field"`
	MaxOffset    int    `yaml:"max_offset_days" json:"max_offset_days"` // 최근접 거래일 탐색 반경
}

// Rotation 재검증 루프
type Rotation struct {
	IntervalDays  int `yaml:"revalidation_interval_days" json:"revalidation_interval_days"`
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
}

// Backtest 모의 평가
type Backtest struct {
	InitialCapital string `yaml:"initial_capital" json:"initial_capital"` // decimal string, "0" = 평가 안 함
}

// Scheduling 일일 시그널 잡
type Scheduling struct {
	SignalCron string `yaml:"signal_cron" json:"signal_cron"` // robfig/cron 6-field spec
}

// Default returns the built-in strategy: BIL / VOO / VEU / BND, 365-day
// lookback on adjusted close, 30-day revalidation.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "gem_default",
			Version:    "1",
		},
		Universe: Universe{
			Cash:          contracts.DefaultCash.String(),
			Domestic:      contracts.DefaultDomestic.String(),
			International: contracts.DefaultInternational.String(),
			Bond:          contracts.DefaultBond.String(),
		},
		Signal: Signal{
			LookbackDays: 365,
			PriceField:   string(contracts.DefaultPriceField),
			MaxOffset:    10,
		},
		Rotation: Rotation{
			IntervalDays:  30,
			MaxIterations: 10000,
		},
		Backtest: Backtest{
			InitialCapital: "10000",
		},
		Scheduling: Scheduling{
			SignalCron: "0 30 6 * * 2-6", // 화~토 06:30 (미국장 마감 후)
		},
	}
}

// UniverseSet converts the configured symbols to a contracts.Universe
func (c *Config) UniverseSet() contracts.Universe {
	return contracts.Universe{
		Cash:          contracts.Instrument(c.Universe.Cash),
		Domestic:      contracts.Instrument(c.Universe.Domestic),
		International: contracts.Instrument(c.Universe.International),
		Bond:          contracts.Instrument(c.Universe.Bond),
	}
}

// Field returns the parsed price field
func (c *Config) Field() (contracts.PriceField, error) {
	return contracts.ParsePriceField(c.Signal.PriceField)
}

// Capital returns the parsed initial capital
func (c *Config) Capital() (decimal.Decimal, error) {
	if c.Backtest.InitialCapital == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(c.Backtest.InitialCapital)
}

// DecisionSnapshot 의사결정 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	StrategyID string    `json:"strategy_id"`
	Version    string    `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
}
