package strategyconfig

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// cronParser accepts the seconds-first specs the scheduler runs with
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Universe ===
	if err := cfg.UniverseSet().Validate(); err != nil {
		return ValidationError{"universe", err.Error()}
	}

	// === Signal ===
	if cfg.Signal.LookbackDays <= 0 {
		return ValidationError{"signal.lookback_days", "must be > 0"}
	}
	if _, err := cfg.Field(); err != nil {
		return ValidationError{"signal.price_field", err.Error()}
	}
	if cfg.Signal.MaxOffset <= 0 {
		return ValidationError{"signal.max_offset_days", "must be > 0"}
	}

	// === Rotation ===
	if cfg.Rotation.IntervalDays <= 0 {
		return ValidationError{"rotation.revalidation_interval_days", "must be > 0"}
	}
	if cfg.Rotation.MaxIterations <= 0 {
		return ValidationError{"rotation.max_iterations", "must be > 0"}
	}

	// === Backtest ===
	capital, err := cfg.Capital()
	if err != nil {
		return ValidationError{"backtest.initial_capital", "must be a decimal number"}
	}
	if capital.LessThan(decimal.Zero) {
		return ValidationError{"backtest.initial_capital", "must be >= 0"}
	}

	// === Scheduling ===
	if cfg.Scheduling.SignalCron != "" {
		if _, err := cronParser.Parse(cfg.Scheduling.SignalCron); err != nil {
			return ValidationError{"scheduling.signal_cron", err.Error()}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 6개월 미만 룩백은 노이즈에 민감
	if cfg.Signal.LookbackDays < 180 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_LOOKBACK",
			Message: "lookback < 180일: 단기 노이즈에 민감",
		})
	}

	if cfg.Rotation.IntervalDays > cfg.Signal.LookbackDays {
		warnings = append(warnings, Warning{
			Code:    "SPARSE_REVALIDATION",
			Message: "재검증 주기가 룩백보다 김",
		})
	}

	// 장기 휴장보다 큰 탐색 반경은 데이터 공백을 가림
	if cfg.Signal.MaxOffset > 14 {
		warnings = append(warnings, Warning{
			Code:    "WIDE_OFFSET",
			Message: "max_offset_days > 14: 데이터 누락을 감출 수 있음",
		})
	}

	return warnings
}
