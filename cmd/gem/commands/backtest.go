package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wonny/gem/internal/backtest"
	"github.com/wonny/gem/internal/contracts"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "로테이션 백테스트",
	Long: `과거 데이터로 재검증 루프를 실행합니다.

매 재검증 시점마다:
- 4종 자산의 12개월 수익률 계산
- 로테이션 정책으로 보유 자산 결정
- 보유 자산 변경 시 거래 횟수 증가

Example:
  go run ./cmd/gem backtest run --from 2015-01-01 --to 2024-12-31
  go run ./cmd/gem backtest run --from 2015-01-01 --interval 30 --capital 10000`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "백테스트 실행",
		Long: `지정된 기간 동안 재검증 루프를 실행합니다.

Flags:
  --from        시작 날짜 (YYYY-MM-DD, 필수)
  --to          종료 날짜 (YYYY-MM-DD, 기본: 오늘)
  --lookback    모멘텀 기간 (일, 기본: 전략 파일)
  --interval    재검증 주기 (일, 기본: 전략 파일)
  --capital     초기 자본 (0 = 가치 평가 없음, 기본: 전략 파일)

Example:
  go run ./cmd/gem backtest run --from 2015-01-01
  go run ./cmd/gem backtest run --from 2015-01-01 --to 2020-12-31 --interval 7`,
		RunE: runBacktest,
	}

	// Flags
	backtestFrom     string
	backtestTo       string
	backtestLookback int
	backtestInterval int
	backtestCapital  string
	backtestVerbose  bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	// Flags
	backtestRunCmd.Flags().StringVar(&backtestFrom, "from", "", "시작 날짜 (YYYY-MM-DD, 필수)")
	backtestRunCmd.Flags().StringVar(&backtestTo, "to", "", "종료 날짜 (YYYY-MM-DD, 기본: 오늘)")
	backtestRunCmd.Flags().IntVar(&backtestLookback, "lookback", 0, "모멘텀 기간 (일)")
	backtestRunCmd.Flags().IntVar(&backtestInterval, "interval", 0, "재검증 주기 (일)")
	backtestRunCmd.Flags().StringVar(&backtestCapital, "capital", "", "초기 자본")
	backtestRunCmd.Flags().BoolVar(&backtestVerbose, "all", false, "모든 재검증 출력")

	backtestRunCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	from, err := contracts.ParseDate(backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	to := contracts.Day(time.Now())
	if backtestTo != "" {
		if to, err = contracts.ParseDate(backtestTo); err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}
	dateRange, err := contracts.NewDateRange(from, to)
	if err != nil {
		return err
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := backtestConfig(a, dateRange)
	if err != nil {
		return err
	}

	PrintHeader("GEM Backtest",
		fmt.Sprintf("Period    : %s", dateRange),
		fmt.Sprintf("Universe  : %s", strings.Join(instruments(a.universe.All()), " / ")),
		fmt.Sprintf("Lookback  : %d days", cfg.LookbackDays),
		fmt.Sprintf("Interval  : %d days", cfg.IntervalDays),
		fmt.Sprintf("Capital   : %s", formatMoney(cfg.InitialCapital)),
	)

	fmt.Println("📥 Loading price series...")
	series, err := a.loader().LoadAll(ctx, a.universe)
	if err != nil {
		return err
	}

	fmt.Println("🚀 Starting backtest...")
	result, err := a.backtestEngine().Run(ctx, cfg, series)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printBacktestResult(result, backtestVerbose)
	return nil
}

// backtestConfig merges the strategy file with command-line overrides
func backtestConfig(a *app, dateRange contracts.DateRange) (backtest.Config, error) {
	cfg := backtest.Config{
		Range:         dateRange,
		LookbackDays:  a.strategy.Signal.LookbackDays,
		IntervalDays:  a.strategy.Rotation.IntervalDays,
		MaxIterations: a.strategy.Rotation.MaxIterations,
	}
	if backtestLookback > 0 {
		cfg.LookbackDays = backtestLookback
	}
	if backtestInterval > 0 {
		cfg.IntervalDays = backtestInterval
	}

	capital, err := a.strategy.Capital()
	if err != nil {
		return cfg, err
	}
	if backtestCapital != "" {
		if capital, err = decimal.NewFromString(backtestCapital); err != nil {
			return cfg, fmt.Errorf("invalid capital %q: %w", backtestCapital, err)
		}
	}
	cfg.InitialCapital = capital

	return cfg, nil
}

func printBacktestResult(result *backtest.Result, all bool) {
	fmt.Println("\n✅ Backtest Completed")
	fmt.Println("=" + strings.Repeat("=", 60))
	fmt.Println()

	// Summary
	fmt.Println("📊 Summary")
	fmt.Printf("Run ID:        %s\n", result.RunID)
	fmt.Printf("Period:        %s (%d days)\n", result.Config.Range, result.Config.Range.Days())
	fmt.Printf("Revalidations: %d\n", result.Iterations)
	fmt.Printf("Transactions:  %d\n", result.Wallet.TransactionCount)
	fmt.Printf("Holding:       %s\n", result.Wallet.HeldInstrument)
	fmt.Printf("Duration:      %s\n", formatDuration(result.Duration))
	fmt.Println()

	// Performance
	if result.InitialCapital.IsPositive() {
		fmt.Println("💰 Performance")
		fmt.Printf("Initial Capital: %s\n", formatMoney(result.InitialCapital))
		fmt.Printf("Final Equity:    %s\n", formatMoney(result.FinalEquity))
		fmt.Printf("Total Return:    %+.2f%%\n", result.TotalReturn)
		fmt.Printf("Max Drawdown:    %.2f%%\n", result.MaxDrawdown)
		fmt.Println()
	}

	// Revalidations (last 12 unless --all)
	fmt.Println("🔄 Revalidations")
	start := 0
	if !all && len(result.Revalidations) > 12 {
		start = len(result.Revalidations) - 12
		fmt.Printf("  ... %d earlier\n", start)
	}
	for _, r := range result.Revalidations[start:] {
		mark := "  "
		if r.Switched {
			mark = "🔁"
		}
		fmt.Printf("%s %s  %-4s  cash %+7.2f%%  dom %+7.2f%%  intl %+7.2f%%",
			mark, contracts.DateKey(r.Date), r.Decision,
			r.Snapshot.Cash.Value, r.Snapshot.Domestic.Value, r.Snapshot.International.Value)
		if result.InitialCapital.IsPositive() {
			fmt.Printf("  %s", formatMoney(r.Equity))
		}
		fmt.Println()
	}

	// Trades
	if len(result.Trades) > 0 {
		fmt.Println()
		fmt.Println("💹 Trades")
		for _, t := range result.Trades {
			fmt.Printf("%s  %s → %s  %s @ %s\n",
				contracts.DateKey(t.Date), t.From, t.To,
				t.Volume.StringFixed(4), t.Price.StringFixed(2))
		}
	}
}

func instruments(list []contracts.Instrument) []string {
	out := make([]string, len(list))
	for i, inst := range list {
		out[i] = string(inst)
	}
	return out
}
