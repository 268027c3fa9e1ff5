package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/strategyconfig"
)

// signalCmd represents the signal command
var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "오늘의 로테이션 시그널",
	Long: `최신 데이터로 보유해야 할 자산을 계산합니다.

규칙:
- 미국 주식 수익률 < 현금 수익률   → 채권
- 미국 주식 수익률 > 해외 주식 수익률 → 미국 주식
- 그 외 (동률 포함)              → 해외 주식

Example:
  go run ./cmd/gem signal
  go run ./cmd/gem signal --date 2024-06-14 --source csv`,
	RunE: runSignal,
}

var signalDate string

func init() {
	rootCmd.AddCommand(signalCmd)

	signalCmd.Flags().StringVar(&signalDate, "date", "", "평가 날짜 (YYYY-MM-DD, 기본: 오늘)")
}

func runSignal(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var date time.Time
	if signalDate != "" {
		d, err := contracts.ParseDate(signalDate)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		date = d
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	d, err := a.decisionService().Decide(ctx, date)
	if err != nil {
		return err
	}

	snapshot, err := strategyconfig.NewDecisionSnapshot(a.strategy)
	if err != nil {
		return err
	}

	PrintHeader("GEM Signal",
		fmt.Sprintf("Date      : %s", contracts.DateKey(d.Date)),
		fmt.Sprintf("Strategy  : %s v%s (%s)", snapshot.StrategyID, snapshot.Version, snapshot.ConfigHash[:12]),
	)
	PrintSnapshot(d.Snapshot)
	fmt.Println()
	fmt.Printf("🎯 Hold: %s (%s)\n", d.Instrument, d.Role)
	fmt.Printf("   %s\n", d.Reason)

	PrintCompletion("Signal", time.Since(start))
	return nil
}
