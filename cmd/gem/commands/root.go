package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/gem/internal/contracts"
)

var (
	// Global flags
	strategyFile string
	dataSource   string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gem",
	Short: "GEM - Global Equities Momentum 로테이션",
	Long: `GEM Unified CLI

현금(BIL) / 미국 주식(VOO) / 해외 주식(VEU) / 채권(BND) 4종 자산 중
12개월 모멘텀으로 하나를 보유하는 로테이션 전략.

Usage:
  go run ./cmd/gem [command]

Examples:
  go run ./cmd/gem signal
  go run ./cmd/gem backtest run --from 2015-01-01 --to 2024-12-31
  go run ./cmd/gem fetch --store csv
  go run ./cmd/gem scheduler start
  go run ./cmd/gem api`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Failures are printed with their kind; the caller exits non-zero.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ [%s] %v\n", contracts.Kind(err), err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: STRATEGY_FILE or built-in)")
	rootCmd.PersistentFlags().StringVar(&dataSource, "source", "", "market data source: alphavantage|csv|postgres (default: DATA_SOURCE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
