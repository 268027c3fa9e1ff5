package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/marketdata"
	"github.com/wonny/gem/pkg/config"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "가격 데이터 수집",
	Long: `Alpha Vantage에서 4종 자산의 일별 가격을 받아 로컬 저장소에 기록합니다.

저장 후에는 --source csv 또는 --source postgres 로
API 호출 없이 시그널/백테스트를 실행할 수 있습니다.

Example:
  go run ./cmd/gem fetch --store csv
  go run ./cmd/gem fetch --store postgres`,
	RunE: runFetch,
}

var fetchStore string

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchStore, "store", config.SourceCSV, "저장소 (csv|postgres)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	refresher, err := a.refresher(ctx, fetchStore)
	if err != nil {
		return err
	}

	PrintHeader("GEM Data Fetch",
		fmt.Sprintf("Universe  : %v", instruments(a.universe.All())),
		fmt.Sprintf("Store     : %s", fetchStore),
	)

	report, err := refresher.Refresh(ctx, a.universe)
	if err != nil {
		return err
	}

	symbols := make([]string, 0, len(report.Records))
	for inst := range report.Records {
		symbols = append(symbols, string(inst))
	}
	sort.Strings(symbols)

	for _, s := range symbols {
		inst := contracts.Instrument(s)
		fmt.Printf("  %-5s %6d records  (latest %s)\n", inst, report.Records[inst], contracts.DateKey(report.Latest[inst]))
	}

	// 새 데이터가 저장되었으므로 캐시된 시리즈는 폐기
	if cached, ok := a.fetcher.(*marketdata.CachedFetcher); ok {
		if err := cached.Invalidate(ctx, a.universe); err != nil {
			a.log.WithError(err).Warn("Series cache invalidation failed")
		}
	}

	PrintCompletion("Fetch", report.Duration)
	return nil
}
