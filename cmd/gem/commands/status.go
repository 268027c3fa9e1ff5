package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/strategyconfig"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "설정 및 데이터 상태 확인",
	Long: `현재 설정과 데이터 소스 상태를 표시합니다.

표시 정보:
- 전략 파일 (ID, 버전, 해시)
- 데이터 소스 / 캐시 / DB 연결 상태
- 자산별 가격 이력 범위

Example:
  go run ./cmd/gem status
  go run ./cmd/gem status --source postgres`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, err := strategyconfig.NewDecisionSnapshot(a.strategy)
	if err != nil {
		return err
	}

	PrintHeader("GEM Status",
		fmt.Sprintf("Env       : %s", a.cfg.Env),
		fmt.Sprintf("Strategy  : %s v%s", snapshot.StrategyID, snapshot.Version),
		fmt.Sprintf("Hash      : %s", snapshot.ConfigHash),
		fmt.Sprintf("Source    : %s", a.cfg.DataSource),
	)

	// Storage
	fmt.Println("🗄️  Storage")
	if a.redis != nil && a.redis.Enabled() {
		latency, err := a.redis.Ping(ctx)
		if err != nil {
			fmt.Printf("  Redis     : ❌ %s %v\n", a.redis.Addr(), err)
		} else {
			fmt.Printf("  Redis     : ✅ %s %dms (ttl %s)\n", a.redis.Addr(), latency.Milliseconds(), a.cfg.Redis.TTL)
		}
	} else {
		fmt.Println("  Redis     : - disabled")
	}
	if a.db != nil {
		health, err := a.db.HealthCheck(ctx)
		if err != nil {
			fmt.Printf("  Postgres  : ❌ %v\n", err)
		} else {
			fmt.Printf("  Postgres  : ✅ %dms (conns %d/%d, idle %d)\n",
				health.ResponseTime.Milliseconds(), health.TotalConns, health.MaxConns, health.IdleConns)
		}
	} else {
		fmt.Println("  Postgres  : - not used")
	}
	fmt.Println()

	// Series coverage
	fmt.Println("📈 Price History")
	for _, inst := range a.universe.All() {
		role, _ := a.universe.Role(inst)
		series, err := a.fetcher.FetchDailySeries(ctx, inst)
		if err != nil {
			fmt.Printf("  %-5s %-13s ❌ [%s] %v\n", inst, role, contracts.Kind(err), err)
			continue
		}
		if series.Len() == 0 {
			fmt.Printf("  %-5s %-13s ⚠️  empty\n", inst, role)
			continue
		}
		fmt.Printf("  %-5s %-13s %6d bars  %s ~ %s\n", inst, role, series.Len(),
			contracts.DateKey(series.Earliest()), contracts.DateKey(series.Latest()))
	}

	return nil
}
