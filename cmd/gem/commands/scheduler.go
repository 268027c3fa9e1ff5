package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/gem/internal/scheduler"
	"github.com/wonny/gem/internal/scheduler/jobs"
	"github.com/wonny/gem/pkg/config"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 즉시 실행합니다.

Subcommands:
  start   - 스케줄러 시작
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/gem scheduler start
  go run ./cmd/gem scheduler run rotation_signal`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- data_refresh: 화-토 06:00 (csv/postgres 소스 + API 키가 있을 때)
- rotation_signal: 전략 파일의 signal_cron (기본 화-토 06:30)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, _, err := initScheduler(ctx, a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobStats(sched)
	fmt.Println("Press Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jobName := args[0]

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, signalJob, err := initScheduler(ctx, a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	run, err := sched.Trigger(ctx, jobName)
	if err != nil {
		return err
	}
	if !run.OK() {
		return fmt.Errorf("job %s failed after %d attempts: %s", jobName, run.Attempts, run.Error)
	}

	if d := signalJob.Last(); d != nil && jobName == signalJob.Name() {
		PrintSnapshot(d.Snapshot)
		fmt.Printf("🎯 Hold: %s (%s)\n", d.Instrument, d.Role)
	}
	PrintCompletion(jobName, run.Duration)
	return nil
}

// initScheduler registers the signal job and, when a local store and an API key exist, the refresh job
func initScheduler(ctx context.Context, a *app) (*scheduler.Scheduler, *jobs.SignalJob, error) {
	log := a.log

	sched := scheduler.New(log)

	signalJob := jobs.NewSignalJob(a.decisionService(), a.strategy.Scheduling.SignalCron, log.Component("signal_job"))
	if err := sched.Add(signalJob); err != nil {
		return nil, nil, err
	}

	local := a.cfg.DataSource == config.SourceCSV || a.cfg.DataSource == config.SourcePostgres
	if local && a.cfg.AlphaVantage.APIKey != "" {
		refresher, err := a.refresher(ctx, a.cfg.DataSource)
		if err != nil {
			return nil, nil, err
		}
		refreshJob := jobs.NewDataRefreshJob(refresher, a.universe, log.Component("refresh_job"))
		if err := sched.Add(refreshJob); err != nil {
			return nil, nil, err
		}
	} else {
		log.Debug("Data refresh job not registered (remote source or no API key)")
	}

	return sched, signalJob, nil
}

func printJobStats(sched *scheduler.Scheduler) {
	fmt.Println("\nRegistered jobs:")
	for _, st := range sched.Status() {
		fmt.Printf("  - %s (%s)", st.Name, st.Schedule)
		if st.NextRun != nil {
			fmt.Printf("  next: %s", st.NextRun.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	fmt.Println()
}
