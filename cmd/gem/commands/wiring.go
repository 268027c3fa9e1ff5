package commands

import (
	"context"
	"fmt"

	"github.com/wonny/gem/internal/backtest"
	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/decision"
	"github.com/wonny/gem/internal/external/alphavantage"
	"github.com/wonny/gem/internal/marketdata"
	"github.com/wonny/gem/internal/momentum"
	"github.com/wonny/gem/internal/strategyconfig"
	"github.com/wonny/gem/pkg/config"
	"github.com/wonny/gem/pkg/database"
	"github.com/wonny/gem/pkg/httputil"
	"github.com/wonny/gem/pkg/logger"
	"github.com/wonny/gem/pkg/redis"
)

// app holds the dependencies every command shares
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	universe contracts.Universe
	field    contracts.PriceField

	fetcher contracts.SeriesFetcher
	db      *database.DB
	redis   *redis.Client
}

// bootstrap loads config and strategy and connects the configured data source
func bootstrap(ctx context.Context) (*app, error) {
	// 1. Load config
	opts := []config.Option{config.WithDataSource(dataSource), config.WithStrategyFile(strategyFile)}
	if verbose {
		opts = append(opts, config.WithLogLevel("debug"))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load strategy
	strategy, err := strategyconfig.Load(cfg.StrategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	field, err := strategy.Field()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		strategy: strategy,
		universe: strategy.UniverseSet(),
		field:    field,
	}

	// 4. Connect data source
	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"source":   cfg.DataSource,
		"strategy": strategy.Meta.StrategyID,
		"cache":    a.redis != nil && a.redis.Enabled(),
	}).Debug("Application initialized")

	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	var upstream contracts.SeriesFetcher

	switch a.cfg.DataSource {
	case config.SourceAlphaVantage:
		upstream = a.provider()
	case config.SourceCSV:
		upstream = marketdata.NewCSVSource(a.cfg.DataDir)
	case config.SourcePostgres:
		repo, err := a.repository(ctx)
		if err != nil {
			return err
		}
		upstream = repo
	default:
		return fmt.Errorf("unknown data source %q", a.cfg.DataSource)
	}

	rc, err := redis.New(a.cfg)
	if err != nil {
		// 캐시는 선택 사항: 연결 실패 시 캐시 없이 진행
		a.log.WithError(err).Warn("Redis unavailable, series cache disabled")
		a.fetcher = upstream
		return nil
	}
	a.redis = rc

	if rc.Enabled() {
		cache := redis.NewCache(rc, "gem")
		a.fetcher = marketdata.NewCachedFetcher(upstream, cache, a.cfg.Redis.TTL, a.log)
	} else {
		a.fetcher = upstream
	}
	return nil
}

// provider returns the throttled Alpha Vantage client
func (a *app) provider() *alphavantage.Client {
	httpClient := httputil.New(a.log, a.cfg.AlphaVantage.Timeout).
		WithRateLimit(a.cfg.AlphaVantage.RequestsPerMinute, 1)
	return alphavantage.NewClient(httpClient, a.cfg.AlphaVantage.BaseURL, a.cfg.AlphaVantage.APIKey, a.log)
}

// repository opens the database once and returns the price store
func (a *app) repository(ctx context.Context) (*marketdata.SeriesRepository, error) {
	if a.db == nil {
		db, err := database.New(ctx, a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
	}

	applied, err := a.db.Migrate(ctx, marketdata.Migrations)
	if err != nil {
		return nil, err
	}
	if applied > 0 {
		a.log.WithField("applied", applied).Info("Database migrations applied")
	}
	return marketdata.NewSeriesRepository(a.db.Pool), nil
}

func (a *app) loader() *marketdata.Loader {
	return marketdata.NewLoader(a.fetcher, a.log)
}

func (a *app) resolver() *momentum.Resolver {
	return momentum.NewResolver(a.strategy.Signal.MaxOffset)
}

func (a *app) signalEngine(resolver *momentum.Resolver) *momentum.Engine {
	return momentum.NewEngine(resolver, a.universe, a.field, a.log.Component("momentum"))
}

func (a *app) decisionService() *decision.Service {
	return decision.NewService(
		a.loader(),
		a.signalEngine(a.resolver()),
		momentum.NewPolicy(a.universe),
		a.strategy.Signal.LookbackDays,
		a.log,
	)
}

func (a *app) backtestEngine() *backtest.Engine {
	resolver := a.resolver()
	return backtest.NewEngine(
		a.signalEngine(resolver),
		momentum.NewPolicy(a.universe),
		backtest.NewSimulator(resolver, a.field, a.log.Component("simulator")),
		a.log.Component("backtest"),
	)
}

// Close releases connections
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// refresher copies Alpha Vantage history into the csv or postgres store
func (a *app) refresher(ctx context.Context, store string) (*marketdata.Refresher, error) {
	if a.cfg.AlphaVantage.APIKey == "" {
		return nil, fmt.Errorf("ALPHAVANTAGE_API_KEY is required to refresh data")
	}

	var sink contracts.SeriesStore
	switch store {
	case config.SourceCSV:
		sink = marketdata.NewCSVSource(a.cfg.DataDir)
	case config.SourcePostgres:
		repo, err := a.repository(ctx)
		if err != nil {
			return nil, err
		}
		sink = repo
	default:
		return nil, fmt.Errorf("unknown store %q (csv|postgres)", store)
	}

	// 원본 데이터는 캐시를 거치지 않고 항상 새로 받음
	loader := marketdata.NewLoader(a.provider(), a.log)
	return marketdata.NewRefresher(loader, sink, a.log), nil
}
