package app

import (
	"context"
	"fmt"
	"time"

	"stockpulse/internal/config"
	"stockpulse/internal/gateway"
	"stockpulse/internal/history"
	"stockpulse/internal/logger"
	"stockpulse/internal/market"
	"stockpulse/internal/marketsync"
	"stockpulse/internal/pkg/httpx"
	"stockpulse/internal/quote"
	"stockpulse/internal/scheduler"
	"stockpulse/internal/store/gormstore"
	apihttp "stockpulse/internal/transport/http/api"
	"stockpulse/internal/watchlist"
)

const syncJobName = "daily-bar-sync"

type AppBuilder struct {
	cfg *config.Config

	sessionFn     func(*config.Config) (*httpx.Session, error)
	coordinatorFn func(*config.Config, *httpx.Session) (*market.Coordinator, error)
	storeFn       func(string) (*gormstore.GormStore, error)
	watchlistFn   func(string) (*watchlist.Registry, error)
	httpFn        func(apihttp.ServerConfig) (*apihttp.Server, error)

	nowFn func() time.Time
}

type AppBuilderOption func(*AppBuilder)

// WithWatchlist 使用给定的自选股注册表，跳过文件加载。
func WithWatchlist(reg *watchlist.Registry) AppBuilderOption {
	return func(b *AppBuilder) {
		if reg != nil {
			b.watchlistFn = func(string) (*watchlist.Registry, error) { return reg, nil }
		}
	}
}

// WithCoordinator 替换行情协调器，测试中指向本地桩服务。
func WithCoordinator(fn func(*config.Config, *httpx.Session) (*market.Coordinator, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.coordinatorFn = fn
		}
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:           cfg,
		sessionFn:     gateway.NewSessionFromConfig,
		coordinatorFn: gateway.NewCoordinatorFromConfig,
		storeFn:       gormstore.NewGormStore,
		watchlistFn:   watchlist.NewRegistry,
		httpFn:        apihttp.NewServer,
		nowFn:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (_ *App, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	registry, err := b.watchlistFn(cfg.Watchlist.Path)
	if err != nil {
		return nil, fmt.Errorf("加载自选股失败: %w", err)
	}
	logger.Infof("✓ 已加载 %d 只自选股: %v", len(registry.Codes()), registry.Codes())

	session, err := b.sessionFn(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化 HTTP 会话失败: %w", err)
	}
	defer func() {
		if err != nil {
			session.Close()
		}
	}()
	coordinator, err := b.coordinatorFn(cfg, session)
	if err != nil {
		return nil, fmt.Errorf("初始化行情源失败: %w", err)
	}

	st, err := b.storeFn(cfg.History.DBPath)
	if err != nil {
		return nil, fmt.Errorf("初始化 gorm 存储失败: %w", err)
	}
	defer func() {
		if err != nil {
			_ = st.Close()
		}
	}()
	if n, err := st.MarkStaleRunning(ctx, b.nowFn()); err != nil {
		logger.Warnf("[app] mark stale sync logs failed: %v", err)
	} else if n > 0 {
		logger.Warnf("[app] %d sync runs interrupted by last shutdown marked as fail", n)
	}

	cache := quote.NewMinuteCache(coordinator, cfg.Quote.TTL(), cfg.Quote.MinuteCount)
	quotes := quote.NewService(cache, cfg.Quote.Concurrency)
	registry.OnChange(func(snap watchlist.Snapshot) {
		// 持仓变更后丢弃旧缓存，下一次请求按新列表拉取
		cache.Clear()
		logger.Infof("[watchlist] reloaded version=%d holdings=%d", snap.Version, len(snap.Holdings))
	})

	historySvc := history.NewService(st, cfg.History.DefaultLimit)
	syncSvc, err := marketsync.NewService(marketsync.Config{Concurrency: cfg.Sync.Concurrency}, coordinator, registry, st, st)
	if err != nil {
		return nil, err
	}

	var sched *scheduler.CronScheduler
	if cfg.Sync.Enabled {
		sched = scheduler.NewCronScheduler(market.Shanghai)
		if err := sched.Register(syncJobName, cfg.Sync.Cron, syncSvc.RunScheduled); err != nil {
			return nil, err
		}
	}

	server, err := b.httpFn(apihttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Holdings: registry,
		Quotes:   quotes,
		History:  historySvc,
		Prices:   coordinator,
		Sync:     syncSvc,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		session:   session,
		store:     st,
		sync:      syncSvc,
		scheduler: sched,
		http:      server,
		Summary:   newStartupSummary(cfg, registry.Codes()),
	}, nil
}
