package app

import (
	"context"
	"fmt"
	"time"

	"stockpulse/internal/config"
	"stockpulse/internal/logger"
	"stockpulse/internal/marketsync"
	"stockpulse/internal/pkg/httpx"
	"stockpulse/internal/scheduler"
	"stockpulse/internal/store/gormstore"
	apihttp "stockpulse/internal/transport/http/api"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// App 负责应用级编排：加载配置→初始化依赖→启动 HTTP 与定时同步。
type App struct {
	cfg       *config.Config
	session   *httpx.Session
	store     *gormstore.GormStore
	sync      *marketsync.Service
	scheduler *scheduler.CronScheduler
	http      *apihttp.Server
	Summary   *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动 HTTP 服务与同步调度，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	a.sync.SetContext(ctx)
	if a.scheduler != nil {
		a.scheduler.Start()
		if a.Summary != nil {
			a.Summary.NextSync = a.scheduler.Next()
		}
	}
	if a.Summary != nil {
		a.Summary.Print()
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("api http server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if a.scheduler != nil {
			a.scheduler.Stop(stopCtx)
		}
		a.sync.Wait()
		return nil
	})
	return group.Wait()
}

// Close 释放数据库与 HTTP 连接，可重复调用。
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("[app] close store failed: %v", err)
		}
		a.store = nil
	}
}

// HTTPServer 暴露 API 服务，便于测试直接驱动路由。
func (a *App) HTTPServer() *apihttp.Server {
	if a == nil {
		return nil
	}
	return a.http
}
