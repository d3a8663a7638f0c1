package app

import (
	"fmt"
	"strings"
	"time"

	"stockpulse/internal/config"
)

type StartupSummary struct {
	HTTPAddr  string
	Watchlist WatchlistSummary
	Sources   SourceSummary
	Quote     QuoteSummary
	Sync      SyncSummary
	NextSync  time.Time
}

type WatchlistSummary struct {
	Path  string
	Codes []string
}

type SourceSummary struct {
	TencentMinute string
	TencentKline  string
	Sina          string
	Timeout       time.Duration
	Breaker       int
}

type QuoteSummary struct {
	TTL         time.Duration
	MinuteCount int
	Concurrency int
}

type SyncSummary struct {
	Enabled bool
	Cron    string
	DBPath  string
}

func newStartupSummary(cfg *config.Config, codes []string) *StartupSummary {
	return &StartupSummary{
		HTTPAddr:  cfg.App.HTTPAddr,
		Watchlist: WatchlistSummary{Path: cfg.Watchlist.Path, Codes: codes},
		Sources: SourceSummary{
			TencentMinute: cfg.Market.Tencent.MinuteBaseURL,
			TencentKline:  cfg.Market.Tencent.KlineBaseURL,
			Sina:          cfg.Market.Sina.BaseURL,
			Timeout:       cfg.Market.Timeout(),
			Breaker:       cfg.Market.BreakerThreshold,
		},
		Quote: QuoteSummary{
			TTL:         cfg.Quote.TTL(),
			MinuteCount: cfg.Quote.MinuteCount,
			Concurrency: cfg.Quote.Concurrency,
		},
		Sync: SyncSummary{
			Enabled: cfg.Sync.Enabled,
			Cron:    cfg.Sync.Cron,
			DBPath:  cfg.History.DBPath,
		},
	}
}

func (s *StartupSummary) Print() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%*s\n", 40+len("启动配置摘要 (STARTUP SUMMARY)")/2, "启动配置摘要 (STARTUP SUMMARY)")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Println("[自选股 (WATCHLIST)]")
	fmt.Printf("  配置文件: %s\n", s.Watchlist.Path)
	fmt.Printf("  股票代码: %s\n", formatList(s.Watchlist.Codes))
	fmt.Println()

	fmt.Println("[行情源 (SOURCES)]")
	fmt.Printf("  腾讯分钟线: %s\n", s.Sources.TencentMinute)
	fmt.Printf("  腾讯 K 线: %s\n", s.Sources.TencentKline)
	fmt.Printf("  新浪 K 线: %s\n", s.Sources.Sina)
	fmt.Printf("  请求超时: %s\n", s.Sources.Timeout)
	if s.Sources.Breaker > 0 {
		fmt.Printf("  熔断阈值: 连续失败 %d 次\n", s.Sources.Breaker)
	} else {
		fmt.Println("  熔断阈值: (关闭)")
	}
	fmt.Println()

	fmt.Println("[实时行情 (QUOTES)]")
	fmt.Printf("  缓存时长: %s\n", s.Quote.TTL)
	fmt.Printf("  分钟根数: %d\n", s.Quote.MinuteCount)
	fmt.Printf("  并发数量: %d\n", s.Quote.Concurrency)
	fmt.Println()

	fmt.Println("[日线同步 (SYNC)]")
	fmt.Printf("  数据库: %s\n", s.Sync.DBPath)
	if s.Sync.Enabled {
		fmt.Printf("  定时表达式: %s\n", s.Sync.Cron)
		if !s.NextSync.IsZero() {
			fmt.Printf("  下次执行: %s\n", s.NextSync.Format("2006-01-02 15:04:05"))
		}
	} else {
		fmt.Println("  定时同步: (关闭)")
	}
	fmt.Println()

	fmt.Printf("[HTTP] 监听地址: %s\n", s.HTTPAddr)
	fmt.Println(strings.Repeat("=", 80))
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
