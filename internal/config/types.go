package config

import "strings"

// Config 是 StockPulse 的主配置载体。
type Config struct {
	App       AppConfig       `toml:"app"`
	Market    MarketConfig    `toml:"market"`
	Quote     QuoteConfig     `toml:"quote"`
	History   HistoryConfig   `toml:"history"`
	Sync      SyncConfig      `toml:"sync"`
	Watchlist WatchlistConfig `toml:"watchlist"`
}

type AppConfig struct {
	Env       string `toml:"env"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	HTTPAddr  string `toml:"http_addr"`
	LogPath   string `toml:"log_path"`
}

// MarketConfig 描述行情源访问参数，超时/UA/代理由两个源共享。
type MarketConfig struct {
	Tencent          TencentConfig `toml:"tencent"`
	Sina             SinaConfig    `toml:"sina"`
	TimeoutSeconds   int           `toml:"timeout_seconds"`
	UserAgent        string        `toml:"user_agent"`
	Proxy            string        `toml:"proxy"`
	BreakerThreshold int           `toml:"breaker_threshold"`
	BreakerCooldown  int           `toml:"breaker_cooldown_seconds"`
}

type TencentConfig struct {
	MinuteBaseURL string  `toml:"minute_base_url"`
	KlineBaseURL  string  `toml:"kline_base_url"`
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
}

type SinaConfig struct {
	BaseURL       string  `toml:"base_url"`
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
}

type QuoteConfig struct {
	TTLSeconds  int `toml:"ttl_seconds"`
	MinuteCount int `toml:"minute_count"`
	Concurrency int `toml:"concurrency"`
}

type HistoryConfig struct {
	DBPath       string `toml:"db_path"`
	DefaultLimit int    `toml:"default_limit"`
}

// SyncConfig 控制日线同步任务，Cron 为带秒的六段表达式。
type SyncConfig struct {
	Enabled     bool   `toml:"enabled"`
	Cron        string `toml:"cron"`
	Concurrency int    `toml:"concurrency"`
}

type WatchlistConfig struct {
	Path string `toml:"path"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
