package config

import (
	"strings"
)

// 默认值常量
const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultAppLogFormat      = "text"
	defaultAppHTTPAddr       = ":9991"
	defaultAppLogPath        = "/data/logs/stockpulse.log"
	defaultTencentMinuteURL  = "http://ifzq.gtimg.cn"
	defaultTencentKlineURL   = "http://web.ifzq.gtimg.cn"
	defaultSinaURL           = "http://money.finance.sina.com.cn"
	defaultMarketTimeout     = 10
	defaultSourceRate        = 5
	defaultSourceBurst       = 5
	defaultBreakerThreshold  = 5
	defaultBreakerCooldown   = 60
	defaultQuoteTTL          = 60
	defaultQuoteMinuteCount  = 250
	defaultQuoteConcurrency  = 8
	defaultHistoryDBPath     = "/data/db/stockpulse.db"
	defaultHistoryLimit      = 250
	defaultSyncCron          = "0 30 16 * * 1-5"
	defaultSyncConcurrency   = 4
	defaultWatchlistPath     = "configs/watchlist.yaml"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Quote.applyDefaults(keys)
	c.History.applyDefaults(keys)
	c.Sync.applyDefaults(keys)
	c.Watchlist.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.tencent.minute_base_url", &m.Tencent.MinuteBaseURL, defaultTencentMinuteURL),
		stringFieldDefault("market.tencent.kline_base_url", &m.Tencent.KlineBaseURL, defaultTencentKlineURL),
		stringFieldDefault("market.sina.base_url", &m.Sina.BaseURL, defaultSinaURL),
		positiveIntDefault("market.timeout_seconds", &m.TimeoutSeconds, defaultMarketTimeout),
		positiveFloatDefault("market.tencent.rate_per_second", &m.Tencent.RatePerSecond, defaultSourceRate),
		positiveIntDefault("market.tencent.burst", &m.Tencent.Burst, defaultSourceBurst),
		positiveFloatDefault("market.sina.rate_per_second", &m.Sina.RatePerSecond, defaultSourceRate),
		positiveIntDefault("market.sina.burst", &m.Sina.Burst, defaultSourceBurst),
		// breaker_threshold 显式设为 0 表示关闭熔断
		positiveIntDefault("market.breaker_threshold", &m.BreakerThreshold, defaultBreakerThreshold),
		positiveIntDefault("market.breaker_cooldown_seconds", &m.BreakerCooldown, defaultBreakerCooldown),
	)
	m.Tencent.MinuteBaseURL = strings.TrimRight(m.Tencent.MinuteBaseURL, "/")
	m.Tencent.KlineBaseURL = strings.TrimRight(m.Tencent.KlineBaseURL, "/")
	m.Sina.BaseURL = strings.TrimRight(m.Sina.BaseURL, "/")
}

func (q *QuoteConfig) applyDefaults(keys keySet) {
	if q == nil {
		return
	}
	applyFieldDefaults(keys,
		positiveIntDefault("quote.ttl_seconds", &q.TTLSeconds, defaultQuoteTTL),
		positiveIntDefault("quote.minute_count", &q.MinuteCount, defaultQuoteMinuteCount),
		positiveIntDefault("quote.concurrency", &q.Concurrency, defaultQuoteConcurrency),
	)
}

func (h *HistoryConfig) applyDefaults(keys keySet) {
	if h == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("history.db_path", &h.DBPath, defaultHistoryDBPath),
		positiveIntDefault("history.default_limit", &h.DefaultLimit, defaultHistoryLimit),
	)
}

func (s *SyncConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("sync.enabled", &s.Enabled, true),
		stringFieldDefault("sync.cron", &s.Cron, defaultSyncCron),
		positiveIntDefault("sync.concurrency", &s.Concurrency, defaultSyncConcurrency),
	)
}

func (w *WatchlistConfig) applyDefaults(keys keySet) {
	if w == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("watchlist.path", &w.Path, defaultWatchlistPath),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func positiveIntDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func positiveFloatDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
