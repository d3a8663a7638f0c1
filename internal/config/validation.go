package config

import (
	"fmt"
	"net/url"
	"strings"

	"stockpulse/internal/scheduler"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Quote.validate(); err != nil {
		return err
	}
	if err := c.History.validate(); err != nil {
		return err
	}
	if err := c.Sync.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Watchlist.Path) == "" {
		return fmt.Errorf("watchlist.path is required")
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error, got %q", a.LogLevel)
	}
	switch strings.ToLower(strings.TrimSpace(a.LogFormat)) {
	case "text", "json":
	default:
		return fmt.Errorf("app.log_format must be text or json, got %q", a.LogFormat)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr is required")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	for key, raw := range map[string]string{
		"market.tencent.minute_base_url": m.Tencent.MinuteBaseURL,
		"market.tencent.kline_base_url":  m.Tencent.KlineBaseURL,
		"market.sina.base_url":           m.Sina.BaseURL,
	} {
		if err := validateURL(key, raw); err != nil {
			return err
		}
	}
	if strings.TrimSpace(m.Proxy) != "" {
		if err := validateURL("market.proxy", m.Proxy); err != nil {
			return err
		}
	}
	if m.TimeoutSeconds <= 0 {
		return fmt.Errorf("market.timeout_seconds must be > 0")
	}
	if m.BreakerThreshold < 0 {
		return fmt.Errorf("market.breaker_threshold must be >= 0")
	}
	if m.BreakerThreshold > 0 && m.BreakerCooldown <= 0 {
		return fmt.Errorf("market.breaker_cooldown_seconds must be > 0 when breaker is enabled")
	}
	return nil
}

func (q *QuoteConfig) validate() error {
	if q.TTLSeconds <= 0 {
		return fmt.Errorf("quote.ttl_seconds must be > 0")
	}
	if q.MinuteCount <= 0 {
		return fmt.Errorf("quote.minute_count must be > 0")
	}
	if q.Concurrency <= 0 {
		return fmt.Errorf("quote.concurrency must be > 0")
	}
	return nil
}

func (h *HistoryConfig) validate() error {
	if strings.TrimSpace(h.DBPath) == "" {
		return fmt.Errorf("history.db_path is required")
	}
	if h.DefaultLimit <= 0 || h.DefaultLimit > 1000 {
		return fmt.Errorf("history.default_limit must be within 1..1000")
	}
	return nil
}

func (s *SyncConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if err := scheduler.ValidateSpec(s.Cron); err != nil {
		return fmt.Errorf("sync.cron invalid: %w", err)
	}
	if s.Concurrency <= 0 {
		return fmt.Errorf("sync.concurrency must be > 0")
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}
