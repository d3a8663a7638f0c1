package gateway

import (
	"fmt"

	"stockpulse/internal/config"
	"stockpulse/internal/gateway/sina"
	"stockpulse/internal/gateway/tencent"
	"stockpulse/internal/market"
	"stockpulse/internal/pkg/httpx"
)

// NewSessionFromConfig 构建两个行情源共享的 HTTP 会话。
func NewSessionFromConfig(cfg *config.Config) (*httpx.Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return httpx.NewSession(httpx.Config{
		Timeout:   cfg.Market.Timeout(),
		UserAgent: cfg.Market.UserAgent,
		ProxyURL:  cfg.Market.Proxy,
	})
}

// NewCoordinatorFromConfig 以腾讯为 A 源、新浪为 B 源组装行情协调器。
func NewCoordinatorFromConfig(cfg *config.Config, session *httpx.Session) (*market.Coordinator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	tc, err := tencent.New(tencent.Config{
		MinuteBaseURL: cfg.Market.Tencent.MinuteBaseURL,
		KlineBaseURL:  cfg.Market.Tencent.KlineBaseURL,
		RatePerSecond: cfg.Market.Tencent.RatePerSecond,
		Burst:         cfg.Market.Tencent.Burst,
	}, session)
	if err != nil {
		return nil, err
	}
	sn, err := sina.New(sina.Config{
		BaseURL:       cfg.Market.Sina.BaseURL,
		RatePerSecond: cfg.Market.Sina.RatePerSecond,
		Burst:         cfg.Market.Sina.Burst,
	}, session)
	if err != nil {
		return nil, err
	}
	return market.NewCoordinator(tc, sn, market.WithBreakers(cfg.Market.BreakerThreshold, cfg.Market.Cooldown())), nil
}
