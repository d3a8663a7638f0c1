package tencent

import (
	"strings"
)

const (
	defaultMinuteBaseURL = "http://ifzq.gtimg.cn"
	defaultKlineBaseURL  = "http://web.ifzq.gtimg.cn"
)

type Config struct {
	MinuteBaseURL string
	KlineBaseURL  string

	// RatePerSecond<=0 表示不限速
	RatePerSecond float64
	Burst         int
}

func (c *Config) withDefaults() Config {
	out := *c
	out.MinuteBaseURL = strings.TrimRight(strings.TrimSpace(out.MinuteBaseURL), "/")
	if out.MinuteBaseURL == "" {
		out.MinuteBaseURL = defaultMinuteBaseURL
	}
	out.KlineBaseURL = strings.TrimRight(strings.TrimSpace(out.KlineBaseURL), "/")
	if out.KlineBaseURL == "" {
		out.KlineBaseURL = defaultKlineBaseURL
	}
	if out.Burst <= 0 {
		out.Burst = 1
	}
	return out
}
