package sina

import "strings"

const defaultBaseURL = "http://money.finance.sina.com.cn"

type Config struct {
	BaseURL string

	RatePerSecond float64
	Burst         int
}

func (c *Config) withDefaults() Config {
	out := *c
	out.BaseURL = strings.TrimRight(strings.TrimSpace(out.BaseURL), "/")
	if out.BaseURL == "" {
		out.BaseURL = defaultBaseURL
	}
	if out.Burst <= 0 {
		out.Burst = 1
	}
	return out
}
