package market

import (
	"sort"
	"time"
)

// Candle 是单个时间桶的 OHLCV 记录，分钟线与日/周/月线共用。
type Candle struct {
	Time     time.Time `json:"time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	Turnover *float64  `json:"turnover,omitempty"`
}

// Date 返回 K 线所在的自然日（保留原时区）。
func (c Candle) Date() time.Time {
	y, m, d := c.Time.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Time.Location())
}

// TurnoverOrZero 缺失成交额按 0 处理。
func (c Candle) TurnoverOrZero() float64 {
	if c.Turnover == nil {
		return 0
	}
	return *c.Turnover
}

// SortCandles 按时间升序排序并去掉重复时间戳（保留靠后的那根）。
func SortCandles(in []Candle) []Candle {
	if len(in) == 0 {
		return in
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].Time.Before(in[j].Time) })
	out := in[:0]
	for _, c := range in {
		n := len(out)
		if n > 0 && out[n-1].Time.Equal(c.Time) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

// LastN 返回末尾 n 根；n<=0 或不足时原样返回。
func LastN(in []Candle, n int) []Candle {
	if n <= 0 || len(in) <= n {
		return in
	}
	return in[len(in)-n:]
}
