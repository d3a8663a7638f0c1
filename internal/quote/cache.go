package quote

import (
	"context"
	"time"

	"stockpulse/internal/logger"
	"stockpulse/internal/market"
	"stockpulse/internal/store"
)

const (
	DefaultTTL         = 60 * time.Second
	DefaultMinuteCount = 250
	defaultCacheSize   = 256
)

// PriceFetcher 由 market.Coordinator 实现。
type PriceFetcher interface {
	GetPrice(ctx context.Context, symbol string, endDate time.Time, count int, freq market.Frequency) []market.Candle
}

type minuteEntry struct {
	preClose  *float64
	bars      []market.Candle
	fetchedAt time.Time
}

// MinuteCache 缓存每只股票的 (昨收, 当日分钟线)，ttl 内同一代码只拉取一次。
type MinuteCache struct {
	fetcher PriceFetcher
	store   *store.TTLStore[minuteEntry]
	count   int
	nowFn   func() time.Time
}

func NewMinuteCache(fetcher PriceFetcher, ttl time.Duration, count int) *MinuteCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if count <= 0 {
		count = DefaultMinuteCount
	}
	return &MinuteCache{
		fetcher: fetcher,
		store:   store.NewTTLStore[minuteEntry](ttl, defaultCacheSize),
		count:   count,
		nowFn:   time.Now,
	}
}

// WithClock 替换时钟，测试用。
func (c *MinuteCache) WithClock(now func() time.Time) *MinuteCache {
	if now != nil {
		c.nowFn = now
		c.store.WithClock(now)
	}
	return c
}

// TodayMinutes 返回昨收（无前一交易日数据时为 nil）与最近一个交易日的分钟线。
// 拉取为空时同样缓存，ttl 内不会重复请求。
func (c *MinuteCache) TodayMinutes(ctx context.Context, symbol string) (*float64, []market.Candle) {
	if e, ok := c.store.Get(symbol); ok {
		return e.preClose, cloneCandles(e.bars)
	}

	gen := c.store.Generation()
	raw := c.fetcher.GetPrice(ctx, symbol, time.Time{}, c.count, market.Minute)
	preClose, bars := splitSession(raw)
	entry := minuteEntry{preClose: preClose, bars: bars, fetchedAt: c.nowFn()}
	if !c.store.SetAt(gen, symbol, entry) {
		logger.Debugf("[quote] cache cleared during fetch of %s, result not cached", symbol)
	}
	return preClose, cloneCandles(bars)
}

// Clear 清空全部缓存，而不仅是某一只股票。清空前已发出的拉取不会写回缓存。
func (c *MinuteCache) Clear() {
	c.store.Clear()
	logger.Debugf("[quote] minute cache cleared")
}

func cloneCandles(in []market.Candle) []market.Candle {
	out := make([]market.Candle, len(in))
	copy(out, in)
	return out
}
