package market

import (
	"context"
	"time"

	"stockpulse/internal/logger"
	"stockpulse/internal/pkg/circuit"
)

// Coordinator 按周期选择数据源并做主备切换。
//
// 路由规则：1m 只有 A 源（腾讯）提供；其余周期先走 B 源（新浪），失败后用相同参数走 A 源。
// 每个源每次调用只尝试一次，不做退避重试。两者都失败时记录错误并返回空序列。
type Coordinator struct {
	sourceA Source
	sourceB Source

	breakers map[string]*circuit.Breaker
}

type CoordinatorOption func(*Coordinator)

// WithBreakers 为每个数据源挂一个熔断器；threshold<=0 等价于不启用。
func WithBreakers(threshold int, cooldown time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if threshold <= 0 {
			return
		}
		for _, src := range []Source{c.sourceA, c.sourceB} {
			if src == nil {
				continue
			}
			c.breakers[src.Name()] = circuit.NewBreaker("source."+src.Name(), threshold, cooldown)
		}
	}
}

// NewCoordinator sourceA 必须支持分钟线；sourceB 为日线及以上的首选源。
func NewCoordinator(sourceA, sourceB Source, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		sourceA:  sourceA,
		sourceB:  sourceB,
		breakers: make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// GetPrice 返回升序 K 线，永不返回错误；空切片表示当前无可用数据。
func (c *Coordinator) GetPrice(ctx context.Context, symbol string, endDate time.Time, count int, freq Frequency) []Candle {
	spec, ok := freq.Spec()
	if !ok {
		logger.Errorf("[provider] unsupported frequency %d for %s", freq, symbol)
		return []Candle{}
	}
	req := FetchRequest{Symbol: symbol, Frequency: freq, Count: count, EndDate: endDate}

	if spec.Intraday {
		out, err := c.try(ctx, c.sourceA, req)
		if err != nil {
			logger.Errorf("[provider] all sources failed for %s %s: %v", symbol, spec.Key, err)
			return []Candle{}
		}
		return out
	}

	out, err := c.try(ctx, c.sourceB, req)
	if err == nil {
		return out
	}
	logger.Debugf("[provider] primary source failed for %s %s: %v, switching to backup", symbol, spec.Key, err)

	out, err = c.try(ctx, c.sourceA, req)
	if err != nil {
		logger.Errorf("[provider] all sources failed for %s %s: %v", symbol, spec.Key, err)
		return []Candle{}
	}
	return out
}

// GetPriceByKey 解析 1m/1d/1w/1M 后调用 GetPrice；只有周期非法时返回错误。
func (c *Coordinator) GetPriceByKey(ctx context.Context, symbol string, endDate time.Time, count int, key string) ([]Candle, error) {
	freq, err := ParseFrequency(key)
	if err != nil {
		return nil, err
	}
	return c.GetPrice(ctx, symbol, endDate, count, freq), nil
}

func (c *Coordinator) try(ctx context.Context, src Source, req FetchRequest) ([]Candle, error) {
	if src == nil {
		return nil, NetworkError("none", errNoSource)
	}
	br := c.breakers[src.Name()]
	if !br.Allow() {
		return nil, NetworkError(src.Name(), errCircuitOpen)
	}
	out, err := src.Fetch(ctx, req)
	if err == nil && len(out) == 0 {
		err = EmptyResultError(src.Name(), req.Symbol)
	}
	if err != nil {
		br.RecordFailure()
		return nil, err
	}
	br.RecordSuccess()
	return out, nil
}

type coordinatorError string

func (e coordinatorError) Error() string { return string(e) }

const (
	errNoSource    coordinatorError = "source not configured"
	errCircuitOpen coordinatorError = "circuit open"
)
