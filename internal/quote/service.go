package quote

import (
	"context"

	"stockpulse/internal/market"

	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 8

// MinuteSource 由 MinuteCache 实现。
type MinuteSource interface {
	TodayMinutes(ctx context.Context, symbol string) (*float64, []market.Candle)
	Clear()
}

type Service struct {
	cache       MinuteSource
	concurrency int
}

func NewService(cache MinuteSource, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{cache: cache, concurrency: concurrency}
}

// GetQuotes 为每条持仓生成一个快照，顺序与输入一致。
// forceRefresh 会清空整个分钟线缓存，其他股票的缓存同样失效。
func (s *Service) GetQuotes(ctx context.Context, holdings []Holding, forceRefresh bool) []Snapshot {
	if forceRefresh {
		s.cache.Clear()
	}
	out := make([]Snapshot, len(holdings))
	if len(holdings) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, h := range holdings {
		i, h := i, h
		g.Go(func() error {
			preClose, bars := s.cache.TodayMinutes(ctx, h.Code)
			out[i] = buildSnapshot(h, preClose, bars)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Overview 计算持仓总市值、昨日市值与当日收益率。
func (s *Service) Overview(ctx context.Context, holdings []Holding, forceRefresh bool) Overview {
	return buildOverview(s.GetQuotes(ctx, holdings, forceRefresh))
}
