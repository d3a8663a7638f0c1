// Package history 基于已入库的日线提供日/周/月 K 线、均线与图表。
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"stockpulse/internal/analysis/indicator"
	"stockpulse/internal/analysis/visual"
	"stockpulse/internal/market"
	symbolpkg "stockpulse/internal/pkg/symbol"
	"stockpulse/internal/store"
)

const (
	DefaultLimit = 250
	MaxLimit     = 1000

	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"

	// 周/月线按每组最多 31 个交易日预取
	daysPerGroup = 31
)

var (
	ErrInvalidQuery = errors.New("invalid history query")
	ErrNoData       = errors.New("no history data")
)

type Query struct {
	Code   string
	Period string
	Start  time.Time
	End    time.Time
	Limit  int
	MA     []int
}

type Result struct {
	Code    string               `json:"code"`
	Period  string               `json:"period"`
	Candles []market.Candle      `json:"candles"`
	MA      []indicator.MASeries `json:"ma,omitempty"`
}

type Service struct {
	bars         store.DailyBarRepository
	defaultLimit int
}

func NewService(bars store.DailyBarRepository, defaultLimit int) *Service {
	if defaultLimit <= 0 || defaultLimit > MaxLimit {
		defaultLimit = DefaultLimit
	}
	return &Service{bars: bars, defaultLimit: defaultLimit}
}

func (s *Service) normalize(q Query) (Query, market.Period, error) {
	q.Code = symbolpkg.Normalize(q.Code)
	if q.Code == "" {
		return q, market.PeriodUnknown, fmt.Errorf("%w: code is required", ErrInvalidQuery)
	}
	q.Period = strings.ToLower(strings.TrimSpace(q.Period))
	if q.Period == "" {
		q.Period = PeriodDaily
	}
	period := market.PeriodUnknown
	if q.Period != PeriodDaily {
		p, err := market.ParsePeriod(q.Period)
		if err != nil {
			return q, market.PeriodUnknown, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		period = p
	}
	if q.Limit == 0 {
		q.Limit = s.defaultLimit
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return q, period, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, MaxLimit)
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.Start.After(q.End) {
		return q, period, fmt.Errorf("%w: start_date after end_date", ErrInvalidQuery)
	}
	if _, err := indicator.NormalizePeriods(q.MA); err != nil {
		return q, period, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return q, period, nil
}

// History 返回升序 K 线；区间内无数据时返回空结果而不是错误。
func (s *Service) History(ctx context.Context, q Query) (Result, error) {
	q, period, err := s.normalize(q)
	if err != nil {
		return Result{}, err
	}
	fetchLimit := q.Limit
	if period != market.PeriodUnknown {
		fetchLimit = q.Limit * daysPerGroup
	}
	daily, err := s.bars.QueryDailyBars(ctx, q.Code, q.Start, q.End, fetchLimit)
	if err != nil {
		return Result{}, fmt.Errorf("load daily bars %s: %w", q.Code, err)
	}

	candles := daily
	if period != market.PeriodUnknown {
		candles = market.Aggregate(daily, period, q.Limit)
	}
	if candles == nil {
		candles = []market.Candle{}
	}
	res := Result{Code: q.Code, Period: q.Period, Candles: candles}
	if len(q.MA) > 0 && len(candles) > 0 {
		ma, err := indicator.MovingAverages(candles, q.MA)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		res.MA = ma
	}
	return res, nil
}

// Chart 渲染 K 线 HTML 页面，未指定均线时默认叠加 MA5/MA10/MA20。
func (s *Service) Chart(ctx context.Context, w io.Writer, q Query) error {
	if len(q.MA) == 0 {
		q.MA = []int{5, 10, 20}
	}
	res, err := s.History(ctx, q)
	if err != nil {
		return err
	}
	if len(res.Candles) == 0 {
		return fmt.Errorf("%w: no bars stored for %s", ErrNoData, res.Code)
	}
	return visual.RenderKline(w, visual.KlineInput{
		Code:    res.Code,
		Period:  res.Period,
		Candles: res.Candles,
		MA:      res.MA,
	})
}
