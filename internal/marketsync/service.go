// Package marketsync 将自选股日线从行情源同步入库，并记录同步日志。
package marketsync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stockpulse/internal/logger"
	"stockpulse/internal/market"
	"stockpulse/internal/store"
	"stockpulse/internal/store/gormstore"
	storemodel "stockpulse/internal/store/model"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

var (
	ErrSyncRunning    = errors.New("a sync is already running")
	ErrInvalidRequest = errors.New("invalid sync request")
)

// PriceFetcher 由 market.Coordinator 实现。
type PriceFetcher interface {
	GetPrice(ctx context.Context, symbol string, endDate time.Time, count int, freq market.Frequency) []market.Candle
}

// SymbolSource 提供需要同步的股票代码，通常为 watchlist.Registry。
type SymbolSource interface {
	Codes() []string
}

type SyncRequest struct {
	Type  string   `json:"type"`
	Range []string `json:"data_range"`
}

type Config struct {
	Concurrency int
}

type Service struct {
	fetcher PriceFetcher
	symbols SymbolSource
	bars    store.DailyBarRepository
	logs    store.SyncLogRepository

	concurrency int
	nowFn       func() time.Time

	running atomic.Bool
	wg      sync.WaitGroup
	baseCtx context.Context
}

func NewService(cfg Config, fetcher PriceFetcher, symbols SymbolSource, bars store.DailyBarRepository, logs store.SyncLogRepository) (*Service, error) {
	if fetcher == nil || symbols == nil || bars == nil || logs == nil {
		return nil, fmt.Errorf("marketsync: fetcher/symbols/bars/logs 不能为空")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		fetcher:     fetcher,
		symbols:     symbols,
		bars:        bars,
		logs:        logs,
		concurrency: concurrency,
		nowFn:       time.Now,
		baseCtx:     context.Background(),
	}, nil
}

// SetContext 注入宿主 ctx，后台同步随之取消。
func (s *Service) SetContext(ctx context.Context) {
	if ctx != nil {
		s.baseCtx = ctx
	}
}

func (s *Service) Running() bool { return s.running.Load() }

// Trigger 校验请求并在后台执行同步，立即返回 running 状态的日志。
func (s *Service) Trigger(ctx context.Context, req SyncRequest) (storemodel.SyncLogModel, error) {
	job, err := s.begin(ctx, req)
	if err != nil {
		return storemodel.SyncLogModel{}, err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(s.baseCtx, job)
	}()
	return *job.log, nil
}

// Run 同步执行，返回最终日志；供定时任务与测试使用。
func (s *Service) Run(ctx context.Context, req SyncRequest) (storemodel.SyncLogModel, error) {
	job, err := s.begin(ctx, req)
	if err != nil {
		return storemodel.SyncLogModel{}, err
	}
	s.execute(ctx, job)
	if job.log.Status == storemodel.SyncStatusFail {
		return *job.log, errors.New(job.log.Message)
	}
	return *job.log, nil
}

// Wait 等待后台同步结束。
func (s *Service) Wait() {
	s.wg.Wait()
}

// RunScheduled 为定时任务入口：同步默认区间，已有同步在运行时跳过。
func (s *Service) RunScheduled() {
	_, err := s.Run(s.baseCtx, SyncRequest{Type: string(storemodel.SyncTypeDaily)})
	switch {
	case errors.Is(err, ErrSyncRunning):
		logger.Warnf("[sync] scheduled run skipped: %v", err)
	case err != nil:
		logger.Errorf("[sync] scheduled run failed: %v", err)
	}
}

type syncJob struct {
	log     *storemodel.SyncLogModel
	start   time.Time
	end     time.Time
	codes   []string
	tradeNo int
}

func (s *Service) begin(ctx context.Context, req SyncRequest) (*syncJob, error) {
	syncType := storemodel.SyncType(strings.ToLower(strings.TrimSpace(req.Type)))
	if syncType == "" {
		syncType = storemodel.SyncTypeDaily
	}
	if syncType != storemodel.SyncTypeDaily && syncType != storemodel.SyncTypeBackfill {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, req.Type)
	}
	start, end, err := ResolveRange(s.nowFn(), req.Range)
	if err != nil {
		return nil, err
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncRunning
	}

	codes := s.symbols.Codes()
	log := &storemodel.SyncLogModel{
		ID:        uuid.NewString(),
		Type:      syncType,
		DataRange: formatRange(start, end),
		Status:    storemodel.SyncStatusRunning,
		StartTime: s.nowFn(),
		Symbols:   gormstore.EncodeSymbols(codes),
	}
	if err := s.logs.CreateSyncLog(ctx, log); err != nil {
		s.running.Store(false)
		return nil, fmt.Errorf("create sync log: %w", err)
	}
	logger.Infof("[sync] %s started id=%s range=%s symbols=%d", syncType, log.ID, log.DataRange, len(codes))
	return &syncJob{log: log, start: start, end: end, codes: codes, tradeNo: CountWeekdays(start, end)}, nil
}

func (s *Service) execute(ctx context.Context, job *syncJob) {
	defer s.running.Store(false)

	inserted, empty, err := s.syncAll(ctx, job)
	status := storemodel.SyncStatusSuccess
	var msg string
	switch {
	case err != nil:
		status = storemodel.SyncStatusFail
		msg = err.Error()
		logger.Errorf("[sync] %s failed id=%s: %v", job.log.Type, job.log.ID, err)
	case job.tradeNo == 0:
		msg = "no trading days in range"
	default:
		msg = fmt.Sprintf("inserted %d bars for %d symbols", inserted, len(job.codes))
		if len(empty) > 0 {
			msg += fmt.Sprintf(", no data: %s", strings.Join(empty, ","))
		}
	}

	end := s.nowFn()
	job.log.Status = status
	job.log.Message = msg
	job.log.Inserted = inserted
	job.log.EndTime = &end
	// 宿主 ctx 已取消时仍需落库最终状态
	if err := s.logs.FinishSyncLog(context.WithoutCancel(ctx), job.log.ID, status, msg, inserted, end); err != nil {
		logger.Errorf("[sync] finish log %s failed: %v", job.log.ID, err)
	}
	logger.Infof("[sync] %s finished id=%s status=%s %s", job.log.Type, job.log.ID, status, msg)
}

func (s *Service) syncAll(ctx context.Context, job *syncJob) (int64, []string, error) {
	if job.tradeNo == 0 || len(job.codes) == 0 {
		return 0, nil, nil
	}
	var (
		inserted atomic.Int64
		mu       sync.Mutex
		empty    []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, code := range job.codes {
		code := code
		g.Go(func() error {
			n, err := s.syncOne(gctx, code, job)
			if err != nil {
				return err
			}
			if n < 0 {
				mu.Lock()
				empty = append(empty, code)
				mu.Unlock()
				return nil
			}
			inserted.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return inserted.Load(), nil, err
	}
	sort.Strings(empty)
	return inserted.Load(), empty, nil
}

// syncOne 返回新增条数；行情为空时返回 -1。
func (s *Service) syncOne(ctx context.Context, code string, job *syncJob) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	bars := s.fetcher.GetPrice(ctx, code, job.end, job.tradeNo, market.Daily)
	bars = withinRange(bars, job.start, job.end)
	if len(bars) == 0 {
		logger.Warnf("[sync] no daily bars for %s in %s", code, job.log.DataRange)
		return -1, nil
	}
	n, err := s.bars.InsertDailyBars(ctx, code, bars)
	if err != nil {
		return 0, fmt.Errorf("store %s: %w", code, err)
	}
	logger.Debugf("[sync] %s fetched=%d inserted=%d", code, len(bars), n)
	return n, nil
}

func withinRange(in []market.Candle, start, end time.Time) []market.Candle {
	start, end = market.TradeDate(start), market.TradeDate(end)
	out := make([]market.Candle, 0, len(in))
	for _, c := range in {
		d := market.TradeDate(c.Time)
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Logs 按页返回同步日志，page 从 1 开始。
func (s *Service) Logs(ctx context.Context, page, size int) ([]storemodel.SyncLogModel, int64, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return s.logs.ListSyncLogs(ctx, (page-1)*size, size)
}

func (s *Service) Summary(ctx context.Context) (storemodel.SyncSummary, error) {
	sum, err := s.logs.SyncSummary(ctx)
	if err != nil {
		return sum, err
	}
	if s.Running() {
		sum.Running = true
	}
	return sum, nil
}
