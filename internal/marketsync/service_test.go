package marketsync

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stockpulse/internal/market"
	"stockpulse/internal/store/gormstore"
	storemodel "stockpulse/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticSymbols []string

func (s staticSymbols) Codes() []string { return append([]string(nil), s...) }

type stubFetcher struct {
	mu      sync.Mutex
	calls   []fetchCall
	data    map[string][]market.Candle
	blockCh chan struct{}
}

type fetchCall struct {
	symbol string
	end    time.Time
	count  int
}

func (f *stubFetcher) GetPrice(ctx context.Context, symbol string, end time.Time, count int, freq market.Frequency) []market.Candle {
	if f.blockCh != nil {
		<-f.blockCh
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{symbol: symbol, end: end, count: count})
	if freq != market.Daily {
		return []market.Candle{}
	}
	return append([]market.Candle(nil), f.data[symbol]...)
}

func dailyBars(days ...int) []market.Candle {
	out := make([]market.Candle, len(days))
	for i, d := range days {
		out[i] = market.Candle{Time: at(2024, 1, d, 0), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100}
	}
	return out
}

func newStore(t *testing.T) *gormstore.GormStore {
	t.Helper()
	s, err := gormstore.NewGormStore(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newService(t *testing.T, fetcher PriceFetcher, symbols SymbolSource, st *gormstore.GormStore) *Service {
	t.Helper()
	svc, err := NewService(Config{Concurrency: 2}, fetcher, symbols, st, st)
	require.NoError(t, err)
	svc.nowFn = func() time.Time { return at(2024, 1, 10, 9) }
	return svc
}

func TestRunInsertsMissingBars(t *testing.T) {
	st := newStore(t)
	fetcher := &stubFetcher{data: map[string][]market.Candle{
		// 1 月 1 日在区间外，应被过滤
		"600519.SH": dailyBars(1, 2, 3, 4, 5),
	}}
	svc := newService(t, fetcher, staticSymbols{"600519.SH", "000001.SZ"}, st)
	ctx := context.Background()

	log, err := svc.Run(ctx, SyncRequest{Type: "backfill", Range: []string{"2024-01-02", "2024-01-05"}})
	require.NoError(t, err)
	assert.Equal(t, storemodel.SyncStatusSuccess, log.Status)
	assert.Equal(t, int64(4), log.Inserted)
	assert.Equal(t, "2024-01-02~2024-01-05", log.DataRange)
	assert.Contains(t, log.Message, "no data: 000001.SZ")

	require.Len(t, fetcher.calls, 2)
	for _, c := range fetcher.calls {
		assert.Equal(t, 4, c.count)
		assert.Equal(t, "2024-01-05", c.end.Format(dateLayout))
	}

	// 再次同步相同区间不重复插入
	log, err = svc.Run(ctx, SyncRequest{Type: "backfill", Range: []string{"2024-01-02", "2024-01-05"}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), log.Inserted)

	logs, total, err := svc.Logs(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 1)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.SuccessRuns)
	assert.Equal(t, int64(4), sum.BarCount)
	assert.False(t, sum.Running)
}

func TestRunWeekendOnlyRange(t *testing.T) {
	st := newStore(t)
	fetcher := &stubFetcher{}
	svc := newService(t, fetcher, staticSymbols{"600519.SH"}, st)

	log, err := svc.Run(context.Background(), SyncRequest{Range: []string{"2024-01-06", "2024-01-07"}})
	require.NoError(t, err)
	assert.Equal(t, storemodel.SyncTypeDaily, log.Type)
	assert.Equal(t, "no trading days in range", log.Message)
	assert.Empty(t, fetcher.calls)
}

func TestTriggerRejectsConcurrentRun(t *testing.T) {
	st := newStore(t)
	fetcher := &stubFetcher{data: map[string][]market.Candle{"600519.SH": dailyBars(9)}, blockCh: make(chan struct{})}
	svc := newService(t, fetcher, staticSymbols{"600519.SH"}, st)
	ctx := context.Background()

	log, err := svc.Trigger(ctx, SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, storemodel.SyncStatusRunning, log.Status)
	assert.True(t, svc.Running())

	_, err = svc.Trigger(ctx, SyncRequest{})
	assert.True(t, errors.Is(err, ErrSyncRunning))

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, sum.Running)

	close(fetcher.blockCh)
	svc.Wait()
	assert.False(t, svc.Running())

	logs, _, err := svc.Logs(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, storemodel.SyncStatusSuccess, logs[0].Status)
	assert.Equal(t, int64(1), logs[0].Inserted)
}

func TestTriggerValidation(t *testing.T) {
	st := newStore(t)
	svc := newService(t, &stubFetcher{}, staticSymbols{}, st)
	_, err := svc.Trigger(context.Background(), SyncRequest{Type: "hourly"})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.False(t, svc.Running())
}

type failingBars struct {
	mock.Mock
}

func (m *failingBars) InsertDailyBars(ctx context.Context, code string, bars []market.Candle) (int64, error) {
	args := m.Called(ctx, code, bars)
	return args.Get(0).(int64), args.Error(1)
}

func (m *failingBars) QueryDailyBars(ctx context.Context, code string, start, end time.Time, limit int) ([]market.Candle, error) {
	return nil, nil
}

func TestRunStoreErrorFailsRun(t *testing.T) {
	st := newStore(t)
	bars := &failingBars{}
	bars.On("InsertDailyBars", mock.Anything, "600519.SH", mock.Anything).Return(int64(0), errors.New("disk full"))
	fetcher := &stubFetcher{data: map[string][]market.Candle{"600519.SH": dailyBars(9)}}

	svc, err := NewService(Config{}, fetcher, staticSymbols{"600519.SH"}, bars, st)
	require.NoError(t, err)
	svc.nowFn = func() time.Time { return at(2024, 1, 10, 9) }

	log, err := svc.Run(context.Background(), SyncRequest{})
	require.Error(t, err)
	assert.Equal(t, storemodel.SyncStatusFail, log.Status)
	assert.Contains(t, log.Message, "disk full")
	assert.False(t, svc.Running())

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.FailedRuns)
}
