package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"stockpulse/internal/market"
	storemodel "stockpulse/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := NewGormStore(filepath.Join(t.TempDir(), "data", "stockpulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func dailyBar(d int, close float64) market.Candle {
	return market.Candle{
		Time:   time.Date(2024, 1, d, 15, 0, 0, 0, market.Shanghai),
		Open:   close - 0.1,
		High:   close + 0.2,
		Low:    close - 0.3,
		Close:  close,
		Volume: int64(d * 100),
	}
}

func TestInsertDailyBarsSkipsExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.InsertDailyBars(ctx, "600519.SH", []market.Candle{dailyBar(2, 10), dailyBar(3, 11)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.InsertDailyBars(ctx, "600519.SH", []market.Candle{dailyBar(3, 99), dailyBar(4, 12)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	bars, err := s.QueryDailyBars(ctx, "600519.SH", time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	// 已存在的交易日不被覆盖
	assert.Equal(t, 11.0, bars[1].Close)
	assert.Equal(t, 2, bars[0].Time.Day())
	assert.Equal(t, 4, bars[2].Time.Day())

	count, err := s.CountDailyBars(ctx, "600519.SH")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestQueryDailyBarsRangeAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	var bars []market.Candle
	for d := 2; d <= 12; d++ {
		bars = append(bars, dailyBar(d, float64(d)))
	}
	_, err := s.InsertDailyBars(ctx, "000001.SZ", bars)
	require.NoError(t, err)

	out, err := s.QueryDailyBars(ctx, "000001.SZ", time.Time{}, time.Time{}, 3)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []int{10, 11, 12}, []int{out[0].Time.Day(), out[1].Time.Day(), out[2].Time.Day()})

	start := time.Date(2024, 1, 4, 0, 0, 0, 0, market.Shanghai)
	end := time.Date(2024, 1, 6, 0, 0, 0, 0, market.Shanghai)
	out, err = s.QueryDailyBars(ctx, "000001.SZ", start, end, 100)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, 4.0, out[0].Close)
	assert.Equal(t, 6.0, out[2].Close)

	out, err = s.QueryDailyBars(ctx, "600000.SH", time.Time{}, time.Time{}, 10)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSyncLogLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 5, 16, 30, 0, 0, market.Shanghai)

	require.NoError(t, s.CreateSyncLog(ctx, &storemodel.SyncLogModel{
		ID:        "a",
		Type:      storemodel.SyncTypeDaily,
		DataRange: "2024-01-04~2024-01-05",
		Status:    storemodel.SyncStatusRunning,
		StartTime: start,
		Symbols:   EncodeSymbols([]string{"600519.SH"}),
	}))
	require.NoError(t, s.CreateSyncLog(ctx, &storemodel.SyncLogModel{
		ID:        "b",
		Type:      storemodel.SyncTypeBackfill,
		Status:    storemodel.SyncStatusRunning,
		StartTime: start.Add(time.Hour),
	}))

	summary, err := s.SyncSummary(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Running)
	assert.Nil(t, summary.LastSuccessAt)

	require.NoError(t, s.FinishSyncLog(ctx, "a", storemodel.SyncStatusSuccess, "", 5, start.Add(time.Minute)))
	assert.Error(t, s.FinishSyncLog(ctx, "missing", storemodel.SyncStatusFail, "x", 0, start))

	n, err := s.MarkStaleRunning(ctx, start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	logs, total, err := s.ListSyncLogs(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 2)
	assert.Equal(t, "b", logs[0].ID)
	assert.Equal(t, storemodel.SyncStatusFail, logs[0].Status)
	assert.Equal(t, int64(5), logs[1].Inserted)
	assert.JSONEq(t, `["600519.SH"]`, string(logs[1].Symbols))

	_, err = s.InsertDailyBars(ctx, "600519.SH", []market.Candle{dailyBar(4, 1), dailyBar(5, 2)})
	require.NoError(t, err)
	summary, err = s.SyncSummary(ctx)
	require.NoError(t, err)
	assert.False(t, summary.Running)
	assert.Equal(t, int64(2), summary.TotalRuns)
	assert.Equal(t, int64(1), summary.SuccessRuns)
	assert.Equal(t, int64(1), summary.FailedRuns)
	require.NotNil(t, summary.LastSuccessAt)
	assert.Equal(t, int64(2), summary.BarCount)
	assert.Equal(t, int64(1), summary.SymbolCount)
	require.NotNil(t, summary.LatestBarDate)
	assert.Equal(t, 5, summary.LatestBarDate.Day())
}
