package store

import (
	"context"
	"time"

	"stockpulse/internal/market"
	"stockpulse/internal/store/model"
)

// DailyBarRepository 日线读写。
type DailyBarRepository interface {
	// InsertDailyBars 只插入尚未存在的交易日，返回新增条数。
	InsertDailyBars(ctx context.Context, code string, bars []market.Candle) (int64, error)
	// QueryDailyBars 返回 [start, end] 内最近 limit 根日线，按日期升序；零值时间表示不限。
	QueryDailyBars(ctx context.Context, code string, start, end time.Time, limit int) ([]market.Candle, error)
}

// SyncLogRepository 同步日志。
type SyncLogRepository interface {
	CreateSyncLog(ctx context.Context, log *model.SyncLogModel) error
	FinishSyncLog(ctx context.Context, id string, status model.SyncStatus, message string, inserted int64, end time.Time) error
	ListSyncLogs(ctx context.Context, offset, limit int) ([]model.SyncLogModel, int64, error)
	SyncSummary(ctx context.Context) (model.SyncSummary, error)
}
