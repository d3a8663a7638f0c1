package model

import (
	"time"

	"gorm.io/datatypes"
)

type SyncStatus string

const (
	SyncStatusRunning SyncStatus = "running"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFail    SyncStatus = "fail"
)

type SyncType string

const (
	SyncTypeDaily    SyncType = "daily"
	SyncTypeBackfill SyncType = "backfill"
)

// DailyBarModel 日线，(stock_code, trade_date) 唯一。
type DailyBarModel struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	StockCode string         `gorm:"column:stock_code;size:16;not null;uniqueIndex:idx_daily_bars_code_date,priority:1"`
	TradeDate datatypes.Date `gorm:"column:trade_date;not null;uniqueIndex:idx_daily_bars_code_date,priority:2"`
	Open      float64        `gorm:"column:open"`
	High      float64        `gorm:"column:high"`
	Low       float64        `gorm:"column:low"`
	Close     float64        `gorm:"column:close"`
	Volume    int64          `gorm:"column:volume"`
	Turnover  *float64       `gorm:"column:turnover"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (DailyBarModel) TableName() string { return "daily_bars" }

type SyncLogModel struct {
	ID        string         `gorm:"column:id;primaryKey;size:36" json:"id"`
	Type      SyncType       `gorm:"column:type;size:16" json:"type"`
	DataRange string         `gorm:"column:data_range" json:"data_range"`
	Status    SyncStatus     `gorm:"column:status;size:16;index" json:"status"`
	StartTime time.Time      `gorm:"column:start_time;index" json:"start_time"`
	EndTime   *time.Time     `gorm:"column:end_time" json:"end_time"`
	Message   string         `gorm:"column:message" json:"message"`
	Inserted  int64          `gorm:"column:inserted" json:"inserted"`
	Symbols   datatypes.JSON `gorm:"column:symbols" json:"symbols"`
}

func (SyncLogModel) TableName() string { return "sync_logs" }

// SyncSummary 汇总同步状态，供看板展示。
type SyncSummary struct {
	TotalRuns     int64      `json:"total_runs"`
	SuccessRuns   int64      `json:"success_runs"`
	FailedRuns    int64      `json:"failed_runs"`
	Running       bool       `json:"running"`
	LastSuccessAt *time.Time `json:"last_success_at"`
	BarCount      int64      `json:"bar_count"`
	SymbolCount   int64      `json:"symbol_count"`
	LatestBarDate *time.Time `json:"latest_bar_date"`
}
