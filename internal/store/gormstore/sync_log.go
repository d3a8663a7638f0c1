package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockpulse/internal/market"
	storemodel "stockpulse/internal/store/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *GormStore) CreateSyncLog(ctx context.Context, log *syncLogModel) error {
	if log == nil || log.ID == "" {
		return fmt.Errorf("gorm store: sync log id 不能为空")
	}
	return s.db.WithContext(ctx).Create(log).Error
}

func (s *GormStore) FinishSyncLog(ctx context.Context, id string, status storemodel.SyncStatus, message string, inserted int64, end time.Time) error {
	res := s.db.WithContext(ctx).Model(&syncLogModel{}).Where("id = ?", id).Updates(map[string]any{
		"status":   status,
		"message":  message,
		"inserted": inserted,
		"end_time": end,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("gorm store: sync log %s not found", id)
	}
	return nil
}

// ListSyncLogs 按开始时间倒序分页，同时返回总数。
func (s *GormStore) ListSyncLogs(ctx context.Context, offset, limit int) ([]syncLogModel, int64, error) {
	var total int64
	base := s.db.WithContext(ctx).Model(&syncLogModel{})
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var rows []syncLogModel
	err := s.db.WithContext(ctx).Order("start_time DESC").Offset(offset).Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *GormStore) SyncSummary(ctx context.Context) (storemodel.SyncSummary, error) {
	var out storemodel.SyncSummary
	db := s.db.WithContext(ctx)

	type statusCount struct {
		Status storemodel.SyncStatus
		N      int64
	}
	var counts []statusCount
	if err := db.Model(&syncLogModel{}).Select("status, COUNT(*) AS n").Group("status").Scan(&counts).Error; err != nil {
		return out, err
	}
	for _, c := range counts {
		out.TotalRuns += c.N
		switch c.Status {
		case storemodel.SyncStatusSuccess:
			out.SuccessRuns = c.N
		case storemodel.SyncStatusFail:
			out.FailedRuns = c.N
		case storemodel.SyncStatusRunning:
			out.Running = c.N > 0
		}
	}

	var last syncLogModel
	err := db.Where("status = ?", storemodel.SyncStatusSuccess).Order("start_time DESC").First(&last).Error
	switch {
	case err == nil:
		out.LastSuccessAt = last.EndTime
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return out, err
	}

	if err := db.Model(&dailyBarModel{}).Count(&out.BarCount).Error; err != nil {
		return out, err
	}
	if err := db.Model(&dailyBarModel{}).Distinct("stock_code").Count(&out.SymbolCount).Error; err != nil {
		return out, err
	}
	if out.BarCount > 0 {
		var latest dailyBarModel
		if err := db.Order("trade_date DESC").First(&latest).Error; err != nil {
			return out, err
		}
		d := market.TradeDate(time.Time(latest.TradeDate))
		out.LatestBarDate = &d
	}
	return out, nil
}

// MarkStaleRunning 将进程异常退出遗留的 running 记录标记为失败，启动时调用。
func (s *GormStore) MarkStaleRunning(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&syncLogModel{}).
		Where("status = ?", storemodel.SyncStatusRunning).
		Updates(map[string]any{"status": storemodel.SyncStatusFail, "message": "interrupted", "end_time": now})
	return res.RowsAffected, res.Error
}

// EncodeSymbols 将代码列表编码为 JSON 列。
func EncodeSymbols(symbols []string) datatypes.JSON {
	if symbols == nil {
		symbols = []string{}
	}
	b, _ := json.Marshal(symbols)
	return datatypes.JSON(b)
}
