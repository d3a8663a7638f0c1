package gormstore

import (
	"context"
	"fmt"
	"time"

	"stockpulse/internal/market"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 200

func (s *GormStore) InsertDailyBars(ctx context.Context, code string, bars []market.Candle) (int64, error) {
	if s == nil || s.db == nil || len(bars) == 0 {
		return 0, nil
	}
	if code == "" {
		return 0, fmt.Errorf("gorm store: stock code 不能为空")
	}
	now := time.Now()
	models := make([]dailyBarModel, 0, len(bars))
	for _, b := range bars {
		models = append(models, dailyBarModel{
			StockCode: code,
			TradeDate: datatypes.Date(market.TradeDate(b.Time)),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
			Turnover:  b.Turnover,
			CreatedAt: now,
		})
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stock_code"}, {Name: "trade_date"}},
			DoNothing: true,
		}).
		CreateInBatches(&models, insertBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("insert daily bars %s: %w", code, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) QueryDailyBars(ctx context.Context, code string, start, end time.Time, limit int) ([]market.Candle, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	q := s.db.WithContext(ctx).Model(&dailyBarModel{}).Where("stock_code = ?", code)
	if !start.IsZero() {
		q = q.Where("trade_date >= ?", datatypes.Date(market.TradeDate(start)))
	}
	if !end.IsZero() {
		q = q.Where("trade_date <= ?", datatypes.Date(market.TradeDate(end)))
	}
	q = q.Order("trade_date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []dailyBarModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query daily bars %s: %w", code, err)
	}
	out := make([]market.Candle, len(rows))
	for i, row := range rows {
		// 倒序查询，倒序填充得到升序
		out[len(rows)-1-i] = market.Candle{
			Time:     market.TradeDate(time.Time(row.TradeDate)),
			Open:     row.Open,
			High:     row.High,
			Low:      row.Low,
			Close:    row.Close,
			Volume:   row.Volume,
			Turnover: row.Turnover,
		}
	}
	return out, nil
}

// CountDailyBars 返回指定股票已入库的日线数量。
func (s *GormStore) CountDailyBars(ctx context.Context, code string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&dailyBarModel{}).Where("stock_code = ?", code).Count(&n).Error
	return n, err
}
