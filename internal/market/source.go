package market

import (
	"context"
	"time"
)

// FetchRequest 描述一次远端 K 线请求。
type FetchRequest struct {
	// Symbol 为规范代码（600519.SH / sh600519 等），数据源内部自行转换。
	Symbol    string
	Frequency Frequency
	Count     int
	// EndDate 为零值表示取最新。
	EndDate time.Time
}

// Source 统一不同行情源的拉取行为。失败时返回的 error 满足 errors.Is(err, ErrSourceUnavailable)。
type Source interface {
	Fetch(ctx context.Context, req FetchRequest) ([]Candle, error)
	Name() string
}
