package market

import "time"

// Shanghai 为 A 股交易时区；容器内缺少 tzdata 时退化为固定 UTC+8。
var Shanghai = loadShanghai()

func loadShanghai() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

// TradeDate 将任意时间换算到上海时区后截断为自然日。
func TradeDate(t time.Time) time.Time {
	y, m, d := t.In(Shanghai).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Shanghai)
}
