package marketsync

import (
	"fmt"
	"strings"
	"time"

	"stockpulse/internal/market"
)

const dateLayout = "2006-01-02"

// closeHour 之后当天日线视为已收盘可同步
const closeHour = 16

// ResolveRange 解析同步区间：
// 不传日期时 start 为昨天，end 在 16 点后为今天、否则为昨天；
// 传一个日期时作为 start；传两个日期时按先后顺序作为 start/end。
func ResolveRange(now time.Time, dates []string) (time.Time, time.Time, error) {
	now = now.In(market.Shanghai)
	today := market.TradeDate(now)
	yesterday := today.AddDate(0, 0, -1)
	defaultEnd := yesterday
	if now.Hour() >= closeHour {
		defaultEnd = today
	}

	parsed := make([]time.Time, 0, len(dates))
	for _, raw := range dates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := time.ParseInLocation(dateLayout, raw, market.Shanghai)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidRequest, raw)
		}
		parsed = append(parsed, d)
	}

	var start, end time.Time
	switch len(parsed) {
	case 0:
		start, end = yesterday, defaultEnd
	case 1:
		start, end = parsed[0], defaultEnd
	case 2:
		start, end = parsed[0], parsed[1]
		if start.After(end) {
			start, end = end, start
		}
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: data_range accepts at most 2 dates", ErrInvalidRequest)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s after end %s", ErrInvalidRequest,
			start.Format(dateLayout), end.Format(dateLayout))
	}
	return start, end, nil
}

// CountWeekdays 统计 [start, end] 内的工作日数（不含节假日判断）。
func CountWeekdays(start, end time.Time) int {
	start, end = market.TradeDate(start), market.TradeDate(end)
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

func formatRange(start, end time.Time) string {
	return start.Format(dateLayout) + "~" + end.Format(dateLayout)
}
