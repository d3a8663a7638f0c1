package market

import (
	"sort"

	"github.com/shopspring/decimal"
)

type periodKey struct {
	year int
	sub  int // ISO 周序号或月份
}

func (k periodKey) less(o periodKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.sub < o.sub
}

func keyFor(c Candle, period Period) periodKey {
	if period == PeriodWeekly {
		y, w := c.Time.ISOWeek()
		return periodKey{year: y, sub: w}
	}
	return periodKey{year: c.Time.Year(), sub: int(c.Time.Month())}
}

// Aggregate 将按日升序的 K 线聚合为周线（ISO 年+周）或月线，返回最近 limit 组，按日期升序。
//
// 组内：open 取第一根，close 取最后一根，high/low 取极值，volume 与 turnover 求和（缺失成交额按 0）。
// 每组时间为组内最后一个交易日。纯函数，调用方负责过滤空输入。
func Aggregate(daily []Candle, period Period, limit int) []Candle {
	if len(daily) == 0 || limit <= 0 || (period != PeriodWeekly && period != PeriodMonthly) {
		return []Candle{}
	}

	groups := make(map[periodKey][]Candle)
	for _, c := range daily {
		k := keyFor(c, period)
		groups[k] = append(groups[k], c)
	}

	keys := make([]periodKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[j].less(keys[i]) })
	if len(keys) > limit {
		keys = keys[:limit]
	}

	out := make([]Candle, len(keys))
	for i, k := range keys {
		// 倒序填充，结果即为升序
		out[len(keys)-1-i] = rollup(groups[k])
	}
	return out
}

func rollup(items []Candle) Candle {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Time.Before(items[j].Time) })
	first, last := items[0], items[len(items)-1]
	bar := Candle{
		Time:  last.Time,
		Open:  first.Open,
		Close: last.Close,
		High:  first.High,
		Low:   first.Low,
	}
	turnover := decimal.Zero
	for _, c := range items {
		if c.High > bar.High {
			bar.High = c.High
		}
		if c.Low < bar.Low {
			bar.Low = c.Low
		}
		bar.Volume += c.Volume
		turnover = turnover.Add(decimal.NewFromFloat(c.TurnoverOrZero()))
	}
	t := turnover.InexactFloat64()
	bar.Turnover = &t
	return bar
}
