package indicator

import (
	"fmt"
	"math"
	"sort"

	"github.com/markcheno/go-talib"

	"stockpulse/internal/market"
)

const (
	MinMAPeriod = 2
	MaxMAPeriod = 250
)

// MASeries 为一条均线，与 K 线一一对齐；预热期内的值为 nil。
type MASeries struct {
	Period int        `json:"period"`
	Values []*float64 `json:"values"`
}

// NormalizePeriods 去重排序并校验均线周期。
func NormalizePeriods(periods []int) ([]int, error) {
	if len(periods) == 0 {
		return nil, nil
	}
	seen := make(map[int]struct{}, len(periods))
	out := make([]int, 0, len(periods))
	for _, p := range periods {
		if p < MinMAPeriod || p > MaxMAPeriod {
			return nil, fmt.Errorf("ma period %d out of range [%d, %d]", p, MinMAPeriod, MaxMAPeriod)
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Ints(out)
	return out, nil
}

// MovingAverages 按收盘价计算简单移动平均。
func MovingAverages(candles []market.Candle, periods []int) ([]MASeries, error) {
	periods, err := NormalizePeriods(periods)
	if err != nil {
		return nil, err
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	out := make([]MASeries, 0, len(periods))
	for _, p := range periods {
		values := make([]*float64, len(closes))
		// 数据不足一个周期时 talib 会越界
		if len(closes) >= p {
			sma := sanitizeSeries(talib.Sma(closes, p))
			for i := p - 1; i < len(sma); i++ {
				v := round4(sma[i])
				values[i] = &v
			}
		}
		out = append(out, MASeries{Period: p, Values: values})
	}
	return out, nil
}

func sanitizeSeries(src []float64) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = 0
			continue
		}
		out[i] = v
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
