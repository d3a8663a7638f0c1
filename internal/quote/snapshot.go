package quote

import (
	"stockpulse/internal/market"

	"github.com/shopspring/decimal"
)

// Holding 为一条持仓：规范代码与持股数量。
type Holding struct {
	Code     string `json:"code"`
	Quantity int64  `json:"holding_num"`
}

// MinuteBar 为行情快照中的分钟线，时间只保留 HH:MM。
type MinuteBar struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume int64   `json:"volume"`
}

// Snapshot 是单只持仓的实时行情，每次请求重新计算，不落库。
type Snapshot struct {
	Code           string      `json:"code"`
	LatestPrice    float64     `json:"latest_price"`
	PreClose       *float64    `json:"pre_close"`
	Change         float64     `json:"change"`
	ChangePercent  float64     `json:"change_percent"`
	Open           float64     `json:"open"`
	High           float64     `json:"high"`
	Low            float64     `json:"low"`
	Volume         int64       `json:"volume"`
	HoldingNum     int64       `json:"holding_num"`
	MarketValue    float64     `json:"market_value"`
	PreMarketValue float64     `json:"pre_market_value"`
	Bars           []MinuteBar `json:"bars"`
}

// Overview 汇总全部持仓的市值与当日收益。
type Overview struct {
	TotalMarketValue float64 `json:"total_market_value"`
	PreMarketValue   float64 `json:"pre_market_value"`
	DailyReturn      float64 `json:"daily_return"`
	DailyReturnRate  float64 `json:"daily_return_rate"`
	Holdings         int     `json:"holdings"`
}

// buildSnapshot 空分钟线返回降级快照：价格字段为 0，pre_close 原样保留。
func buildSnapshot(h Holding, preClose *float64, bars []market.Candle) Snapshot {
	snap := Snapshot{
		Code:       h.Code,
		PreClose:   preClose,
		HoldingNum: h.Quantity,
		Bars:       []MinuteBar{},
	}
	if len(bars) == 0 {
		return snap
	}

	qty := decimal.NewFromInt(h.Quantity)
	latest := decimal.NewFromFloat(bars[len(bars)-1].Close)
	pre := decimal.Zero
	if preClose != nil {
		pre = decimal.NewFromFloat(*preClose)
	}
	change := latest.Sub(pre).Round(4)

	snap.LatestPrice = latest.InexactFloat64()
	snap.Change = change.InexactFloat64()
	if preClose != nil && pre.IsPositive() {
		snap.ChangePercent = change.Div(pre).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}

	// 高低点取收盘价序列
	snap.Open = bars[0].Open
	snap.High = bars[0].Close
	snap.Low = bars[0].Close
	snap.Bars = make([]MinuteBar, 0, len(bars))
	for _, b := range bars {
		if b.Close > snap.High {
			snap.High = b.Close
		}
		if b.Close < snap.Low {
			snap.Low = b.Close
		}
		snap.Volume += b.Volume
		snap.Bars = append(snap.Bars, MinuteBar{
			Time:   b.Time.In(market.Shanghai).Format("15:04"),
			Open:   b.Open,
			Close:  b.Close,
			High:   b.High,
			Low:    b.Low,
			Volume: b.Volume,
		})
	}

	snap.MarketValue = qty.Mul(latest).InexactFloat64()
	snap.PreMarketValue = qty.Mul(pre).InexactFloat64()
	return snap
}

func buildOverview(snaps []Snapshot) Overview {
	total, pre := decimal.Zero, decimal.Zero
	for _, s := range snaps {
		total = total.Add(decimal.NewFromFloat(s.MarketValue))
		pre = pre.Add(decimal.NewFromFloat(s.PreMarketValue))
	}
	out := Overview{
		TotalMarketValue: total.Round(2).InexactFloat64(),
		PreMarketValue:   pre.Round(2).InexactFloat64(),
		DailyReturn:      total.Sub(pre).Round(2).InexactFloat64(),
		Holdings:         len(snaps),
	}
	if pre.IsPositive() {
		out.DailyReturnRate = total.Div(pre).Sub(decimal.NewFromInt(1)).Round(4).InexactFloat64()
	}
	return out
}

// splitSession 按上海自然日切分：返回最后一个交易日之前最后一根的收盘价与最后一个交易日的分钟线。
func splitSession(bars []market.Candle) (*float64, []market.Candle) {
	if len(bars) == 0 {
		return nil, []market.Candle{}
	}
	latest := market.TradeDate(bars[len(bars)-1].Time)
	idx := len(bars)
	for idx > 0 && market.TradeDate(bars[idx-1].Time).Equal(latest) {
		idx--
	}
	today := make([]market.Candle, len(bars)-idx)
	copy(today, bars[idx:])
	if idx == 0 {
		return nil, today
	}
	pc := bars[idx-1].Close
	return &pc, today
}
