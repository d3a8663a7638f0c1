package tencent

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"stockpulse/internal/logger"
	"stockpulse/internal/market"
	"stockpulse/internal/pkg/convert"
	"stockpulse/internal/pkg/httpx"
	symbolpkg "stockpulse/internal/pkg/symbol"

	"github.com/tidwall/gjson"
)

const (
	sourceName = "tencent"

	minuteLayout = "200601021504"
	dayLayout    = "2006-01-02"
)

// Source 腾讯行情（A 源），唯一提供分钟线的数据源。
type Source struct {
	cfg     Config
	session *httpx.Session
	nowFn   func() time.Time
}

func New(cfg Config, session *httpx.Session) (*Source, error) {
	if session == nil {
		return nil, fmt.Errorf("tencent: session is required")
	}
	final := cfg.withDefaults()
	session.SetRateLimit(sourceName, final.RatePerSecond, final.Burst)
	return &Source{cfg: final, session: session, nowFn: time.Now}, nil
}

func (s *Source) Name() string { return sourceName }

func (s *Source) Fetch(ctx context.Context, req market.FetchRequest) ([]market.Candle, error) {
	spec, ok := req.Frequency.Spec()
	if !ok {
		return nil, market.FormatError(sourceName, "unsupported frequency %d", req.Frequency)
	}
	code := symbolpkg.Tencent.ToExchange(req.Symbol)
	if code == "" {
		return nil, market.FormatError(sourceName, "empty symbol")
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}

	var (
		out []market.Candle
		err error
	)
	if spec.Intraday {
		out, err = s.fetchMinute(ctx, code, spec.TencentMinute, count)
	} else {
		out, err = s.fetchKline(ctx, code, spec.TencentUnit, req.EndDate, count)
	}
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, market.EmptyResultError(sourceName, req.Symbol)
	}
	return market.LastN(market.SortCandles(out), count), nil
}

func (s *Source) fetchMinute(ctx context.Context, code, unit string, count int) ([]market.Candle, error) {
	u := fmt.Sprintf("%s/appstock/app/kline/mkline?param=%s", s.cfg.MinuteBaseURL,
		url.QueryEscape(fmt.Sprintf("%s,%s,,%d", code, unit, count)))
	doc, err := s.get(ctx, u)
	if err != nil {
		return nil, err
	}
	rows := doc.Get("data." + code + "." + unit)
	if !rows.Exists() || !rows.IsArray() {
		return nil, nil
	}
	out := make([]market.Candle, 0, len(rows.Array()))
	for i, row := range rows.Array() {
		c, err := parseRow(row, minuteLayout)
		if err != nil {
			return nil, market.FormatError(sourceName, "minute row %d for %s: %v", i, code, err)
		}
		out = append(out, c)
	}
	// 最后一根的收盘价以实时报价为准
	if len(out) > 0 {
		if last, err := convert.ParseFloat(doc.Get("data." + code + ".qt." + code + ".3")); err == nil && last > 0 {
			out = market.SortCandles(out)
			out[len(out)-1].Close = last
		}
	}
	return out, nil
}

func (s *Source) fetchKline(ctx context.Context, code, unit string, endDate time.Time, count int) ([]market.Candle, error) {
	end := ""
	if !endDate.IsZero() {
		end = endDate.In(market.Shanghai).Format(dayLayout)
		if end == s.nowFn().In(market.Shanghai).Format(dayLayout) {
			end = ""
		}
	}
	u := fmt.Sprintf("%s/appstock/app/fqkline/get?param=%s", s.cfg.KlineBaseURL,
		url.QueryEscape(fmt.Sprintf("%s,%s,,%s,%d,qfq", code, unit, end, count)))
	doc, err := s.get(ctx, u)
	if err != nil {
		return nil, err
	}
	node := doc.Get("data." + code)
	rows := node.Get("qfq" + unit)
	if !rows.IsArray() {
		rows = node.Get(unit)
	}
	if !rows.IsArray() {
		return nil, nil
	}
	out := make([]market.Candle, 0, len(rows.Array()))
	for i, row := range rows.Array() {
		c, err := parseRow(row, dayLayout)
		if err != nil {
			return nil, market.FormatError(sourceName, "%s row %d for %s: %v", unit, i, code, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Source) get(ctx context.Context, u string) (gjson.Result, error) {
	body, err := s.session.Get(ctx, sourceName, u)
	if err != nil {
		logger.Debugf("[tencent] request failed %s: %v", u, err)
		return gjson.Result{}, market.NetworkError(sourceName, err)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, market.FormatError(sourceName, "invalid json payload (%d bytes)", len(body))
	}
	doc := gjson.ParseBytes(body)
	if code := doc.Get("code"); code.Exists() && code.Int() != 0 {
		return gjson.Result{}, market.FormatError(sourceName, "upstream code %s: %s", code.Raw, doc.Get("msg").String())
	}
	return doc, nil
}

// parseRow 解析 [time, open, close, high, low, volume, ...]，注意腾讯的列顺序是开收高低。
func parseRow(row gjson.Result, layout string) (market.Candle, error) {
	cols := row.Array()
	if len(cols) < 6 {
		return market.Candle{}, fmt.Errorf("expected at least 6 columns, got %d", len(cols))
	}
	ts, err := time.ParseInLocation(layout, cols[0].String(), market.Shanghai)
	if err != nil {
		return market.Candle{}, err
	}
	var prices [4]float64
	for i := range prices {
		v, err := convert.ParseFloat(cols[i+1])
		if err != nil {
			return market.Candle{}, fmt.Errorf("column %d: %w", i+1, err)
		}
		prices[i] = v
	}
	vol, err := convert.ParseInt64(cols[5].String())
	if err != nil {
		return market.Candle{}, fmt.Errorf("volume: %w", err)
	}
	return market.Candle{
		Time:   ts,
		Open:   prices[0],
		Close:  prices[1],
		High:   prices[2],
		Low:    prices[3],
		Volume: vol,
	}, nil
}
