package sina

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"stockpulse/internal/logger"
	"stockpulse/internal/market"
	"stockpulse/internal/pkg/convert"
	"stockpulse/internal/pkg/httpx"
	symbolpkg "stockpulse/internal/pkg/symbol"

	"github.com/tidwall/gjson"
)

const (
	sourceName = "sina"

	klinePath = "/quotes_service/api/json_v2.php/CN_MarketData.getKLineData"

	// 新浪不支持按结束日期查询，只能多取一些再截断
	countPadding = 5
)

var timeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"}

// Source 新浪行情（B 源），日/周/月线首选。
type Source struct {
	cfg     Config
	session *httpx.Session
	nowFn   func() time.Time
}

func New(cfg Config, session *httpx.Session) (*Source, error) {
	if session == nil {
		return nil, fmt.Errorf("sina: session is required")
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
	code := symbolpkg.Sina.ToExchange(req.Symbol)
	if code == "" {
		return nil, market.FormatError(sourceName, "empty symbol")
	}
	want := req.Count
	if want <= 0 {
		want = 1
	}
	hasEnd := !req.EndDate.IsZero() && !spec.Intraday
	count := want
	if hasEnd {
		count = inflateCount(want, s.nowFn(), req.EndDate, spec.DayFactor)
	}

	q := url.Values{}
	q.Set("symbol", code)
	q.Set("scale", strconv.Itoa(spec.SinaScale))
	q.Set("ma", "no")
	q.Set("datalen", strconv.Itoa(count))
	body, err := s.session.Get(ctx, sourceName, s.cfg.BaseURL+klinePath+"?"+q.Encode())
	if err != nil {
		logger.Debugf("[sina] request failed %s %s: %v", code, spec.Key, err)
		return nil, market.NetworkError(sourceName, err)
	}
	out, err := parsePayload(body)
	if err != nil {
		return nil, err
	}
	if hasEnd {
		out = filterUntil(out, req.EndDate)
	}
	if len(out) == 0 {
		return nil, market.EmptyResultError(sourceName, req.Symbol)
	}
	return market.LastN(out, want), nil
}

// inflateCount 按结束日期到今天的自然日差补足条数：差值 / 周期天数 + 5。
func inflateCount(count int, now, end time.Time, factor int) int {
	if factor <= 0 {
		factor = 1
	}
	days := int(market.TradeDate(now).Sub(market.TradeDate(end)).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return count + days/factor + countPadding
}

func filterUntil(in []market.Candle, end time.Time) []market.Candle {
	limit := market.TradeDate(end)
	out := in[:0]
	for _, c := range in {
		if market.TradeDate(c.Time).After(limit) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func parsePayload(body []byte) ([]market.Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, market.FormatError(sourceName, "invalid json payload (%d bytes)", len(body))
	}
	doc := gjson.ParseBytes(body)
	if doc.Type == gjson.Null {
		return nil, nil
	}
	if !doc.IsArray() {
		return nil, market.FormatError(sourceName, "expected array payload, got %s", doc.Type)
	}
	rows := doc.Array()
	out := make([]market.Candle, 0, len(rows))
	for i, row := range rows {
		c, err := parseRow(row)
		if err != nil {
			return nil, market.FormatError(sourceName, "row %d: %v", i, err)
		}
		out = append(out, c)
	}
	return market.SortCandles(out), nil
}

func parseRow(row gjson.Result) (market.Candle, error) {
	ts, err := parseTime(row.Get("day").String())
	if err != nil {
		return market.Candle{}, err
	}
	fields := [...]string{"open", "high", "low", "close"}
	var prices [4]float64
	for i, name := range fields {
		v, err := convert.ParseFloat(row.Get(name))
		if err != nil {
			return market.Candle{}, fmt.Errorf("%s: %w", name, err)
		}
		prices[i] = v
	}
	vol, err := convert.ParseInt64(row.Get("volume").String())
	if err != nil {
		return market.Candle{}, fmt.Errorf("volume: %w", err)
	}
	return market.Candle{
		Time:   ts,
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: vol,
	}, nil
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, raw, market.Shanghai); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}
