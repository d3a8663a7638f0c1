package apihttp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stockpulse/internal/history"
	"stockpulse/internal/logger"
	"stockpulse/internal/market"
	"stockpulse/internal/marketsync"
	"stockpulse/internal/quote"
	storemodel "stockpulse/internal/store/model"
	"stockpulse/internal/watchlist"

	"github.com/gin-gonic/gin"
)

const (
	dateLayout        = "2006-01-02"
	defaultPriceCount = 250
	maxPriceCount     = 1000
	defaultPageSize   = 20
	maxPageSize       = 100
)

type HoldingSource interface {
	Holdings() []watchlist.Holding
}

type QuoteService interface {
	GetQuotes(ctx context.Context, holdings []quote.Holding, forceRefresh bool) []quote.Snapshot
	Overview(ctx context.Context, holdings []quote.Holding, forceRefresh bool) quote.Overview
}

type HistoryService interface {
	History(ctx context.Context, q history.Query) (history.Result, error)
	Chart(ctx context.Context, w io.Writer, q history.Query) error
}

type PriceService interface {
	GetPriceByKey(ctx context.Context, symbol string, endDate time.Time, count int, key string) ([]market.Candle, error)
}

type SyncService interface {
	Trigger(ctx context.Context, req marketsync.SyncRequest) (storemodel.SyncLogModel, error)
	Logs(ctx context.Context, page, size int) ([]storemodel.SyncLogModel, int64, error)
	Summary(ctx context.Context) (storemodel.SyncSummary, error)
}

// Router 暴露自选股行情、历史 K 线与同步接口。
type Router struct {
	holdings HoldingSource
	quotes   QuoteService
	history  HistoryService
	prices   PriceService
	sync     SyncService
}

func NewRouter(cfg ServerConfig) *Router {
	return &Router{
		holdings: cfg.Holdings,
		quotes:   cfg.Quotes,
		history:  cfg.History,
		prices:   cfg.Prices,
		sync:     cfg.Sync,
	}
}

// Register 将 /api/v1 路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/watchlist", r.handleWatchlist)
	group.GET("/watchlist/realtime", r.handleRealtime)
	group.GET("/watchlist/:code/history", r.handleHistory)
	group.GET("/watchlist/:code/chart", r.handleChart)
	group.GET("/market/price", r.handlePrice)
	group.GET("/overview", r.handleOverview)
	group.POST("/sync/trigger", r.handleSyncTrigger)
	group.GET("/sync/logs", r.handleSyncLogs)
	group.GET("/sync/summary", r.handleSyncSummary)
}

// WatchItem 为实时行情附带自选股名称与成本价。
type WatchItem struct {
	Name      string  `json:"name"`
	CostPrice float64 `json:"cost_price"`
	quote.Snapshot
}

func (r *Router) handleWatchlist(c *gin.Context) {
	respondOK(c, r.holdings.Holdings())
}

func (r *Router) handleRealtime(c *gin.Context) {
	force := parseBool(c.Query("forceRefresh"))
	held := r.holdings.Holdings()
	snaps := r.quotes.GetQuotes(c.Request.Context(), toQuoteHoldings(held), force)
	items := make([]WatchItem, len(snaps))
	for i, snap := range snaps {
		items[i] = WatchItem{Name: held[i].Name, CostPrice: held[i].CostPrice, Snapshot: snap}
	}
	respondOK(c, items)
}

func (r *Router) handleOverview(c *gin.Context) {
	force := parseBool(c.Query("forceRefresh"))
	ov := r.quotes.Overview(c.Request.Context(), toQuoteHoldings(r.holdings.Holdings()), force)
	respondOK(c, ov)
}

func (r *Router) handleHistory(c *gin.Context) {
	q, err := parseHistoryQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	res, err := r.history.History(c.Request.Context(), q)
	if err != nil {
		r.historyError(c, q, err)
		return
	}
	respondOK(c, res)
}

func (r *Router) handleChart(c *gin.Context) {
	q, err := parseHistoryQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := r.history.Chart(c.Request.Context(), &buf, q); err != nil {
		r.historyError(c, q, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (r *Router) historyError(c *gin.Context, q history.Query, err error) {
	switch {
	case errors.Is(err, history.ErrInvalidQuery):
		respondError(c, http.StatusBadRequest, codeBadRequest, err.Error())
	case errors.Is(err, history.ErrNoData):
		respondError(c, http.StatusNotFound, codeNotFound, err.Error())
	default:
		logger.Errorf("[api] history %s failed ip=%s err=%v", q.Code, c.ClientIP(), err)
		respondError(c, http.StatusInternalServerError, codeInternal, err.Error())
	}
}

func (r *Router) handlePrice(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		respondError(c, http.StatusBadRequest, codeBadRequest, "code is required")
		return
	}
	count, err := parseIntDefault(c.Query("count"), defaultPriceCount)
	if err != nil || count < 1 || count > maxPriceCount {
		respondError(c, http.StatusBadRequest, codeBadRequest, "count must be between 1 and "+strconv.Itoa(maxPriceCount))
		return
	}
	end, err := parseDate(c.Query("end_date"))
	if err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	freq := c.DefaultQuery("frequency", market.Daily.String())
	candles, err := r.prices.GetPriceByKey(c.Request.Context(), code, end, count, freq)
	if err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	respondOK(c, gin.H{"code": code, "frequency": freq, "candles": candles})
}

func (r *Router) handleSyncTrigger(c *gin.Context) {
	var req marketsync.SyncRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	log, err := r.sync.Trigger(c.Request.Context(), req)
	switch {
	case errors.Is(err, marketsync.ErrSyncRunning):
		respondError(c, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, marketsync.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, codeBadRequest, err.Error())
	case err != nil:
		logger.Errorf("[api] sync trigger failed ip=%s err=%v", c.ClientIP(), err)
		respondError(c, http.StatusInternalServerError, codeInternal, err.Error())
	default:
		respondOK(c, log)
	}
}

func (r *Router) handleSyncLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	logs, total, err := r.sync.Logs(c.Request.Context(), page, size)
	if err != nil {
		logger.Errorf("[api] sync logs failed ip=%s err=%v", c.ClientIP(), err)
		respondError(c, http.StatusInternalServerError, codeInternal, err.Error())
		return
	}
	if logs == nil {
		logs = []storemodel.SyncLogModel{}
	}
	respondOK(c, pageResult{Items: logs, Total: total, Page: page, PageSize: size})
}

func (r *Router) handleSyncSummary(c *gin.Context) {
	sum, err := r.sync.Summary(c.Request.Context())
	if err != nil {
		logger.Errorf("[api] sync summary failed ip=%s err=%v", c.ClientIP(), err)
		respondError(c, http.StatusInternalServerError, codeInternal, err.Error())
		return
	}
	respondOK(c, sum)
}

func parseHistoryQuery(c *gin.Context) (history.Query, error) {
	q := history.Query{
		Code:   c.Param("code"),
		Period: c.Query("period"),
	}
	var err error
	if q.Start, err = parseDate(c.Query("start_date")); err != nil {
		return q, err
	}
	if q.End, err = parseDate(c.Query("end_date")); err != nil {
		return q, err
	}
	if q.Limit, err = parseIntDefault(c.Query("limit"), 0); err != nil {
		return q, errors.New("limit must be an integer")
	}
	if raw := strings.TrimSpace(c.Query("ma")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return q, errors.New("ma must be a comma separated list of integers")
			}
			q.MA = append(q.MA, n)
		}
	}
	return q, nil
}

func toQuoteHoldings(in []watchlist.Holding) []quote.Holding {
	out := make([]quote.Holding, len(in))
	for i, h := range in {
		out[i] = quote.Holding{Code: h.Code, Quantity: h.HoldingNum}
	}
	return out
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, market.Shanghai)
	if err != nil {
		return time.Time{}, errors.New("date must be formatted as YYYY-MM-DD: " + raw)
	}
	return t, nil
}

func parseIntDefault(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
