package tencent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockpulse/internal/market"
	"stockpulse/internal/pkg/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minutePayload = `{"code":0,"msg":"","data":{"sh600519":{
  "m1":[
    ["202401021501","1700.00","1701.00","1702.00","1699.00","120.00"],
    ["202401031500","1690.00","1695.00","1696.00","1689.00","300.00"],
    ["202401031458","1688.00","1689.00","1690.00","1687.00","100.00"]
  ],
  "qt":{"sh600519":["1","贵州茅台","600519","1697.50","1680.00"]}
}}}`

const dayPayload = `{"code":0,"msg":"","data":{"sz000001":{
  "qfqday":[
    ["2024-01-02","9.40","9.39","9.42","9.21","1158366.00"],
    ["2024-01-03","9.38","9.45","9.50","9.30","733610.00",{"nd":"2023"}]
  ]
}}}`

func newTestSource(t *testing.T, handler http.HandlerFunc) (*Source, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	session, err := httpx.NewSession(httpx.Config{Timeout: 2 * time.Second})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	src, err := New(Config{MinuteBaseURL: srv.URL, KlineBaseURL: srv.URL + "/"}, session)
	require.NoError(t, err)
	return src, srv
}

func TestFetchMinuteUsesQuoteForLastClose(t *testing.T) {
	var gotParam string
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appstock/app/kline/mkline", r.URL.Path)
		gotParam = r.URL.Query().Get("param")
		_, _ = w.Write([]byte(minutePayload))
	})

	out, err := src.Fetch(context.Background(), market.FetchRequest{Symbol: "600519.XSHG", Frequency: market.Minute, Count: 250})
	require.NoError(t, err)
	assert.Equal(t, "sh600519,m1,,250", gotParam)
	require.Len(t, out, 3)

	assert.True(t, out[0].Time.Before(out[1].Time))
	assert.Equal(t, time.Date(2024, 1, 3, 15, 0, 0, 0, market.Shanghai).Unix(), out[2].Time.Unix())
	assert.Equal(t, 1697.5, out[2].Close)
	assert.Equal(t, 1690.0, out[2].Open)
	assert.Equal(t, 1696.0, out[2].High)
	assert.Equal(t, 1689.0, out[2].Low)
	assert.Equal(t, int64(300), out[2].Volume)
}

func TestFetchDailyPrefersQfqRows(t *testing.T) {
	var gotParam string
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appstock/app/fqkline/get", r.URL.Path)
		gotParam = r.URL.Query().Get("param")
		_, _ = w.Write([]byte(dayPayload))
	})
	end := time.Date(2024, 1, 3, 0, 0, 0, 0, market.Shanghai)

	out, err := src.Fetch(context.Background(), market.FetchRequest{Symbol: "000001.SZ", Frequency: market.Daily, Count: 2, EndDate: end})
	require.NoError(t, err)
	assert.Equal(t, "sz000001,day,,2024-01-03,2,qfq", gotParam)
	require.Len(t, out, 2)
	assert.Equal(t, 9.45, out[1].Close)
	assert.Equal(t, 9.50, out[1].High)
	assert.Equal(t, int64(733610), out[1].Volume)
}

func TestFetchDailyTodayEndDateSentEmpty(t *testing.T) {
	var gotParam string
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotParam = r.URL.Query().Get("param")
		_, _ = w.Write([]byte(`{"code":0,"data":{"sz000001":{"week":[["2024-01-05","9.40","9.39","9.42","9.21","100"]]}}}`))
	})
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, market.Shanghai)
	src.nowFn = func() time.Time { return now }

	out, err := src.Fetch(context.Background(), market.FetchRequest{Symbol: "sz000001", Frequency: market.Weekly, Count: 1, EndDate: now})
	require.NoError(t, err)
	assert.Equal(t, "sz000001,week,,,1,qfq", gotParam)
	require.Len(t, out, 1)
}

func TestFetchErrorsAreSourceUnavailable(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
		kind market.ErrorKind
	}{
		{"http error", "", http.StatusInternalServerError, market.KindNetwork},
		{"garbage", "<html>", http.StatusOK, market.KindUpstreamFormat},
		{"bad row", `{"code":0,"data":{"sz000001":{"qfqday":[["2024-01-02","x","1","1","1","1"]]}}}`, http.StatusOK, market.KindUpstreamFormat},
		{"no rows", `{"code":0,"data":{"sz000001":{}}}`, http.StatusOK, market.KindEmptyResult},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := src.Fetch(context.Background(), market.FetchRequest{Symbol: "000001.SZ", Frequency: market.Daily, Count: 1})
			require.Error(t, err)
			assert.True(t, errors.Is(err, market.ErrSourceUnavailable))
			assert.Equal(t, tc.kind, market.KindOf(err))
		})
	}
}
