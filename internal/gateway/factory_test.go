package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"stockpulse/internal/config"
	"stockpulse/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryRejectsNilConfig(t *testing.T) {
	_, err := NewSessionFromConfig(nil)
	assert.Error(t, err)
	_, err = NewCoordinatorFromConfig(nil, nil)
	assert.Error(t, err)
}

func TestCoordinatorFromConfigPrefersSina(t *testing.T) {
	var sinaHits, otherHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "CN_MarketData.getKLineData") {
			sinaHits.Add(1)
			assert.Equal(t, "stockpulse-test", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`[{"day":"2024-01-02","open":"1","high":"2","low":"0.5","close":"1.5","volume":"100"}]`))
			return
		}
		otherHits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Market.TimeoutSeconds = 2
	cfg.Market.UserAgent = "stockpulse-test"
	cfg.Market.Sina.BaseURL = srv.URL
	cfg.Market.Tencent.MinuteBaseURL = srv.URL
	cfg.Market.Tencent.KlineBaseURL = srv.URL
	cfg.Market.BreakerThreshold = 3
	cfg.Market.BreakerCooldown = 60

	session, err := NewSessionFromConfig(cfg)
	require.NoError(t, err)
	defer session.Close()
	assert.Equal(t, 2*time.Second, session.Timeout())

	coord, err := NewCoordinatorFromConfig(cfg, session)
	require.NoError(t, err)

	out := coord.GetPrice(context.Background(), "600519.SH", time.Time{}, 1, market.Daily)
	require.Len(t, out, 1)
	assert.Equal(t, 1.5, out[0].Close)
	assert.Equal(t, int32(1), sinaHits.Load())
	assert.Zero(t, otherHits.Load())
}
