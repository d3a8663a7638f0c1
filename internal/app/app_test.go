package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"stockpulse/internal/config"
	"stockpulse/internal/watchlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestConfig(t *testing.T, syncEnabled bool) *config.Config {
	t.Helper()
	dir := t.TempDir()
	wl := filepath.Join(dir, "watchlist.yaml")
	require.NoError(t, os.WriteFile(wl, []byte("holdings:\n  - code: sh600519\n    holding_num: 100\n"), 0o644))
	body := fmt.Sprintf(`
app:
  http_addr: "127.0.0.1:0"
  log_level: error
history:
  db_path: %q
sync:
  enabled: %t
watchlist:
  path: %q
`, filepath.Join(dir, "db", "stockpulse.db"), syncEnabled, wl)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestBuildWiresWatchlistIntoAPI(t *testing.T) {
	cfg := loadTestConfig(t, true)
	a, err := NewAppBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NotNil(t, a.scheduler)
	assert.Equal(t, []string{"600519.SH"}, a.Summary.Watchlist.Codes)

	rec := httptest.NewRecorder()
	a.HTTPServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/watchlist", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Code int                 `json:"code"`
		Data []watchlist.Holding `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "600519.SH", env.Data[0].Code)
	assert.Equal(t, int64(100), env.Data[0].HoldingNum)

	rec = httptest.NewRecorder()
	a.HTTPServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sync/summary", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildWithStaticWatchlistAndNoScheduler(t *testing.T) {
	cfg := loadTestConfig(t, false)
	reg, err := watchlist.NewStatic([]watchlist.Holding{{Code: "000001.SZ"}})
	require.NoError(t, err)

	a, err := NewAppBuilder(cfg, WithWatchlist(reg)).Build(context.Background())
	require.NoError(t, err)
	assert.Nil(t, a.scheduler)
	assert.Equal(t, []string{"000001.SZ"}, a.Summary.Watchlist.Codes)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, a.Run(ctx))
}

func TestBuildFailsOnMissingWatchlist(t *testing.T) {
	cfg := loadTestConfig(t, false)
	cfg.Watchlist.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewAppBuilder(cfg).Build(context.Background())
	assert.Error(t, err)
}

func TestRunRequiresBuiltApp(t *testing.T) {
	var a *App
	assert.Error(t, a.Run(context.Background()))
}
