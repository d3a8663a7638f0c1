// Package watchlist 管理持仓清单文件：严格解码、schema 校验与热加载。
package watchlist

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"stockpulse/internal/logger"
	symbolpkg "stockpulse/internal/pkg/symbol"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

// Holding 为一条持仓。
type Holding struct {
	Code       string  `yaml:"code" json:"code"`
	Name       string  `yaml:"name" json:"name"`
	HoldingNum int64   `yaml:"holding_num" json:"holding_num"`
	CostPrice  float64 `yaml:"cost_price" json:"cost_price"`
}

// FileConfig 映射 watchlist.yaml。
type FileConfig struct {
	Holdings []Holding `yaml:"holdings"`
}

type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Holdings []Holding
}

// ChangeListener 在重载成功后触发。
type ChangeListener func(Snapshot)

type Registry struct {
	path   string
	v      *viper.Viper
	schema *jsonschema.Schema

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry 读取持仓文件并监听变更；重载失败时保留上一次的快照。
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("watchlist registry requires path")
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile watchlist schema: %w", err)
	}
	r := &Registry{path: path, schema: schema}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read watchlist failed: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("[watchlist] reload failed (%s): %v", evt.Name, err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	r.v = v
	return r, nil
}

// NewStatic 返回固定持仓的 registry，不监听文件。
func NewStatic(holdings []Holding) (*Registry, error) {
	norm, err := normalizeHoldings(holdings)
	if err != nil {
		return nil, err
	}
	return &Registry{snapshot: Snapshot{Version: 1, LoadedAt: time.Now(), Holdings: norm}}, nil
}

// Holdings 返回当前持仓的副本。
func (r *Registry) Holdings() []Holding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Holding(nil), r.snapshot.Holdings...)
}

// Codes 返回所有持仓代码。
func (r *Registry) Codes() []string {
	holdings := r.Holdings()
	out := make([]string, len(holdings))
	for i, h := range holdings {
		out[i] = h.Code
	}
	return out
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := r.snapshot
	snap.Holdings = append([]Holding(nil), snap.Holdings...)
	return snap
}

func (r *Registry) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	cfg, err := r.readFile()
	if err != nil {
		return err
	}
	holdings, err := normalizeHoldings(cfg.Holdings)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Holdings: holdings,
	}
	r.mu.Unlock()
	logger.Infof("[watchlist] loaded %d holdings from %s", len(holdings), filepath.Base(r.path))
	return nil
}

func (r *Registry) notifyListeners() {
	snap := r.Snapshot()
	r.mu.RLock()
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer safeRecover("watchlist listener")
			cb(snap)
		}(fn)
	}
}

func (r *Registry) readFile() (FileConfig, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read watchlist failed: %w", err)
	}
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return FileConfig{}, fmt.Errorf("parse watchlist failed: %w", err)
	}
	doc, err := toJSONValue(generic)
	if err != nil {
		return FileConfig{}, err
	}
	if err := r.schema.Validate(doc); err != nil {
		return FileConfig{}, fmt.Errorf("watchlist schema validation failed: %w", err)
	}

	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse watchlist failed: %w", err)
	}
	return cfg, nil
}

func normalizeHoldings(in []Holding) ([]Holding, error) {
	out := make([]Holding, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, h := range in {
		sym := symbolpkg.Parse(h.Code)
		if !sym.Valid() {
			return nil, fmt.Errorf("holdings[%d]: invalid stock code %q", i, h.Code)
		}
		h.Code = sym.Internal()
		if _, dup := seen[h.Code]; dup {
			return nil, fmt.Errorf("holdings[%d]: duplicate stock code %s", i, h.Code)
		}
		seen[h.Code] = struct{}{}
		h.Name = strings.TrimSpace(h.Name)
		out = append(out, h)
	}
	return out, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("watchlist.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("watchlist.json")
}

// toJSONValue 将 yaml 解码结果转为 jsonschema 可校验的 JSON 值。
func toJSONValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert watchlist to json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func safeRecover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("%s panic: %v", tag, r)
	}
}
