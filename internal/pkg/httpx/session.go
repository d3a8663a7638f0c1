// Package httpx 提供进程级共享的 HTTP 会话：连接池、统一 UA、固定超时与按数据源限速。
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxBodyBytes = 8 << 20
)

type Config struct {
	Timeout   time.Duration
	UserAgent string
	ProxyURL  string
}

func (c Config) withDefaults() Config {
	out := c
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	out.UserAgent = strings.TrimSpace(out.UserAgent)
	if out.UserAgent == "" {
		out.UserAgent = DefaultUserAgent
	}
	out.ProxyURL = strings.TrimSpace(out.ProxyURL)
	return out
}

// StatusError 表示上游返回了非 2xx 状态码。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Session 被所有数据源共享，由 app 创建并在退出时 Close。
type Session struct {
	cfg    Config
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	closed   bool
}

func NewSession(cfg Config) (*Session, error) {
	final := cfg.withDefaults()
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok || base == nil {
		return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
	}
	transport := base.Clone()
	transport.MaxIdleConnsPerHost = 16
	if final.ProxyURL != "" {
		proxyURL, err := url.Parse(final.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &Session{
		cfg:      final,
		client:   &http.Client{Timeout: final.Timeout, Transport: transport},
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

// SetRateLimit 为指定数据源设置每秒请求数；perSecond<=0 表示不限速。
func (s *Session) SetRateLimit(source string, perSecond float64, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if perSecond <= 0 {
		delete(s.limiters, source)
		return
	}
	if burst <= 0 {
		burst = 1
	}
	s.limiters[source] = rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (s *Session) limiter(source string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limiters[source]
}

func (s *Session) Timeout() time.Duration {
	return s.cfg.Timeout
}

// Get 发起 GET 请求并返回完整响应体。等待限速令牌时遵循 ctx。
func (s *Session) Get(ctx context.Context, source, rawURL string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("nil session")
	}
	if lim := s.limiter(source); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Close 释放空闲连接，可重复调用。
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.client.CloseIdleConnections()
}
