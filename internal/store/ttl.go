package store

import (
	"sync"
	"time"
)

const (
	defaultShardCount = 16
	defaultMaxEntries = 256
)

// TTLStore 是按 key 分片的内存缓存，条目在写入 ttl 之后失效。
//
// Clear 会整体清空并递增代数；在清空前取得代数的写入（SetAt）会被丢弃，
// 保证强制刷新不会被清空前就已发出的拉取结果覆盖。
type TTLStore[V any] struct {
	// mu 只在 Clear 与 SetAt 之间提供互斥，普通读写只锁分片
	mu         sync.RWMutex
	generation uint64

	shards     []ttlShard[V]
	ttl        time.Duration
	maxEntries int
	nowFn      func() time.Time
}

type ttlShard[V any] struct {
	mu   sync.Mutex
	data map[string]ttlEntry[V]
}

type ttlEntry[V any] struct {
	value    V
	storedAt time.Time
}

// NewTTLStore maxEntries<=0 时使用默认容量 256。
func NewTTLStore[V any](ttl time.Duration, maxEntries int) *TTLStore[V] {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	shards := defaultShardCount
	if maxEntries < shards {
		shards = 1
	}
	s := &TTLStore[V]{
		shards:     make([]ttlShard[V], shards),
		ttl:        ttl,
		maxEntries: maxEntries,
		nowFn:      time.Now,
	}
	for i := range s.shards {
		s.shards[i] = ttlShard[V]{data: make(map[string]ttlEntry[V])}
	}
	return s
}

// WithClock 替换时钟，测试用。
func (s *TTLStore[V]) WithClock(now func() time.Time) *TTLStore[V] {
	if now != nil {
		s.nowFn = now
	}
	return s
}

func (s *TTLStore[V]) TTL() time.Duration { return s.ttl }

func (s *TTLStore[V]) shardFor(key string) *ttlShard[V] {
	return &s.shards[hashKey(key)%uint32(len(s.shards))]
}

func (s *TTLStore[V]) perShardLimit() int {
	n := s.maxEntries / len(s.shards)
	if n < 1 {
		n = 1
	}
	return n
}

func (s *TTLStore[V]) expired(e ttlEntry[V], now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.storedAt) >= s.ttl
}

// Get 返回未过期的值。
func (s *TTLStore[V]) Get(key string) (V, bool) {
	sh := s.shardFor(key)
	now := s.nowFn()
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.data[key]
	if !ok {
		var zero V
		return zero, false
	}
	if s.expired(e, now) {
		delete(sh.data, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *TTLStore[V]) Set(key string, value V) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.put(key, value)
}

// Generation 返回当前代数，配合 SetAt 使用。
func (s *TTLStore[V]) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// SetAt 仅当代数未变化时写入，返回是否写入成功。
func (s *TTLStore[V]) SetAt(gen uint64, key string, value V) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if gen != s.generation {
		return false
	}
	s.put(key, value)
	return true
}

func (s *TTLStore[V]) put(key string, value V) {
	sh := s.shardFor(key)
	now := s.nowFn()
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, exists := sh.data[key]; !exists && len(sh.data) >= s.perShardLimit() {
		s.evictLocked(sh, now)
	}
	sh.data[key] = ttlEntry[V]{value: value, storedAt: now}
}

// evictLocked 先清理过期条目，仍然满时淘汰最早写入的一条。
func (s *TTLStore[V]) evictLocked(sh *ttlShard[V], now time.Time) {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for k, e := range sh.data {
		if s.expired(e, now) {
			delete(sh.data, k)
			continue
		}
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.storedAt
		}
	}
	if len(sh.data) >= s.perShardLimit() && oldestKey != "" {
		delete(sh.data, oldestKey)
	}
}

func (s *TTLStore[V]) Delete(key string) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	delete(sh.data, key)
	sh.mu.Unlock()
}

// Clear 清空所有分片并递增代数。
func (s *TTLStore[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		sh.data = make(map[string]ttlEntry[V])
		sh.mu.Unlock()
	}
}

// Len 返回当前条目数（含尚未被清理的过期条目）。
func (s *TTLStore[V]) Len() int {
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		total += len(sh.data)
		sh.mu.Unlock()
	}
	return total
}

// hashKey FNV-1a
func hashKey(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	var h uint32 = offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
