package cache

import (
	"context"
	"sync"
	"time"

	"label-analyzer/internal/core/label"
	"label-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryCache 行程內快取
type MemoryCache struct {
	mu      sync.Mutex
	store   map[string]memoryEntry
	maxSize int
	ttl     time.Duration
	clock   common.Clock
	stats   cacheStats
}

// memoryEntry 快取條目
type memoryEntry struct {
	entry
	lastAccess  time.Time
	accessCount int
}

// cacheStats 快取統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewMemoryCache 創建行程內快取
func NewMemoryCache(opts Options) *MemoryCache {
	opts = opts.withDefaults()
	return &MemoryCache{
		store:   make(map[string]memoryEntry),
		maxSize: opts.MaxSize,
		ttl:     opts.TTL,
		clock:   opts.Clock,
	}
}

// Get 取得未過期的報告副本
func (m *MemoryCache) Get(ctx context.Context, hash string) (*label.AnalysisReport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	e, exists := m.store[hash]
	if !exists || !e.valid(now, m.ttl) {
		// 過期條目留到寫入時才清除
		m.stats.misses++
		common.LogCacheLookup(BackendMemory, hash, false)
		return nil, false
	}

	e.lastAccess = now
	e.accessCount++
	m.store[hash] = e
	m.stats.hits++

	common.LogCacheLookup(BackendMemory, hash, true)
	return e.Report.Clone(), true
}

// Put 寫入或覆寫報告，容量滿時先清過期再淘汰最少使用
func (m *MemoryCache) Put(ctx context.Context, hash string, report *label.AnalysisReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if _, exists := m.store[hash]; !exists && len(m.store) >= m.maxSize {
		evicted := m.cleanup(now)
		if len(m.store) >= m.maxSize {
			m.evictLeastUsed()
			evicted++
		}
		common.LogDebug("快取清理執行", zap.Int("清理數量", evicted))
	}

	m.store[hash] = memoryEntry{
		entry:      entry{Report: report.Clone(), Timestamp: now},
		lastAccess: now,
	}
	return nil
}

// cleanup 清除過期條目
func (m *MemoryCache) cleanup(now time.Time) int {
	count := 0
	for key, e := range m.store {
		if !e.valid(now, m.ttl) {
			delete(m.store, key)
			count++
		}
	}
	m.stats.evictions += int64(count)
	return count
}

// evictLeastUsed 淘汰存取次數最少、其次最久未存取的條目
func (m *MemoryCache) evictLeastUsed() {
	var victim string
	var oldestAccess time.Time
	lowestCount := -1

	for key, e := range m.store {
		if lowestCount < 0 ||
			e.accessCount < lowestCount ||
			(e.accessCount == lowestCount && e.lastAccess.Before(oldestAccess)) {
			victim = key
			oldestAccess = e.lastAccess
			lowestCount = e.accessCount
		}
	}

	if victim != "" {
		delete(m.store, victim)
		m.stats.evictions++
		common.LogDebug("快取已淘汰", zap.String("hash", common.ShortHash(victim)))
	}
}

// Len 目前條目數（含已過期未清除者）
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// GetStats 獲取快取統計
func (m *MemoryCache) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ratio := 0.0
	if total := m.stats.hits + m.stats.misses; total > 0 {
		ratio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"size":      len(m.store),
		"max_size":  m.maxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"hit_ratio": ratio,
	}
}

// Close 清空快取
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]memoryEntry)
	common.LogInfo("快取已關閉",
		zap.Int64("hits", m.stats.hits),
		zap.Int64("misses", m.stats.misses),
		zap.Int64("evictions", m.stats.evictions),
	)
	return nil
}
