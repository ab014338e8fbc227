// Package queue 限制同時進行的模型調用數量，超出 workers 的請求排隊等待，
// 排隊數量達上限時直接拒絕。
package queue

import (
	"context"
	"errors"
	"sync/atomic"

	"label-analyzer/internal/core/ai/provider"
	"label-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrQueueFull 排隊中的請求已達上限
var ErrQueueFull = errors.New("ai request queue is full")

// Status 隊列狀態
type Status struct {
	Active         int `json:"active"`
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 隊列管理器
type Manager struct {
	workers   int
	maxSize   int
	slots     chan struct{}
	waiting   int64
	processed int64
}

// NewManager 創建新的隊列管理器，workers <= 0 時為 1
func NewManager(workers, maxSize int) *Manager {
	if workers <= 0 {
		workers = 1
	}
	if maxSize < 0 {
		maxSize = 0
	}
	return &Manager{
		workers: workers,
		maxSize: maxSize,
		slots:   make(chan struct{}, workers),
	}
}

// Acquire 取得執行名額，沒有空位時排隊等待
func (m *Manager) Acquire(ctx context.Context) error {
	// 有空位時不經過排隊
	select {
	case m.slots <- struct{}{}:
		return nil
	default:
	}

	if n := atomic.AddInt64(&m.waiting, 1); n > int64(m.maxSize) {
		atomic.AddInt64(&m.waiting, -1)
		common.LogWarn("AI request queue is full",
			zap.Int("max_queue_size", m.maxSize),
			zap.Int("workers", m.workers),
		)
		return ErrQueueFull
	}
	defer atomic.AddInt64(&m.waiting, -1)

	select {
	case m.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release 歸還執行名額
func (m *Manager) Release() {
	<-m.slots
	atomic.AddInt64(&m.processed, 1)
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		Active:         len(m.slots),
		QueueLength:    int(atomic.LoadInt64(&m.waiting)),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Wrap 讓供應商的 Analyze 經過隊列
func (m *Manager) Wrap(p provider.Provider) provider.Provider {
	return &limitedProvider{Provider: p, queue: m}
}

type limitedProvider struct {
	provider.Provider
	queue *Manager
}

func (l *limitedProvider) Analyze(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if err := l.queue.Acquire(ctx); err != nil {
		return nil, err
	}
	defer l.queue.Release()
	return l.Provider.Analyze(ctx, req)
}
