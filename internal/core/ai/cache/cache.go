// Package cache 以圖片指紋為鍵快取已正規化的分析報告。
//
// 過期採惰性判斷：讀取時 now-timestamp >= ttl 視為不存在，不主動清掃。
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"label-analyzer/internal/core/label"
	"label-analyzer/internal/infrastructure/config"
	"label-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultTTL 報告有效期 7 天
const DefaultTTL = 7 * 24 * time.Hour

// 快取後端
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ErrUnsupportedBackend 設定的快取後端不存在
var ErrUnsupportedBackend = errors.New("unsupported cache backend")

// Cache 可關閉的報告快取
type Cache interface {
	label.ReportCache
	Close() error
}

// Options 共用設定
type Options struct {
	MaxSize  int
	TTL      time.Duration
	Compress bool
	Clock    common.Clock
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.MaxSize <= 0 {
		o.MaxSize = 1000
	}
	if o.Clock == nil {
		o.Clock = common.SystemClock{}
	}
	return o
}

// entry 快取內容與寫入時間
type entry struct {
	Report    *label.AnalysisReport `json:"report"`
	Timestamp time.Time             `json:"timestamp"`
}

func (e entry) valid(now time.Time, ttl time.Duration) bool {
	return e.Report != nil && now.Sub(e.Timestamp) < ttl
}

// New 依設定建立快取，停用時回傳 nil
func New(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}

	opts := Options{MaxSize: cfg.MaxSize, TTL: cfg.TTL, Compress: cfg.Compress}
	switch cfg.Backend {
	case "", BackendMemory:
		c := NewMemoryCache(opts)
		common.LogInfo("快取已初始化",
			zap.String("backend", BackendMemory),
			zap.Int("max_size", c.maxSize),
			zap.Duration("ttl", c.ttl),
		)
		return c, nil
	case BackendRedis:
		client, err := Dial(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		common.LogInfo("快取已初始化",
			zap.String("backend", BackendRedis),
			zap.String("addr", cfg.Redis.Addr),
			zap.Bool("compress", cfg.Compress),
		)
		return NewRedisCache(client, opts), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedBackend, cfg.Backend)
	}
}
