package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"label-analyzer/internal/core/label"
	"label-analyzer/internal/infrastructure/config"
	"label-analyzer/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

const keyPrefix = "label:analysis:"

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// EncodeAll / DecodeAll 可併發使用
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// RedisCache 以 Redis 保存報告，跨行程共用
type RedisCache struct {
	client   *redis.Client
	ttl      time.Duration
	compress bool
	clock    common.Clock
}

// Dial 連線 Redis 並測試連線
func Dial(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisCache 使用既有 Redis 連線
func NewRedisCache(client *redis.Client, opts Options) *RedisCache {
	opts = opts.withDefaults()
	return &RedisCache{
		client:   client,
		ttl:      opts.TTL,
		compress: opts.Compress,
		clock:    opts.Clock,
	}
}

// Key 報告在 Redis 中的鍵
func Key(hash string) string {
	return keyPrefix + hash
}

// Get 讀取報告，任何錯誤都視為未命中
func (s *RedisCache) Get(ctx context.Context, hash string) (*label.AnalysisReport, bool) {
	data, err := s.client.Get(ctx, Key(hash)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			common.LogWarn("Failed to read cache", zap.String("hash", common.ShortHash(hash)), zap.Error(err))
		}
		common.LogCacheLookup(BackendRedis, hash, false)
		return nil, false
	}

	e, err := decodeEntry(data)
	if err != nil {
		common.LogWarn("Failed to decode cache entry", zap.String("hash", common.ShortHash(hash)), zap.Error(err))
		common.LogCacheLookup(BackendRedis, hash, false)
		return nil, false
	}

	// Redis TTL 之外仍以寫入時間判斷
	if !e.valid(s.clock.Now(), s.ttl) {
		common.LogCacheLookup(BackendRedis, hash, false)
		return nil, false
	}

	common.LogCacheLookup(BackendRedis, hash, true)
	return e.Report, true
}

// Put 寫入報告並設定 Redis TTL
func (s *RedisCache) Put(ctx context.Context, hash string, report *label.AnalysisReport) error {
	data, err := json.Marshal(entry{Report: report, Timestamp: s.clock.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if s.compress {
		data = zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2))
	}

	if err := s.client.Set(ctx, Key(hash), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉 Redis 連線
func (s *RedisCache) Close() error {
	return s.client.Close()
}

// decodeEntry 依 magic bytes 判斷是否壓縮，切換 compress 設定後舊資料仍可讀
func decodeEntry(data []byte) (entry, error) {
	var e entry
	if bytes.HasPrefix(data, zstdMagic) {
		plain, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return e, fmt.Errorf("zstd decompress error: %w", err)
		}
		data = plain
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return e, nil
}
