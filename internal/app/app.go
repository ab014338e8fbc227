// Package app 依設定組裝標籤分析所需的元件，供 API 服務與 CLI 共用。
package app

import (
	"context"
	"errors"
	"fmt"

	"label-analyzer/internal/core/ai/cache"
	"label-analyzer/internal/core/ai/claude"
	"label-analyzer/internal/core/ai/openai"
	"label-analyzer/internal/core/ai/provider"
	"label-analyzer/internal/core/ai/queue"
	"label-analyzer/internal/core/history"
	"label-analyzer/internal/core/image"
	"label-analyzer/internal/core/label"
	"label-analyzer/internal/core/reference"
	"label-analyzer/internal/infrastructure/config"
	"label-analyzer/internal/infrastructure/metrics"
	"label-analyzer/internal/infrastructure/storage"
	"label-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// App 組裝完成的服務
type App struct {
	Config    *config.Config
	Providers *provider.Registry
	Queue     *queue.Manager
	Reference *reference.Index
	Service   *label.Service
	Images    *image.Service
	Cache     cache.Cache
	History   history.Store
	Metrics   *metrics.Metrics
}

// Options 組裝選項
type Options struct {
	// Offline 只載入參考資料，不建立快取、紀錄與封存（CLI 的 lookup/normalize）
	Offline bool
}

// New 依設定建立所有元件。
// 參考資料在 reference.required 為 true 時載入失敗即中止，否則以空清單降級運作；
// 快取、紀錄與封存連線失敗只記錄警告；Redis 無法連線時改用記憶體快取。
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	idx, err := LoadReference(cfg.Reference)
	if err != nil {
		return nil, err
	}

	q := queue.NewManager(cfg.Queue.Workers, cfg.Queue.MaxSize)
	a := &App{
		Config:    cfg,
		Providers: NewRegistry(cfg, q),
		Queue:     q,
		Reference: idx,
		Images:    image.NewService(cfg.Image.MaxSizeBytes),
	}

	svcOpts := label.Options{MaxTokens: cfg.AI.MaxTokens}

	if !opts.Offline {
		a.Metrics = metrics.New()
		svcOpts.Metrics = a.Metrics

		c, err := openCache(ctx, cfg.Cache)
		if err != nil {
			a.Close()
			return nil, err
		}
		if c != nil {
			a.Cache = c
			svcOpts.Cache = c
		}

		if store := openHistory(ctx, cfg.History); store != nil {
			a.History = store
			svcOpts.History = store
		}

		if archiver := openStorage(ctx, cfg.Storage); archiver != nil {
			svcOpts.Archiver = archiver
		}
	}

	a.Service = label.NewService(a.Providers, label.NewNormalizer(reference.NewMatcher(idx)), svcOpts)
	return a, nil
}

// LoadReference 載入參考成分資料，未指定路徑時使用內建資料
func LoadReference(cfg config.ReferenceConfig) (*reference.Index, error) {
	var (
		idx *reference.Index
		err error
	)
	if cfg.Path != "" {
		idx, err = reference.Load(cfg.Path)
	} else {
		idx, err = reference.LoadDefault()
	}
	if err != nil {
		if cfg.Required {
			return nil, fmt.Errorf("failed to load reference data: %w", err)
		}
		common.LogWarn("Reference data unavailable, continuing without verification",
			zap.String("path", cfg.Path),
			zap.Error(err),
		)
		return reference.Empty(), nil
	}

	common.LogInfo("Reference data loaded",
		zap.String("path", cfg.Path),
		zap.Int("ingredients", idx.Len()),
	)
	return idx, nil
}

// NewRegistry 只註冊有 API Key 的供應商，q 不為 nil 時所有供應商共用同一個隊列
func NewRegistry(cfg *config.Config, q *queue.Manager) *provider.Registry {
	var providers []provider.Provider
	if cfg.Claude.Enabled() {
		providers = append(providers, claude.NewClient(providerConfig(cfg.Claude, cfg.AI)))
	}
	if cfg.OpenAI.Enabled() {
		providers = append(providers, openai.NewClient(providerConfig(cfg.OpenAI, cfg.AI)))
	}
	if q != nil {
		for i, p := range providers {
			providers[i] = q.Wrap(p)
		}
	}

	reg := provider.NewRegistry(cfg.AI.Provider, providers...)
	if len(providers) == 0 {
		common.LogWarn("No AI provider configured, analysis requests will fail")
	} else {
		common.LogInfo("AI providers registered",
			zap.Strings("providers", reg.Names()),
			zap.String("default", reg.Default()),
		)
	}
	return reg
}

func providerConfig(p config.ProviderConfig, ai config.AIConfig) provider.Config {
	return provider.Config{
		APIKey:  p.APIKey,
		Model:   p.Model,
		BaseURL: p.BaseURL,
		Timeout: ai.Timeout,
	}
}

func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	c, err := cache.New(ctx, cfg)
	if err == nil {
		return c, nil
	}
	if errors.Is(err, cache.ErrUnsupportedBackend) {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	common.LogWarn("Cache backend unavailable, falling back to memory cache",
		zap.String("backend", cfg.Backend),
		zap.String("addr", cfg.Redis.Addr),
		zap.Error(err),
	)
	return cache.NewMemoryCache(cache.Options{MaxSize: cfg.MaxSize, TTL: cfg.TTL}), nil
}

func openHistory(ctx context.Context, cfg config.HistoryConfig) history.Store {
	if !cfg.Enabled {
		return nil
	}
	store, err := history.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		common.LogWarn("Scan history unavailable", zap.String("driver", cfg.Driver), zap.Error(err))
		return nil
	}
	common.LogInfo("Scan history enabled", zap.String("driver", cfg.Driver))
	return store
}

func openStorage(ctx context.Context, cfg config.StorageConfig) label.ImageArchiver {
	if !cfg.Enabled {
		return nil
	}
	store, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		Bucket:    cfg.Bucket,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		common.LogWarn("Image archive unavailable", zap.String("endpoint", cfg.Endpoint), zap.Error(err))
		return nil
	}
	common.LogInfo("Image archive enabled", zap.String("bucket", cfg.Bucket))
	return store
}

// Close 釋放所有連線
func (a *App) Close() {
	if a.Providers != nil {
		if err := a.Providers.Close(); err != nil {
			common.LogWarn("Failed to close providers", zap.Error(err))
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			common.LogWarn("Failed to close cache", zap.Error(err))
		}
	}
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			common.LogWarn("Failed to close history store", zap.Error(err))
		}
	}
}
