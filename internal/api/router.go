package api

import (
	"context"
	"fmt"
	"time"

	"label-analyzer/internal/api/handlers/health"
	labelHandler "label-analyzer/internal/api/handlers/label"
	"label-analyzer/internal/api/middleware"
	"label-analyzer/internal/core/ai/queue"
	"label-analyzer/internal/core/history"
	"label-analyzer/internal/core/image"
	"label-analyzer/internal/core/label"
	"label-analyzer/internal/infrastructure/config"
	"label-analyzer/internal/infrastructure/metrics"
	"label-analyzer/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服務，History 與 Metrics 可為 nil
type Dependencies struct {
	Service   *label.Service
	Images    *image.Service
	History   history.Store
	Metrics   *metrics.Metrics
	Queue     *queue.Manager
	Providers []string
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Service == nil || deps.Images == nil {
		return nil, fmt.Errorf("label service and image service are required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	// 健康檢查路由不受限流影響
	hh := health.NewHandler(cfg.App.Version, deps.Providers)
	if deps.Queue != nil {
		hh.SetQueue(deps.Queue)
	}
	hh.AddCheck("providers", func(ctx context.Context) error {
		return deps.Service.CheckReady()
	})
	hh.AddCheck("reference", func(ctx context.Context) error {
		if cfg.Reference.Required && deps.Service.Normalizer().Matcher().Index().Len() == 0 {
			return fmt.Errorf("reference index is empty")
		}
		return nil
	})
	if deps.History != nil {
		hh.AddCheck("history", func(ctx context.Context) error {
			_, err := deps.History.ListByUser(ctx, "__readiness__", 1)
			return err
		})
	}
	hh.Register(router)

	if deps.Metrics != nil && cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(deps.Metrics.Handler()))
	}

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.NewDeduplicator(cfg.DedupWindow).Handler())
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	labelHandler.NewHandler(deps.Service, deps.Images, labelHandler.Options{
		History:      deps.History,
		MaxImages:    cfg.Image.MaxImages,
		HistoryLimit: cfg.History.Limit,
		Debug:        cfg.App.Debug,
	}).Register(api)

	common.LogInfo("Router setup completed successfully",
		zap.Strings("providers", deps.Providers),
		zap.Bool("history_enabled", deps.History != nil),
		zap.Bool("metrics_enabled", deps.Metrics != nil),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
