package label

import (
	"context"
	"errors"

	"label-analyzer/internal/core/ai/provider"
	"label-analyzer/internal/core/ai/queue"
	"label-analyzer/internal/core/history"
	"label-analyzer/internal/core/image"
	labelService "label-analyzer/internal/core/label"
	"label-analyzer/internal/core/reference"
	"label-analyzer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 標籤分析相關 API
type Handler struct {
	service      *labelService.Service
	images       *image.Service
	matcher      *reference.Matcher
	history      history.Store
	maxImages    int
	historyLimit int
	debug        bool
}

// Options 處理器設定
type Options struct {
	History      history.Store
	MaxImages    int
	HistoryLimit int
	Debug        bool
}

// NewHandler 創建處理器，History 為 nil 時紀錄查詢回傳 503
func NewHandler(svc *labelService.Service, images *image.Service, opts Options) *Handler {
	if opts.MaxImages <= 0 {
		opts.MaxImages = 5
	}
	return &Handler{
		service:      svc,
		images:       images,
		matcher:      svc.Normalizer().Matcher(),
		history:      opts.History,
		maxImages:    opts.MaxImages,
		historyLimit: history.ClampLimit(opts.HistoryLimit),
		debug:        opts.Debug,
	}
}

// Register 註冊路由
func (h *Handler) Register(api *gin.RouterGroup) {
	api.POST("/label/analyze", h.Analyze)
	api.GET("/ingredients", h.ListIngredients)
	api.GET("/ingredients/lookup", h.LookupIngredient)
	api.GET("/history/:user_id", h.History)
}

// toCustomError 將領域錯誤轉為單一對外錯誤
func toCustomError(err error) *common.CustomError {
	var unreadable *labelService.UnreadableImageError
	var providerErr *labelService.ProviderError
	var ce *common.CustomError

	switch {
	case errors.As(err, &unreadable):
		// 模型提供的訊息原樣回傳
		return common.ErrImageUnreadable.Wrap(err).WithMessage(unreadable.Message)
	case labelService.IsMalformed(err):
		return common.ErrMalformedResponse.Wrap(err)
	case errors.Is(err, provider.ErrUnknownProvider):
		return common.ErrUnknownProvider.Wrap(err)
	case common.IsValidationError(err):
		return common.ErrInvalidRequest.Wrap(err)
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, context.DeadlineExceeded):
		return common.ErrGatewayTimeout.Wrap(err)
	case errors.Is(err, queue.ErrQueueFull):
		return common.ErrTooManyRequests.Wrap(err)
	case errors.As(err, &providerErr):
		return common.ErrAIServiceError.Wrap(err)
	default:
		return common.ErrInternalError.Wrap(err)
	}
}

// respondError 回傳錯誤並記錄原始原因
func (h *Handler) respondError(c *gin.Context, err error) {
	ce := toCustomError(err)
	fields := []zap.Field{
		zap.String("code", ce.Code),
		zap.Int("status", ce.Status),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	}
	if ce.Status >= 500 {
		common.LogError("Request failed", fields...)
	} else {
		common.LogWarn("Request rejected", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response(h.debug))
}
