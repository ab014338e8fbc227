package label

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"label-analyzer/internal/core/history"
	"label-analyzer/internal/core/image"
	labelService "label-analyzer/internal/core/label"
	"label-analyzer/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalyzeRequest 標籤分析請求
// image 與 images 可擇一或同時提供，皆為 base64、data URI 或 URL
type AnalyzeRequest struct {
	Image    string   `json:"image,omitempty"`
	Images   []string `json:"images,omitempty"`
	Provider string   `json:"provider,omitempty"` // claude / openai，空白使用預設
	UserID   string   `json:"user_id,omitempty"`
}

// inputs 合併 image 與 images，略過空白項目
func (r *AnalyzeRequest) inputs() []string {
	out := make([]string, 0, len(r.Images)+1)
	if strings.TrimSpace(r.Image) != "" {
		out = append(out, r.Image)
	}
	for _, img := range r.Images {
		if strings.TrimSpace(img) != "" {
			out = append(out, img)
		}
	}
	return out
}

// Analyze 處理 POST /api/v1/label/analyze
func (h *Handler) Analyze(c *gin.Context) {
	start := time.Now()

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, common.NewValidationError(fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	raw := req.inputs()
	if len(raw) == 0 {
		h.respondError(c, common.NewValidationError("at least one image is required"))
		return
	}
	if len(raw) > h.maxImages {
		h.respondError(c, common.NewValidationError(
			fmt.Sprintf("too many images: %d (max %d)", len(raw), h.maxImages)))
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if len(userID) > history.MaxUserIDLength {
		h.respondError(c, common.NewValidationError(
			fmt.Sprintf("user_id too long (max %d bytes)", history.MaxUserIDLength)))
		return
	}

	common.LogInfo("Label analysis request",
		zap.String("request_id", requestid.Get(c)),
		zap.String("client_ip", c.ClientIP()),
		zap.String("provider", req.Provider),
		zap.Int("images", len(raw)),
		zap.String("image_kind", imageKind(raw[0])),
	)

	images := make([]*image.Image, 0, len(raw))
	for _, r := range raw {
		img, err := h.images.Decode(c.Request.Context(), r)
		if err != nil {
			h.respondError(c, err)
			return
		}
		images = append(images, img)
	}

	result, err := h.service.Analyze(c.Request.Context(), &labelService.AnalyzeRequest{
		Images:   images,
		Provider: req.Provider,
		UserID:   userID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.LogInfo("Label analysis completed",
		zap.String("request_id", requestid.Get(c)),
		zap.String("scan_id", result.ScanID),
		zap.String("provider", result.Provider),
		zap.Bool("cache_hit", result.CacheHit),
		zap.Duration("duration", time.Since(start)),
	)

	c.JSON(http.StatusOK, result)
}

// imageKind 圖片輸入的類型（僅用於日誌）
func imageKind(raw string) string {
	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return "url"
	case strings.HasPrefix(raw, "data:image/"):
		if head, _, ok := strings.Cut(raw, ";base64,"); ok {
			return "data_uri_" + strings.TrimPrefix(head, "data:image/")
		}
		return "invalid_data_uri"
	default:
		return "base64"
	}
}
