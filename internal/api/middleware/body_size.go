package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"label-analyzer/internal/pkg/common"
)

// BodySizeLimit 限制請求體大小，maxSize <= 0 時不限制。
// 標籤照片以 base64 傳送，約比原圖大三分之一，上限需高於 image.max_size_bytes。
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			common.LogWarn("Request body too large",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("route", c.FullPath()),
				zap.String("request_id", requestID(c)),
			)
			Abort(c, common.ErrRequestTooLarge)
			return
		}

		// 未宣告長度（chunked）的請求在讀取時截斷
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		c.Next()
	}
}
