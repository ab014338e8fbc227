package label

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"label-analyzer/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// History 處理 GET /api/v1/history/:user_id?limit=
func (h *Handler) History(c *gin.Context) {
	if h.history == nil {
		h.respondError(c, common.ErrServiceUnavailable.Wrap(fmt.Errorf("history store is disabled")))
		return
	}

	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		h.respondError(c, common.NewValidationError("user_id is required"))
		return
	}

	limit := h.historyLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.respondError(c, common.NewValidationError(fmt.Sprintf("invalid limit: %q", v)))
			return
		}
		limit = n
	}

	records, err := h.history.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"count":   len(records),
		"scans":   records,
	})
}
