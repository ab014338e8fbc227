package label

import (
	"net/http"
	"strings"

	"label-analyzer/internal/core/reference"
	"label-analyzer/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// LookupResponse 成分查詢結果
type LookupResponse struct {
	Query      string                `json:"query"`
	Match      reference.MatchKind   `json:"match"`
	Ingredient *reference.Ingredient `json:"ingredient"`
}

// ListIngredients 處理 GET /api/v1/ingredients
func (h *Handler) ListIngredients(c *gin.Context) {
	all := h.matcher.Index().FindAll()
	if all == nil {
		all = []reference.Ingredient{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(all),
		"ingredients": all,
	})
}

// LookupIngredient 處理 GET /api/v1/ingredients/lookup?q=
func (h *Handler) LookupIngredient(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		h.respondError(c, common.NewValidationError("query parameter q is required"))
		return
	}

	ing, kind := h.matcher.FindWithKind(q)
	if ing == nil {
		c.AbortWithStatusJSON(http.StatusNotFound,
			common.ErrNotFound.WithMessage("Ingrediente não encontrado na base de referência").Response(false))
		return
	}

	c.JSON(http.StatusOK, LookupResponse{Query: q, Match: kind, Ingredient: ing})
}
