package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"label-analyzer/internal/core/ai/queue"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(h *Handler, path string) (int, map[string]interface{}) {
	r := gin.New()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func TestHealthCheck(t *testing.T) {
	h := NewHandler("1.2.3", []string{"claude", "openai"})

	code, body := serve(h, "/health")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, []interface{}{"claude", "openai"}, body["providers"])
	assert.Contains(t, body["runtime"], "goroutines")
	assert.NotContains(t, body, "queue")

	h.SetQueue(queue.NewManager(3, 10))
	_, body = serve(h, "/health")
	assert.Equal(t, float64(3), body["queue"].(map[string]interface{})["workers"])
}

func TestReadinessCheck(t *testing.T) {
	h := NewHandler("dev", nil)
	h.AddCheck("reference", func(ctx context.Context) error { return nil })

	code, body := serve(h, "/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	h.AddCheck("providers", func(ctx context.Context) error { return errors.New("no ai provider configured") })

	code, body = serve(h, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, map[string]interface{}{
		"reference": "ok",
		"providers": "no ai provider configured",
	}, body["checks"])
	assert.Equal(t, []string{"providers", "reference"}, h.CheckNames())
}

func TestLivenessCheck(t *testing.T) {
	code, body := serve(NewHandler("dev", nil), "/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", body["status"])
}
