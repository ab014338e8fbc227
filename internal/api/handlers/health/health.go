package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"label-analyzer/internal/core/ai/queue"
	"label-analyzer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// checkTimeout 單一就緒檢查的時間上限
const checkTimeout = 3 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Providers []string               `json:"providers"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
}

// CheckFunc 就緒檢查，回傳 nil 表示正常
type CheckFunc func(ctx context.Context) error

type namedCheck struct {
	name string
	fn   CheckFunc
}

// Handler 健康、就緒與存活檢查
type Handler struct {
	version   string
	providers []string
	started   time.Time
	queue     *queue.Manager

	mu     sync.RWMutex
	checks []namedCheck
}

// NewHandler 創建健康檢查處理器
func NewHandler(version string, providers []string) *Handler {
	return &Handler{
		version:   version,
		providers: providers,
		started:   time.Now(),
	}
}

// SetQueue 在健康檢查中附上模型調用隊列狀態
func (h *Handler) SetQueue(q *queue.Manager) {
	h.queue = q
}

// AddCheck 註冊就緒檢查
func (h *Handler) AddCheck(name string, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, namedCheck{name: name, fn: fn})
}

// Register 註冊路由
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
	r.GET("/live", h.LivenessCheck)
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	providers := h.providers
	if providers == nil {
		providers = []string{}
	}

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Providers: providers,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		resp.Queue = h.queue.GetQueueStatus()
	}

	c.JSON(http.StatusOK, resp)
}

// ReadinessCheck 就緒檢查處理器，任一檢查失敗回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	h.mu.RLock()
	checks := append([]namedCheck(nil), h.checks...)
	h.mu.RUnlock()

	results := make(map[string]string, len(checks))
	ready := true
	for _, chk := range checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		err := chk.fn(ctx)
		cancel()

		if err != nil {
			ready = false
			results[chk.name] = err.Error()
			common.LogWarn("Readiness check failed",
				zap.String("check", chk.name),
				zap.Error(err),
			)
			continue
		}
		results[chk.name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": results,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// CheckNames 已註冊的檢查名稱（排序）
func (h *Handler) CheckNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.checks))
	for _, chk := range h.checks {
		names = append(names, chk.name)
	}
	sort.Strings(names)
	return names
}
