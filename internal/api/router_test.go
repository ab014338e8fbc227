package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"label-analyzer/internal/core/ai/provider"
	"label-analyzer/internal/core/image"
	"label-analyzer/internal/core/label"
	"label-analyzer/internal/core/reference"
	"label-analyzer/internal/infrastructure/config"
	"label-analyzer/internal/infrastructure/metrics"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopProvider struct{}

func (nopProvider) Name() string     { return provider.NameClaude }
func (nopProvider) GetModel() string { return "test" }
func (nopProvider) Close() error     { return nil }

func (nopProvider) Analyze(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	return &provider.Response{Content: `{"ingredients":[]}`}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)
	cfg.App.Debug = true
	return cfg
}

func newRouter(t *testing.T, reg *provider.Registry) (http.Handler, *metrics.Metrics) {
	t.Helper()
	idx, err := reference.LoadDefault()
	require.NoError(t, err)

	m := metrics.New()
	svc := label.NewService(reg, label.NewNormalizer(reference.NewMatcher(idx)), label.Options{Metrics: m})
	r, err := SetupRouter(testConfig(t), Dependencies{
		Service:   svc,
		Images:    image.NewService(1 << 20),
		Metrics:   m,
		Providers: reg.Names(),
	})
	require.NoError(t, err)
	return r, m
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSetupRouter(t *testing.T) {
	r, _ := newRouter(t, provider.NewRegistry(provider.NameClaude, nopProvider{}))

	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusOK, get(r, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(r, "/live").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/ingredients").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/api/v1/history/u1").Code)

	w = get(r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="/api/v1/ingredients"`)
}

func TestReadyWithoutProviders(t *testing.T) {
	r, _ := newRouter(t, provider.NewRegistry(provider.NameClaude))

	w := get(r, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "no ai provider")
}

func TestSetupRouterRequiresService(t *testing.T) {
	_, err := SetupRouter(testConfig(t), Dependencies{})
	assert.Error(t, err)
}
