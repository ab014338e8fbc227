package label

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"label-analyzer/internal/core/ai/provider"
	"label-analyzer/internal/core/history"
	"label-analyzer/internal/core/image"
	"label-analyzer/internal/infrastructure/metrics"
	"label-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// ReportCache 以圖片指紋為鍵的報告快取
//
// Get 讀取失敗或過期一律回傳 false；呼叫端不會因快取錯誤而中止分析。
type ReportCache interface {
	Get(ctx context.Context, hash string) (*AnalysisReport, bool)
	Put(ctx context.Context, hash string, report *AnalysisReport) error
}

// HistoryWriter 寫入掃描紀錄
type HistoryWriter interface {
	Save(ctx context.Context, rec *history.Record) error
}

// ImageArchiver 保存原始標籤圖片，回傳可存取的 URL
type ImageArchiver interface {
	Archive(ctx context.Context, hash string, img *image.Image) (string, error)
}

// Options 服務的可選元件，nil 代表停用
type Options struct {
	Cache     ReportCache
	History   HistoryWriter
	Archiver  ImageArchiver
	Metrics   *metrics.Metrics
	MaxTokens int
	Clock     common.Clock
}

// AnalyzeRequest 分析請求
type AnalyzeRequest struct {
	Images   []*image.Image
	Provider string
	UserID   string
}

// AnalyzeResult 分析結果
type AnalyzeResult struct {
	ScanID    string          `json:"scan_id"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	CacheHit  bool            `json:"cache_hit"`
	ImageHash string          `json:"image_hash,omitempty"`
	Report    *AnalysisReport `json:"report"`
}

// Service 標籤分析流程：快取 → 模型 → 解析 → 正規化 → 快取/紀錄
type Service struct {
	providers  *provider.Registry
	normalizer *Normalizer
	cache      ReportCache
	history    HistoryWriter
	archiver   ImageArchiver
	metrics    *metrics.Metrics
	maxTokens  int
	clock      common.Clock
}

// NewService 創建標籤分析服務
func NewService(providers *provider.Registry, normalizer *Normalizer, opts Options) *Service {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.Clock == nil {
		opts.Clock = common.SystemClock{}
	}
	return &Service{
		providers:  providers,
		normalizer: normalizer,
		cache:      opts.Cache,
		history:    opts.History,
		archiver:   opts.Archiver,
		metrics:    opts.Metrics,
		maxTokens:  opts.MaxTokens,
		clock:      opts.Clock,
	}
}

// Normalizer 取得正規化器
func (s *Service) Normalizer() *Normalizer {
	return s.normalizer
}

// Analyze 執行完整分析流程
//
// 多張圖片的請求不讀也不寫快取。
func (s *Service) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResult, error) {
	if req == nil || len(req.Images) == 0 {
		return nil, common.NewValidationError("at least one image is required")
	}

	p, err := s.providers.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	result := &AnalyzeResult{
		ScanID:   common.GenerateUUID(),
		Provider: p.Name(),
		Model:    p.GetModel(),
	}

	single := len(req.Images) == 1
	if single {
		result.ImageHash = image.Fingerprint(req.Images[0].Data)
		if report, ok := s.lookup(ctx, result.ImageHash); ok {
			result.CacheHit = true
			result.Report = report
			s.metrics.ObserveAnalysis(p.Name(), metrics.OutcomeCacheHit)
			s.record(ctx, req, result)
			return result, nil
		}
	}

	report, model, err := s.callProvider(ctx, p, req.Images)
	if err != nil {
		s.metrics.ObserveAnalysis(p.Name(), outcomeOf(err))
		return nil, err
	}
	if model != "" {
		result.Model = model
	}

	sum := s.normalizer.Normalize(report)
	s.metrics.ObserveIngredients(sum.Verified, sum.Unverified())
	common.LogInfo("Label normalized",
		zap.String("scan_id", result.ScanID),
		zap.String("product", report.ProductName),
		zap.Int("ingredients", sum.Total),
		zap.Int("verified", sum.Verified),
	)

	result.Report = report
	if single {
		s.store(ctx, result.ImageHash, report)
	}

	s.metrics.ObserveAnalysis(p.Name(), metrics.OutcomeSuccess)
	s.record(ctx, req, result)
	return result, nil
}

func (s *Service) callProvider(ctx context.Context, p provider.Provider, images []*image.Image) (*AnalysisReport, string, error) {
	start := time.Now()
	resp, err := p.Analyze(ctx, &provider.Request{
		SystemPrompt: SystemPrompt,
		UserPrompt:   UserPrompt(len(images)),
		Images:       images,
		MaxTokens:    s.maxTokens,
	})
	elapsed := time.Since(start)
	s.metrics.ObserveProvider(p.Name(), elapsed)
	common.LogProviderCall(p.Name(), p.GetModel(), elapsed, err)
	if err != nil {
		return nil, "", &ProviderError{Provider: p.Name(), Err: err}
	}

	report, err := ParseModelOutput(resp.Content)
	if err != nil {
		if IsMalformed(err) {
			// 原始輸出只寫入日誌
			common.LogWarn("Malformed model output",
				zap.String("provider", p.Name()),
				zap.Error(err),
				zap.String("content", common.Truncate(resp.Content, 500)),
			)
		}
		return nil, "", err
	}
	return report, resp.Model, nil
}

func (s *Service) lookup(ctx context.Context, hash string) (*AnalysisReport, bool) {
	if s.cache == nil {
		return nil, false
	}
	report, ok := s.cache.Get(ctx, hash)
	s.metrics.ObserveCacheLookup(ok)
	return report, ok
}

func (s *Service) store(ctx context.Context, hash string, report *AnalysisReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, hash, report); err != nil {
		common.LogWarn("Failed to cache report",
			zap.String("hash", common.ShortHash(hash)),
			zap.Error(err),
		)
	}
}

// record 上傳圖片並寫入紀錄，兩者失敗都只記錄日誌
func (s *Service) record(ctx context.Context, req *AnalyzeRequest, result *AnalyzeResult) {
	if s.history == nil || req.UserID == "" {
		return
	}

	hash := result.ImageHash
	if hash == "" {
		hash = image.Fingerprint(req.Images[0].Data)
	}

	var imageURL string
	if s.archiver != nil {
		url, err := s.archiver.Archive(ctx, hash, req.Images[0])
		if err != nil {
			common.LogWarn("Failed to archive label image", zap.String("scan_id", result.ScanID), zap.Error(err))
		} else {
			imageURL = url
		}
	}

	data, err := json.Marshal(result.Report)
	if err != nil {
		common.LogWarn("Failed to encode report for history", zap.Error(err))
		return
	}

	rec := &history.Record{
		ID:           result.ScanID,
		UserID:       req.UserID,
		ProductName:  result.Report.ProductName,
		OverallScore: int(result.Report.OverallScore),
		RiskLevel:    result.Report.RiskLevel,
		ImageHash:    hash,
		ImageURL:     imageURL,
		Provider:     result.Provider,
		Data:         data,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.history.Save(ctx, rec); err != nil {
		common.LogWarn("Failed to save scan history",
			zap.String("scan_id", result.ScanID),
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
	}
}

func outcomeOf(err error) string {
	switch {
	case IsUnreadable(err):
		return metrics.OutcomeUnreadable
	case IsMalformed(err):
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeError
	}
}

// NormalizeRaw 離線解析並正規化一段模型輸出
func (s *Service) NormalizeRaw(content string) (*AnalysisReport, Summary, error) {
	report, err := ParseModelOutput(content)
	if err != nil {
		return nil, Summary{}, err
	}
	return report, s.normalizer.Normalize(report), nil
}

// CheckReady 確認至少有一個供應商
func (s *Service) CheckReady() error {
	if s.providers == nil || len(s.providers.Names()) == 0 {
		return ErrNoProvider
	}
	if _, err := s.providers.Get(""); err != nil {
		return fmt.Errorf("default provider unavailable: %w", err)
	}
	return nil
}
