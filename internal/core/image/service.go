package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	_ "golang.org/x/image/webp" // 支援 WebP

	"label-analyzer/internal/pkg/common"
)

// Image 已驗證的標籤圖片
type Image struct {
	MediaType string // image/jpeg, image/png ...
	Data      []byte // 原始圖片位元組
}

// Base64 回傳不含前綴的 base64 字串
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURI 回傳 data:image/...;base64,... 格式
func (i *Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MediaType, i.Base64())
}

// Extension 依媒體類型回傳副檔名
func (i *Image) Extension() string {
	switch i.MediaType {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
	httpClient   *http.Client
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Decode 解析並驗證圖片，支援 data URI、純 base64 字串與 http(s) URL
func (s *Service) Decode(ctx context.Context, raw string) (*Image, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("image data is empty"))
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		data, err = s.download(ctx, raw)
	} else {
		data, err = decodeBase64(raw)
	}
	if err != nil {
		return nil, err
	}

	return s.validate(data)
}

// FromBytes 驗證已讀入的圖片位元組（CLI 使用）
func (s *Service) FromBytes(data []byte) (*Image, error) {
	return s.validate(data)
}

func (s *Service) validate(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("image data is empty"))
	}

	// 檢查文件大小
	if int64(len(data)) > s.maxSizeBytes {
		return nil, common.ErrInvalidImageSize.Wrap(
			fmt.Errorf("image size %d exceeds maximum limit of %d bytes", len(data), s.maxSizeBytes))
	}

	// 只解析標頭，不需要完整解碼
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, common.ErrInvalidImageType.Wrap(fmt.Errorf("failed to decode image: %w", err))
	}

	mediaType, ok := supportedFormats[format]
	if !ok {
		return nil, common.ErrInvalidImageType.Wrap(fmt.Errorf("unsupported image format: %s", format))
	}

	return &Image{MediaType: mediaType, Data: data}, nil
}

func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("invalid image url: %w", err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to download image: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to download image: status code %d", resp.StatusCode))
	}

	// 多讀一個位元組以判斷是否超過上限
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSizeBytes+1))
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to read image data: %w", err))
	}
	return data, nil
}

// decodeBase64 解析 data URI 或純 base64
func decodeBase64(raw string) ([]byte, error) {
	payload := raw
	if strings.HasPrefix(raw, "data:") {
		parts := strings.SplitN(raw, ",", 2)
		if len(parts) != 2 || !strings.HasSuffix(parts[0], ";base64") {
			return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("invalid data uri"))
		}
		payload = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// 部分前端會送出不含 padding 的 base64
		if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
			return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode base64 data: %w", err))
		}
	}
	return data, nil
}

// supportedFormats image.DecodeConfig 回傳的格式名稱對應媒體類型
var supportedFormats = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}
