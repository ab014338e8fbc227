package provider

import (
	"context"
	"errors"
	"time"

	"label-analyzer/internal/core/image"
)

// 供應商名稱
const (
	NameClaude = "claude"
	NameOpenAI = "openai"
)

// ErrUnknownProvider 找不到指定的供應商
var ErrUnknownProvider = errors.New("unknown ai provider")

// Request 表示發送到 AI 提供者的標籤分析請求
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Images       []*image.Image
	MaxTokens    int
}

// Usage token 使用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response 表示從 AI 提供者收到的響應（模型原始文字）
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// Provider 定義 AI 提供者介面，兩個實作共用相同的輸入輸出
type Provider interface {
	// Name 供應商名稱（claude / openai）
	Name() string

	// Analyze 送出圖片並取得模型原始回應
	Analyze(ctx context.Context, req *Request) (*Response, error)

	// GetModel 獲取當前使用的模型名稱
	GetModel() string

	// Close 關閉提供者連接
	Close() error
}

// Config 定義 AI 提供者配置
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}
