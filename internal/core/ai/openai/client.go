package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"label-analyzer/internal/core/ai/provider"
	"label-analyzer/internal/pkg/common"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client OpenAI Chat Completions 客戶端
type Client struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
}

// NewClient 創建 OpenAI 客戶端
func NewClient(cfg provider.Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	config.HTTPClient = httpClient

	return &Client{
		client:     openai.NewClientWithConfig(config),
		httpClient: httpClient,
		model:      cfg.Model,
	}
}

// Name 供應商名稱
func (c *Client) Name() string { return provider.NameOpenAI }

// GetModel 獲取模型名稱
func (c *Client) GetModel() string { return c.model }

// Analyze 以 JSON 模式送出圖片與提示
func (c *Client) Analyze(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if len(req.Images) == 0 {
		return nil, fmt.Errorf("at least one image is required")
	}

	parts := make([]openai.ChatMessagePart, 0, len(req.Images)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: req.UserPrompt,
	})
	for _, img := range req.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    img.DataURI(),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}
	// 推理模型使用 MaxCompletionTokens
	if isReasoningModel(c.model) {
		chatReq.MaxCompletionTokens = req.MaxTokens
	} else {
		chatReq.MaxTokens = req.MaxTokens
	}

	common.LogDebug("Sending request to OpenAI",
		zap.String("model", c.model),
		zap.Int("images", len(req.Images)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("empty content in OpenAI response")
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	return &provider.Response{
		Content: resp.Choices[0].Message.Content,
		Model:   model,
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
