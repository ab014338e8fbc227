package label

import (
	"errors"
	"fmt"
)

// DefaultUnreadableMessage 模型未附訊息時使用的提示
const DefaultUnreadableMessage = "Imagem ilegível. Tente focar melhor nos ingredientes."

// ErrNoProvider 沒有可用的供應商
var ErrNoProvider = errors.New("no ai provider configured")

// UnreadableImageError 模型明確表示無法讀取標籤，Message 原樣呈現給使用者
type UnreadableImageError struct {
	Message string
}

func (e *UnreadableImageError) Error() string {
	return e.Message
}

// MalformedResponseError 模型輸出無法解析或不符合報告結構
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Reason, e.Err)
	}
	return "malformed model response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ProviderError 呼叫外部模型失敗
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsUnreadable 判斷是否為無法讀取圖片錯誤
func IsUnreadable(err error) bool {
	var target *UnreadableImageError
	return errors.As(err, &target)
}

// IsMalformed 判斷是否為模型輸出格式錯誤
func IsMalformed(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}

func malformed(reason string, err error) error {
	return &MalformedResponseError{Reason: reason, Err: err}
}
