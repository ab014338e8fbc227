package common

import (
	"time"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// Clock 時間來源，方便測試
type Clock interface {
	Now() time.Time
}

// SystemClock 預設實作，使用 time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock 固定時間，測試用
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

// Advance 將時間往前推
func (c *FixedClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}
