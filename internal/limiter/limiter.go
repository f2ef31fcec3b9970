// Package limiter 提供固定窗口限流器（Redis 与进程内两种实现）及 gin 限流中间件。
package limiter

import (
	"context"
	"time"
)

// LimitResult 限流结果
type LimitResult struct {
	Allowed       bool          `json:"allowed"`        // 是否允许通过
	Remaining     int64         `json:"remaining"`      // 剩余配额
	RetryAfter    time.Duration `json:"retry_after"`    // 建议重试时间
	TotalRequests int64         `json:"total_requests"` // 当前窗口内请求数
}

// Limiter 限流器接口
type Limiter interface {
	// Allow 检查是否允许请求通过
	Allow(ctx context.Context, key string) (*LimitResult, error)
}

// Config 限流配置
type Config struct {
	Rate      int64         // 每个窗口允许的请求数
	Window    time.Duration // 窗口长度，按秒取整，至少 1 秒
	KeyPrefix string
}

func (c *Config) windowSeconds() int64 {
	s := int64(c.Window / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

// windowStart 计算 now 所在窗口的起始秒
func windowStart(now, window int64) int64 {
	return now / window * window
}
