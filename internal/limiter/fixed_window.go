package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter 基于 Redis 的固定窗口限流器，多实例共享计数
type FixedWindowLimiter struct {
	client redis.Cmdable
	config Config
	now    func() time.Time
}

// NewFixedWindowLimiter 创建固定窗口限流器
func NewFixedWindowLimiter(client redis.Cmdable, config Config) (*FixedWindowLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.Rate <= 0 {
		return nil, fmt.Errorf("rate must be positive, got %d", config.Rate)
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "limiter:fw"
	}
	return &FixedWindowLimiter{client: client, config: config, now: time.Now}, nil
}

// Redis Lua脚本：固定窗口算法
// 返回 {allowed, remaining, retry_after, count}
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local window_start = math.floor(now / window) * window
local window_key = key .. ":" .. window_start

local current = tonumber(redis.call('GET', window_key) or 0)
if current + 1 > limit then
    return {0, 0, window_start + window - now, current}
end

local count = redis.call('INCR', window_key)
if count == 1 then
    redis.call('EXPIRE', window_key, window)
end
return {1, limit - count, 0, count}
`)

// Allow 检查是否允许请求通过
func (fw *FixedWindowLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	redisKey := fmt.Sprintf("%s:%s", fw.config.KeyPrefix, key)
	values, err := fixedWindowScript.Run(ctx, fw.client,
		[]string{redisKey},
		fw.config.Rate,
		fw.config.windowSeconds(),
		fw.now().Unix(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to execute fixed window script: %w", err)
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result length %d", len(values))
	}

	return &LimitResult{
		Allowed:       values[0] == 1,
		Remaining:     values[1],
		RetryAfter:    time.Duration(values[2]) * time.Second,
		TotalRequests: values[3],
	}, nil
}

// MemoryLimiter 进程内固定窗口限流器，Redis 不可用时使用
type MemoryLimiter struct {
	mu      sync.Mutex
	config  Config
	windows map[string]*memoryWindow
	now     func() time.Time
}

type memoryWindow struct {
	start int64
	count int64
}

// NewMemoryLimiter 创建进程内限流器
func NewMemoryLimiter(config Config) *MemoryLimiter {
	return &MemoryLimiter{
		config:  config,
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
	}
}

// Allow 检查是否允许请求通过
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	window := m.config.windowSeconds()
	now := m.now().Unix()
	start := windowStart(now, window)

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || w.start != start {
		// 进入新窗口时顺带清理过期计数
		if !ok && len(m.windows) > 0 {
			m.sweep(start)
		}
		w = &memoryWindow{start: start}
		m.windows[key] = w
	}

	if w.count+1 > m.config.Rate {
		return &LimitResult{
			Allowed:       false,
			RetryAfter:    time.Duration(start+window-now) * time.Second,
			TotalRequests: w.count,
		}, nil
	}
	w.count++
	return &LimitResult{
		Allowed:       true,
		Remaining:     m.config.Rate - w.count,
		TotalRequests: w.count,
	}, nil
}

func (m *MemoryLimiter) sweep(current int64) {
	for k, w := range m.windows {
		if w.start < current {
			delete(m.windows, k)
		}
	}
}
