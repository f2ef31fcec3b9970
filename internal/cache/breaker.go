package cache

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/metrics"
)

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // 半开状态允许的探测请求数
	Interval         time.Duration // 闭合状态下计数清零周期
	Timeout          time.Duration // 打开后多久进入半开
	FailureThreshold uint32        // 连续失败多少次后打开
}

// DefaultBreakerConfig 默认配置
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "redis-cache",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerStore 在 Store 外层加熔断：Redis 连续故障时直接快速失败，
// 调用方据此走未命中/空操作路径，不再等待超时。
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker[any]
}

// NewBreakerStore 包装 inner
func NewBreakerStore(inner Store, cfg BreakerConfig, logger *zap.Logger) *BreakerStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// 未命中是正常结果，不计入失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CacheBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	}
	metrics.CacheBreakerState.WithLabelValues(cfg.Name).Set(0)

	return &BreakerStore{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[any](settings),
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (b *BreakerStore) do(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// State 当前熔断状态
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStore) Get(ctx context.Context, key string, dest any) error {
	return b.do(func() error { return b.inner.Get(ctx, key, dest) })
}

func (b *BreakerStore) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return b.do(func() error { return b.inner.Set(ctx, key, value, expiration) })
}

func (b *BreakerStore) Del(ctx context.Context, keys ...string) error {
	return b.do(func() error { return b.inner.Del(ctx, keys...) })
}

func (b *BreakerStore) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.do(func() error {
		var err error
		keys, err = b.inner.ScanKeys(ctx, prefix)
		return err
	})
	return keys, err
}

func (b *BreakerStore) IncrScore(ctx context.Context, key, member string, delta float64, ttl time.Duration) error {
	return b.do(func() error { return b.inner.IncrScore(ctx, key, member, delta, ttl) })
}

func (b *BreakerStore) TopWithScores(ctx context.Context, key string, n int) ([]ScoredMember, error) {
	var out []ScoredMember
	err := b.do(func() error {
		var err error
		out, err = b.inner.TopWithScores(ctx, key, n)
		return err
	})
	return out, err
}

func (b *BreakerStore) MembersWithScore(ctx context.Context, key string, score float64, limit int) ([]string, error) {
	var out []string
	err := b.do(func() error {
		var err error
		out, err = b.inner.MembersWithScore(ctx, key, score, limit)
		return err
	})
	return out, err
}

// Ping 不经过熔断器，用于健康检查
func (b *BreakerStore) Ping(ctx context.Context) error {
	return b.inner.Ping(ctx)
}

func (b *BreakerStore) Close() error {
	return b.inner.Close()
}
