package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/cache"
	"github.com/MorseWayne/cherry_market/internal/config"
	"github.com/MorseWayne/cherry_market/internal/metrics"
)

// TrendingTracker 基于单个有序集合统计商品浏览量。每次计数都会重置整个集合的过期时间，
// 长时间无浏览时集合自然消失。
type TrendingTracker struct {
	store   cache.RankingStore
	key     string
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger

	inflight sync.WaitGroup
}

// NewTrendingTracker 创建浏览量统计器
func NewTrendingTracker(store cache.RankingStore, cfg config.TrendingConfig, logger *zap.Logger) *TrendingTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrendingTracker{
		store:   store,
		key:     cfg.Key,
		ttl:     cfg.TTL,
		timeout: cfg.RecordTimeout,
		logger:  logger,
	}
}

// RecordView 浏览量加一。失败只记录日志，不返回错误。
func (t *TrendingTracker) RecordView(ctx context.Context, productID int64) {
	err := t.store.IncrScore(ctx, t.key, trendingMember(productID), 1, t.ttl)
	metrics.RecordTrendingView(err)
	if err != nil {
		t.logger.Warn("failed to record product view",
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
	}
}

// RecordViewAsync 在后台计数，不随请求取消而中止
func (t *TrendingTracker) RecordViewAsync(ctx context.Context, productID int64) {
	ctx = context.WithoutCancel(ctx)
	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		if t.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.timeout)
			defer cancel()
		}
		t.RecordView(ctx, productID)
	}()
}

// Wait 等待后台计数完成
func (t *TrendingTracker) Wait() {
	t.inflight.Wait()
}

// TopN 按浏览量降序返回前 n 个商品ID，分数相同时ID小者在前。
// 集合为空或读取失败时返回空列表。
func (t *TrendingTracker) TopN(ctx context.Context, n int) []int64 {
	if n <= 0 {
		return []int64{}
	}

	top, err := t.store.TopWithScores(ctx, t.key, n)
	if err != nil {
		t.logger.Warn("failed to read trending", zap.Error(err))
		return []int64{}
	}

	// 第 n 名的分数可能与榜外成员并列。严格高于该分数的成员都已在 top 中，
	// 并列部分只需按成员升序（即ID升序）补足剩余名额。
	candidates := top
	if len(top) == n {
		boundary := top[n-1].Score
		above := make([]cache.ScoredMember, 0, n)
		for _, m := range top {
			if m.Score > boundary {
				above = append(above, m)
			}
		}
		tied, err := t.store.MembersWithScore(ctx, t.key, boundary, n-len(above))
		if err != nil {
			t.logger.Warn("failed to read trending ties", zap.Error(err))
		} else {
			candidates = above
			for _, member := range tied {
				candidates = append(candidates, cache.ScoredMember{Member: member, Score: boundary})
			}
		}
	}

	type ranked struct {
		id    int64
		score float64
	}
	entries := make([]ranked, 0, len(candidates))
	for _, m := range candidates {
		id, err := strconv.ParseInt(m.Member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, ranked{id: id, score: m.Score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].id < entries[j].id
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}

// trendingMember 定宽补零，使成员字典序与ID数值序一致
func trendingMember(productID int64) string {
	return fmt.Sprintf("%019d", productID)
}
