package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/cache"
	"github.com/MorseWayne/cherry_market/internal/metrics"
)

// invalidateBatch 每次 DEL 的键数量
const invalidateBatch = 500

// CacheInvalidator 清空全部列表缓存。商品的创建、修改、删除、上架以及点赞变化后同步调用。
type CacheInvalidator interface {
	InvalidateListings(ctx context.Context)
}

type cacheInvalidator struct {
	store  cache.Cache
	logger *zap.Logger
}

// NewCacheInvalidator 创建失效器
func NewCacheInvalidator(store cache.Cache, logger *zap.Logger) CacheInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cacheInvalidator{store: store, logger: logger}
}

// InvalidateListings 扫描列表命名空间下的全部键并分批删除。
// 失败只记录日志，写操作本身不受影响；残留条目在 TTL 到期后自然淘汰。
func (i *cacheInvalidator) InvalidateListings(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	keys, err := i.store.ScanKeys(ctx, ListKeyPrefix)
	if err != nil {
		metrics.RecordInvalidation(0, err)
		i.logger.Warn("list cache scan failed", zap.Error(err))
		return
	}

	deleted := 0
	for start := 0; start < len(keys); start += invalidateBatch {
		end := min(start+invalidateBatch, len(keys))
		if err := i.store.Del(ctx, keys[start:end]...); err != nil {
			metrics.RecordInvalidation(deleted, err)
			i.logger.Warn("list cache delete failed",
				zap.Int("deleted", deleted),
				zap.Int("total", len(keys)),
				zap.Error(err),
			)
			return
		}
		deleted = end
	}

	metrics.RecordInvalidation(deleted, nil)
	i.logger.Debug("list cache invalidated", zap.Int("keys", deleted))
}
