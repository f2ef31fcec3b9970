package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/cache"
	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/metrics"
)

// ListKeyPrefix 列表缓存命名空间
const ListKeyPrefix = "products:list:"

const nullMarker = "null"

// ListCacheKey 由游标、全部过滤字段、排序方式与页大小生成缓存键。
// 每个字段都带标签，缺省值写作 null，字符串值加引号转义，保证不同请求不会得到相同的键。
func ListCacheKey(cursor string, filter domain.ProductFilter, limit int) string {
	var b strings.Builder
	b.WriteString(ListKeyPrefix)

	field := func(name, value string) {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte(';')
	}
	quoted := func(s *string) string {
		if s == nil {
			return nullMarker
		}
		return strconv.Quote(*s)
	}
	number := func(n *int64) string {
		if n == nil {
			return nullMarker
		}
		return strconv.FormatInt(*n, 10)
	}

	if cursor == "" {
		field("cursor", nullMarker)
	} else {
		field("cursor", strconv.Quote(cursor))
	}

	status := nullMarker
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	field("status", status)
	field("category", quoted(filter.CategoryCode))
	field("min", number(filter.MinPrice))
	field("max", number(filter.MaxPrice))

	trade := nullMarker
	if filter.TradeType != nil {
		trade = string(*filter.TradeType)
	}
	field("trade", trade)
	field("sort", string(filter.SortOrDefault()))
	b.WriteString("limit=")
	b.WriteString(strconv.Itoa(limit))
	return b.String()
}

// ListLoader 缓存未命中时加载一页，返回结果已按 userID 个性化
type ListLoader func(ctx context.Context) (*domain.ProductListResponse, error)

// ListCache 列表读穿缓存。缓存值不携带个性化字段，命中后再为当前用户覆盖点赞状态。
// 缓存读写失败只记录日志与指标，按未命中处理。
type ListCache struct {
	store    cache.Cache
	enricher *Enricher
	ttl      time.Duration
	logger   *zap.Logger
}

// NewListCache 创建列表缓存
func NewListCache(store cache.Cache, enricher *Enricher, ttl time.Duration, logger *zap.Logger) *ListCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListCache{store: store, enricher: enricher, ttl: ttl, logger: logger}
}

// GetOrLoad 命中时直接返回（匿名）或覆盖点赞状态后返回；未命中时调用 loader，
// 写入去个性化副本，并把 loader 的结果原样返回，不做第二次聚合。
func (c *ListCache) GetOrLoad(ctx context.Context, key string, userID int64, loader ListLoader) (*domain.ProductListResponse, error) {
	var cached domain.ProductListResponse
	err := c.store.Get(ctx, key, &cached)
	switch {
	case err == nil:
		metrics.RecordListCache("hit")
		if cached.Items == nil {
			cached.Items = []domain.ProductSummary{}
		}
		if userID <= 0 {
			return &cached, nil
		}
		items, err := c.enricher.Personalize(ctx, cached.Items, userID)
		if err != nil {
			return nil, err
		}
		return &domain.ProductListResponse{Items: items, NextCursor: cached.NextCursor}, nil
	case errors.Is(err, cache.ErrMiss):
		metrics.RecordListCache("miss")
	default:
		metrics.RecordListCache("error")
		c.logger.Warn("list cache read failed", zap.String("key", key), zap.Error(err))
	}

	result, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(context.WithoutCancel(ctx), key, result.Depersonalized(), c.ttl); err != nil {
		metrics.ListCacheWriteErrors.Inc()
		c.logger.Warn("list cache write failed", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}
