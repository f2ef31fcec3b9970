package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/cache"
	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/query"
)

// ProductKeyPrefix 单个商品缓存键前缀
const ProductKeyPrefix = "product:id:"

// CachedProductRepository 单个商品读穿缓存；写操作后删除对应键。
// 列表缓存不在此处理，由服务层的失效器统一清理。
type CachedProductRepository struct {
	repo   ProductRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProductRepository 包装 repo
func NewCachedProductRepository(repo ProductRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) ProductRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProductRepository{repo: repo, cache: c, ttl: ttl, logger: logger}
}

func productKey(id int64) string {
	return fmt.Sprintf("%s%d", ProductKeyPrefix, id)
}

// Create 新商品无需清理单品缓存
func (r *CachedProductRepository) Create(ctx context.Context, listing *NewListing) error {
	return r.repo.Create(ctx, listing)
}

// GetByID 先查缓存，未命中回源并回填；缓存故障按未命中处理
func (r *CachedProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := productKey(id)

	var product domain.Product
	err := r.cache.Get(ctx, key, &product)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.logger.Warn("product cache read failed", zap.String("key", key), zap.Error(err))
	}

	result, err := r.repo.GetByID(ctx, id)
	if err != nil || result == nil {
		return result, err
	}

	if err := r.cache.Set(ctx, key, result, r.ttl); err != nil {
		r.logger.Warn("product cache write failed", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

// GetByIDs 批量读取直接回源
func (r *CachedProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	return r.repo.GetByIDs(ctx, ids)
}

func (r *CachedProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := r.repo.Update(ctx, product); err != nil {
		return err
	}
	r.evict(ctx, product.ID)
	return nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id int64) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

func (r *CachedProductRepository) Activate(ctx context.Context, id int64, thumbnailURL string) (bool, error) {
	ok, err := r.repo.Activate(ctx, id, thumbnailURL)
	if err != nil {
		return false, err
	}
	if ok {
		r.evict(ctx, id)
	}
	return ok, nil
}

// FindPage 分页结果由列表缓存负责
func (r *CachedProductRepository) FindPage(ctx context.Context, q query.PageQuery) ([]*domain.Product, error) {
	return r.repo.FindPage(ctx, q)
}

func (r *CachedProductRepository) evict(ctx context.Context, id int64) {
	if err := r.cache.Del(ctx, productKey(id)); err != nil {
		r.logger.Warn("product cache evict failed", zap.Int64("product_id", id), zap.Error(err))
	}
}
