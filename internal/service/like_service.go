package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/pagination"
	"github.com/MorseWayne/cherry_market/internal/repo"
)

// LikeService 点赞业务接口
type LikeService interface {
	AddLike(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error)
	RemoveLike(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error)
	IsLiked(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error)
	// ListMyLikes 按点赞时间倒序分页列出用户点赞过的商品
	ListMyLikes(ctx context.Context, userID int64, cursor string, limit int) (*domain.ProductListResponse, error)
}

type likeService struct {
	likes       repo.LikeRepository
	products    repo.ProductRepository
	enricher    *Enricher
	invalidator CacheInvalidator
	logger      *zap.Logger
}

// NewLikeService 创建点赞服务
func NewLikeService(likes repo.LikeRepository, products repo.ProductRepository, enricher *Enricher, invalidator CacheInvalidator, logger *zap.Logger) LikeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &likeService{
		likes:       likes,
		products:    products,
		enricher:    enricher,
		invalidator: invalidator,
		logger:      logger,
	}
}

func (s *likeService) requireProduct(ctx context.Context, productID int64) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	return nil
}

// AddLike 幂等；点赞数变化后清空列表缓存
func (s *likeService) AddLike(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error) {
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	added, err := s.likes.Add(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("add like: %w", err)
	}
	if added {
		s.invalidator.InvalidateListings(ctx)
		s.logger.Debug("product liked", zap.Int64("user_id", userID), zap.Int64("product_id", productID))
	}
	return &domain.LikeStatus{ProductID: productID, Liked: true}, nil
}

func (s *likeService) RemoveLike(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error) {
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	removed, err := s.likes.Remove(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("remove like: %w", err)
	}
	if removed {
		s.invalidator.InvalidateListings(ctx)
		s.logger.Debug("product unliked", zap.Int64("user_id", userID), zap.Int64("product_id", productID))
	}
	return &domain.LikeStatus{ProductID: productID, Liked: false}, nil
}

func (s *likeService) IsLiked(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error) {
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	liked, err := s.likes.Exists(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("check like: %w", err)
	}
	return &domain.LikeStatus{ProductID: productID, Liked: liked}, nil
}

// ListMyLikes 游标为上一页最后一条点赞的 (created_at, like_id)，格式与 LATEST 排序相同。
// 结果不走列表缓存。
func (s *likeService) ListMyLikes(ctx context.Context, userID int64, cursor string, limit int) (*domain.ProductListResponse, error) {
	limit = domain.NormalizeLimit(limit)

	var after *repo.LikeCursor
	if ts, id, ok := pagination.DecodeTimeCursor(cursor); ok {
		after = &repo.LikeCursor{CreatedAt: ts, ID: id}
	}

	likes, err := s.likes.ListByUser(ctx, userID, after, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	hasNext := len(likes) > limit
	if hasNext {
		likes = likes[:limit]
	}

	ids := make([]int64, len(likes))
	for i, l := range likes {
		ids[i] = l.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load liked products: %w", err)
	}
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	items, err := s.enricher.Enrich(ctx, ordered, userID)
	if err != nil {
		return nil, err
	}

	result := &domain.ProductListResponse{Items: items}
	if hasNext && len(likes) > 0 {
		last := likes[len(likes)-1]
		next := pagination.EncodeTime(last.CreatedAt, last.ID)
		result.NextCursor = &next
	}
	return result, nil
}
