package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/metrics"
	"github.com/MorseWayne/cherry_market/internal/repo"
)

// Enricher 为一页商品批量补齐标签、点赞数与当前用户的点赞状态。
// 无论页大小，每类数据只查询一次。
type Enricher struct {
	tags  repo.TagRepository
	likes repo.LikeRepository
}

// NewEnricher 创建聚合器
func NewEnricher(tags repo.TagRepository, likes repo.LikeRepository) *Enricher {
	return &Enricher{tags: tags, likes: likes}
}

// Enrich 按 products 的顺序组装展示记录。userID 为 0 表示匿名，此时跳过点赞状态查询。
// 缺少标签或点赞数据的商品取空标签与 0。
func (e *Enricher) Enrich(ctx context.Context, products []*domain.Product, userID int64) ([]domain.ProductSummary, error) {
	if len(products) == 0 {
		return []domain.ProductSummary{}, nil
	}
	defer func(start time.Time) {
		metrics.EnrichDuration.Observe(time.Since(start).Seconds())
	}(time.Now())

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	var (
		tags   map[int64][]string
		counts map[int64]int64
		liked  map[int64]bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tags, err = e.tags.NamesByProductIDs(gctx, ids)
		if err != nil {
			return fmt.Errorf("load tags: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		counts, err = e.likes.CountByProductIDs(gctx, ids)
		if err != nil {
			return fmt.Errorf("load like counts: %w", err)
		}
		return nil
	})
	if userID > 0 {
		g.Go(func() error {
			var err error
			liked, err = e.likes.LikedSubset(gctx, userID, ids)
			if err != nil {
				return fmt.Errorf("load liked subset: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.ProductSummary, len(products))
	for i, p := range products {
		names := tags[p.ID]
		if names == nil {
			names = []string{}
		}
		out[i] = domain.ProductSummary{
			ID:           p.ID,
			Title:        p.Title,
			Price:        p.Price,
			Status:       p.Status,
			TradeType:    p.TradeType,
			CategoryCode: p.CategoryCode,
			ThumbnailURL: p.ThumbnailURL,
			Tags:         names,
			LikeCount:    counts[p.ID],
			IsLiked:      liked[p.ID],
			CreatedAt:    p.CreatedAt,
		}
	}
	return out, nil
}

// Personalize 为已组装的记录覆盖当前用户的点赞状态，原切片不变
func (e *Enricher) Personalize(ctx context.Context, items []domain.ProductSummary, userID int64) ([]domain.ProductSummary, error) {
	out := make([]domain.ProductSummary, len(items))
	copy(out, items)
	if userID <= 0 || len(items) == 0 {
		for i := range out {
			out[i].IsLiked = false
		}
		return out, nil
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	liked, err := e.likes.LikedSubset(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("load liked subset: %w", err)
	}
	for i := range out {
		out[i].IsLiked = liked[out[i].ID]
	}
	return out, nil
}
