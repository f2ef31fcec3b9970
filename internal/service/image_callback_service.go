package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/repo"
)

// ErrImageNotFound 回调中的图片在库中不存在
var ErrImageNotFound = errors.New("image not found")

// ResolveImageURL 将上传时的对象键转换为原图地址；已是绝对地址时原样返回
func ResolveImageURL(baseURL, key string) string {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") || baseURL == "" {
		return key
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(key, "/")
}

// ImageCallbackService 处理图片服务的回调：回填处理结果，全部图片完成后上架商品
type ImageCallbackService interface {
	Apply(ctx context.Context, req *domain.ImageCallbackRequest) error
}

type imageCallbackService struct {
	images      repo.ImageRepository
	products    repo.ProductRepository
	invalidator CacheInvalidator
	baseURL     string
	logger      *zap.Logger
}

// NewImageCallbackService 创建回调服务
func NewImageCallbackService(images repo.ImageRepository, products repo.ProductRepository, invalidator CacheInvalidator, baseURL string, logger *zap.Logger) ImageCallbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &imageCallbackService{
		images:      images,
		products:    products,
		invalidator: invalidator,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// Apply 重复回调不会产生副作用
func (s *imageCallbackService) Apply(ctx context.Context, req *domain.ImageCallbackRequest) error {
	url := ResolveImageURL(s.baseURL, strings.TrimSpace(req.ImageKey))
	img, err := s.images.GetByOriginalURL(ctx, url)
	if err != nil {
		return fmt.Errorf("get image: %w", err)
	}
	if img == nil {
		return ErrImageNotFound
	}
	if img.Processed {
		return nil
	}

	if err := s.images.MarkProcessed(ctx, img.ID, req.DetailURL, req.ThumbnailURL); err != nil {
		return fmt.Errorf("mark image processed: %w", err)
	}

	remaining, err := s.images.CountUnprocessed(ctx, img.ProductID)
	if err != nil {
		return fmt.Errorf("count unprocessed images: %w", err)
	}
	if remaining > 0 {
		s.logger.Debug("image processed, waiting for siblings",
			zap.Int64("product_id", img.ProductID),
			zap.Int("remaining", remaining),
		)
		return nil
	}

	all, err := s.images.ListByProductID(ctx, img.ProductID)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}
	thumbnail := req.ThumbnailURL
	if len(all) > 0 && all[0].ThumbnailURL != "" {
		thumbnail = all[0].ThumbnailURL
	}

	activated, err := s.products.Activate(ctx, img.ProductID, thumbnail)
	if err != nil {
		return fmt.Errorf("activate product: %w", err)
	}
	if activated {
		s.invalidator.InvalidateListings(ctx)
		s.logger.Info("product activated", zap.Int64("product_id", img.ProductID))
	}
	return nil
}
