// Package service 实现业务逻辑层，协调仓储、缓存与浏览量统计完成业务用例。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/pagination"
	"github.com/MorseWayne/cherry_market/internal/repo"
)

// 商品相关业务错误
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrForbidden        = errors.New("operation not allowed")
	ErrInvalidInput     = errors.New("invalid input")
)

// ProductService 商品业务接口。userID 为 0 表示匿名请求。
type ProductService interface {
	// 浏览
	ListProducts(ctx context.Context, req *domain.ListProductsRequest, userID int64) (*domain.ProductListResponse, error)
	GetTrending(ctx context.Context, userID int64) (*domain.ProductListResponse, error)
	GetProduct(ctx context.Context, id, userID int64) (*domain.ProductDetail, error)
	RecordView(ctx context.Context, id int64) error

	// 卖家管理
	CreateProduct(ctx context.Context, sellerID int64, req *domain.CreateProductRequest) (*domain.Product, error)
	UpdateProduct(ctx context.Context, sellerID, id int64, req *domain.UpdateProductRequest) (*domain.Product, error)
	DeleteProduct(ctx context.Context, sellerID, id int64) error
}

// ProductServiceDeps 商品服务依赖
type ProductServiceDeps struct {
	Products    repo.ProductRepository
	Categories  repo.CategoryRepository
	Images      repo.ImageRepository
	Tags        repo.TagRepository
	Likes       repo.LikeRepository
	Executor    *CatalogQueryExecutor
	Enricher    *Enricher
	ListCache   *ListCache
	Trending    *TrendingTracker
	Invalidator CacheInvalidator
	TrendingTop int
	ImageBase   string
	Logger      *zap.Logger
}

type productService struct {
	ProductServiceDeps
	logger *zap.Logger
}

// NewProductService 创建商品服务
func NewProductService(deps ProductServiceDeps) ProductService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.TrendingTop <= 0 {
		deps.TrendingTop = 10
	}
	return &productService{ProductServiceDeps: deps, logger: logger}
}

// ListProducts 分页查询商品列表：先查列表缓存，未命中时执行查询并聚合
func (s *productService) ListProducts(ctx context.Context, req *domain.ListProductsRequest, userID int64) (*domain.ProductListResponse, error) {
	limit := domain.NormalizeLimit(req.Limit)
	filter := req.Filter
	filter.Sort = filter.SortOrDefault()

	key := ListCacheKey(req.Cursor, filter, limit)
	return s.ListCache.GetOrLoad(ctx, key, userID, func(ctx context.Context) (*domain.ProductListResponse, error) {
		rows, hasNext, err := s.Executor.Query(ctx, filter, req.Cursor, limit)
		if err != nil {
			return nil, err
		}
		items, err := s.Enricher.Enrich(ctx, rows, userID)
		if err != nil {
			return nil, err
		}

		result := &domain.ProductListResponse{Items: items}
		if hasNext && len(rows) > 0 {
			next := pagination.ForProduct(filter.Sort, rows[len(rows)-1])
			result.NextCursor = &next
		}
		return result, nil
	})
}

// GetTrending 返回浏览量最高的商品。已删除或未上架的商品被跳过，不分页。
func (s *productService) GetTrending(ctx context.Context, userID int64) (*domain.ProductListResponse, error) {
	ids := s.Trending.TopN(ctx, s.TrendingTop)
	if len(ids) == 0 {
		return &domain.ProductListResponse{Items: []domain.ProductSummary{}}, nil
	}

	products, err := s.Products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load trending products: %w", err)
	}
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	ordered := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.Status != domain.ProductStatusPending {
			ordered = append(ordered, p)
		}
	}

	items, err := s.Enricher.Enrich(ctx, ordered, userID)
	if err != nil {
		return nil, err
	}
	return &domain.ProductListResponse{Items: items}, nil
}

// GetProduct 商品详情，并在后台记录一次浏览
func (s *productService) GetProduct(ctx context.Context, id, userID int64) (*domain.ProductDetail, error) {
	product, err := s.Products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	var (
		images []*domain.ProductImage
		tags   map[int64][]string
		counts map[int64]int64
		liked  bool
	)
	ids := []int64{id}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		images, err = s.Images.ListByProductID(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		tags, err = s.Tags.NamesByProductIDs(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.Likes.CountByProductIDs(gctx, ids)
		return err
	})
	if userID > 0 {
		g.Go(func() (err error) {
			liked, err = s.Likes.Exists(gctx, userID, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load product detail: %w", err)
	}

	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = img.DisplayURL()
	}
	names := tags[id]
	if names == nil {
		names = []string{}
	}

	s.Trending.RecordViewAsync(ctx, id)

	return &domain.ProductDetail{
		ID:           product.ID,
		SellerID:     product.SellerID,
		CategoryCode: product.CategoryCode,
		Title:        product.Title,
		Description:  product.Description,
		Price:        product.Price,
		Status:       product.Status,
		TradeType:    product.TradeType,
		ImageURLs:    urls,
		Tags:         names,
		LikeCount:    counts[id],
		IsLiked:      liked,
		CreatedAt:    product.CreatedAt,
	}, nil
}

// RecordView 确认商品存在后记录一次浏览
func (s *productService) RecordView(ctx context.Context, id int64) error {
	product, err := s.Products.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	s.Trending.RecordViewAsync(ctx, id)
	return nil
}

// CreateProduct 发布商品。带图片时以 PENDING 创建，图片处理完成后上架；否则直接 SELLING。
func (s *productService) CreateProduct(ctx context.Context, sellerID int64, req *domain.CreateProductRequest) (*domain.Product, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || req.Price <= 0 || !req.TradeType.Valid() {
		return nil, ErrInvalidInput
	}

	category, err := s.Categories.GetByCode(ctx, req.CategoryCode)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil || !category.IsActive {
		return nil, ErrCategoryNotFound
	}

	imageURLs := make([]string, 0, len(req.ImageKeys))
	for _, key := range req.ImageKeys {
		if key = strings.TrimSpace(key); key != "" {
			imageURLs = append(imageURLs, ResolveImageURL(s.ImageBase, key))
		}
	}

	status := domain.ProductStatusSelling
	if len(imageURLs) > 0 {
		status = domain.ProductStatusPending
	}

	product := &domain.Product{
		SellerID:     sellerID,
		CategoryID:   category.ID,
		CategoryCode: category.Code,
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		Price:        req.Price,
		Status:       status,
		TradeType:    req.TradeType,
	}

	listing := &repo.NewListing{
		Product:   product,
		ImageURLs: imageURLs,
		Tags:      normalizeTags(req.Tags),
	}
	if err := s.Products.Create(ctx, listing); err != nil {
		s.logger.Error("failed to create product", zap.Int64("seller_id", sellerID), zap.Error(err))
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.Invalidator.InvalidateListings(ctx)

	s.logger.Info("product created",
		zap.Int64("product_id", product.ID),
		zap.Int64("seller_id", sellerID),
		zap.String("status", string(product.Status)),
	)
	return product, nil
}

// UpdateProduct 卖家修改商品，nil 字段保持不变。状态不能改回 PENDING。
func (s *productService) UpdateProduct(ctx context.Context, sellerID, id int64, req *domain.UpdateProductRequest) (*domain.Product, error) {
	product, err := s.ownedProduct(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrInvalidInput
		}
		product.Title = title
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, ErrInvalidInput
		}
		product.Price = *req.Price
	}
	if req.Status != nil {
		if !req.Status.Valid() || *req.Status == domain.ProductStatusPending {
			return nil, ErrInvalidInput
		}
		product.Status = *req.Status
	}
	if req.TradeType != nil {
		if !req.TradeType.Valid() {
			return nil, ErrInvalidInput
		}
		product.TradeType = *req.TradeType
	}

	if err := s.Products.Update(ctx, product); err != nil {
		s.logger.Error("failed to update product", zap.Int64("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.Invalidator.InvalidateListings(ctx)

	s.logger.Info("product updated", zap.Int64("product_id", id))
	return product, nil
}

// DeleteProduct 卖家删除商品
func (s *productService) DeleteProduct(ctx context.Context, sellerID, id int64) error {
	if _, err := s.ownedProduct(ctx, sellerID, id); err != nil {
		return err
	}

	if err := s.Products.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete product", zap.Int64("product_id", id), zap.Error(err))
		return fmt.Errorf("delete product: %w", err)
	}

	s.Invalidator.InvalidateListings(ctx)

	s.logger.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *productService) ownedProduct(ctx context.Context, sellerID, id int64) (*domain.Product, error) {
	product, err := s.Products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsOwnedBy(sellerID) {
		return nil, ErrForbidden
	}
	return product, nil
}

// normalizeTags 去除空白、空串与重复，保持原顺序
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
