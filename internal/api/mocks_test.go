package api

import (
	"context"

	"github.com/MorseWayne/cherry_market/internal/domain"
)

// MockProductService 商品服务的测试替身，未设置的方法返回零值
type MockProductService struct {
	ListProductsFunc  func(ctx context.Context, req *domain.ListProductsRequest, userID int64) (*domain.ProductListResponse, error)
	GetTrendingFunc   func(ctx context.Context, userID int64) (*domain.ProductListResponse, error)
	GetProductFunc    func(ctx context.Context, id, userID int64) (*domain.ProductDetail, error)
	RecordViewFunc    func(ctx context.Context, id int64) error
	CreateProductFunc func(ctx context.Context, sellerID int64, req *domain.CreateProductRequest) (*domain.Product, error)
	UpdateProductFunc func(ctx context.Context, sellerID, id int64, req *domain.UpdateProductRequest) (*domain.Product, error)
	DeleteProductFunc func(ctx context.Context, sellerID, id int64) error
}

func (m *MockProductService) ListProducts(ctx context.Context, req *domain.ListProductsRequest, userID int64) (*domain.ProductListResponse, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx, req, userID)
	}
	return &domain.ProductListResponse{Items: []domain.ProductSummary{}}, nil
}

func (m *MockProductService) GetTrending(ctx context.Context, userID int64) (*domain.ProductListResponse, error) {
	if m.GetTrendingFunc != nil {
		return m.GetTrendingFunc(ctx, userID)
	}
	return &domain.ProductListResponse{Items: []domain.ProductSummary{}}, nil
}

func (m *MockProductService) GetProduct(ctx context.Context, id, userID int64) (*domain.ProductDetail, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, id, userID)
	}
	return &domain.ProductDetail{ID: id}, nil
}

func (m *MockProductService) RecordView(ctx context.Context, id int64) error {
	if m.RecordViewFunc != nil {
		return m.RecordViewFunc(ctx, id)
	}
	return nil
}

func (m *MockProductService) CreateProduct(ctx context.Context, sellerID int64, req *domain.CreateProductRequest) (*domain.Product, error) {
	if m.CreateProductFunc != nil {
		return m.CreateProductFunc(ctx, sellerID, req)
	}
	return &domain.Product{ID: 1, SellerID: sellerID, Title: req.Title}, nil
}

func (m *MockProductService) UpdateProduct(ctx context.Context, sellerID, id int64, req *domain.UpdateProductRequest) (*domain.Product, error) {
	if m.UpdateProductFunc != nil {
		return m.UpdateProductFunc(ctx, sellerID, id, req)
	}
	return &domain.Product{ID: id, SellerID: sellerID}, nil
}

func (m *MockProductService) DeleteProduct(ctx context.Context, sellerID, id int64) error {
	if m.DeleteProductFunc != nil {
		return m.DeleteProductFunc(ctx, sellerID, id)
	}
	return nil
}

// MockLikeService 点赞服务的测试替身
type MockLikeService struct {
	AddLikeFunc     func(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error)
	RemoveLikeFunc  func(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error)
	IsLikedFunc     func(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error)
	ListMyLikesFunc func(ctx context.Context, userID int64, cursor string, limit int) (*domain.ProductListResponse, error)
}

func (m *MockLikeService) AddLike(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error) {
	if m.AddLikeFunc != nil {
		return m.AddLikeFunc(ctx, userID, productID)
	}
	return &domain.LikeStatus{ProductID: productID, Liked: true}, nil
}

func (m *MockLikeService) RemoveLike(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error) {
	if m.RemoveLikeFunc != nil {
		return m.RemoveLikeFunc(ctx, userID, productID)
	}
	return &domain.LikeStatus{ProductID: productID}, nil
}

func (m *MockLikeService) IsLiked(ctx context.Context, userID, productID int64) (*domain.LikeStatus, error) {
	if m.IsLikedFunc != nil {
		return m.IsLikedFunc(ctx, userID, productID)
	}
	return &domain.LikeStatus{ProductID: productID}, nil
}

func (m *MockLikeService) ListMyLikes(ctx context.Context, userID int64, cursor string, limit int) (*domain.ProductListResponse, error) {
	if m.ListMyLikesFunc != nil {
		return m.ListMyLikesFunc(ctx, userID, cursor, limit)
	}
	return &domain.ProductListResponse{Items: []domain.ProductSummary{}}, nil
}

// MockCategoryService 分类服务的测试替身
type MockCategoryService struct {
	ListCategoriesFunc func(ctx context.Context) ([]*domain.Category, error)
}

func (m *MockCategoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	if m.ListCategoriesFunc != nil {
		return m.ListCategoriesFunc(ctx)
	}
	return nil, nil
}

// MockUserService 用户服务的测试替身
type MockUserService struct {
	RegisterFunc    func(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	LoginFunc       func(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	RefreshFunc     func(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	GetUserByIDFunc func(ctx context.Context, id int64) (*domain.User, error)
}

func (m *MockUserService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return &domain.User{ID: 1, Email: req.Email, Nickname: req.Nickname, Role: domain.UserRoleUser}, nil
}

func (m *MockUserService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	return &domain.LoginResponse{User: &domain.User{ID: 1, Email: req.Email}}, nil
}

func (m *MockUserService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return &domain.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, id)
	}
	return &domain.User{ID: id}, nil
}

// MockImageCallbackService 图片回调服务的测试替身
type MockImageCallbackService struct {
	ApplyFunc func(ctx context.Context, req *domain.ImageCallbackRequest) error
}

func (m *MockImageCallbackService) Apply(ctx context.Context, req *domain.ImageCallbackRequest) error {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, req)
	}
	return nil
}
