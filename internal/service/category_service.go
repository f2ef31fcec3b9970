package service

import (
	"context"
	"fmt"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/repo"
)

// CategoryService 分类查询
type CategoryService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

type categoryService struct {
	categories repo.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(categories repo.CategoryRepository) CategoryService {
	return &categoryService{categories: categories}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	return categories, nil
}
