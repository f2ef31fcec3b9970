package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MorseWayne/cherry_market/internal/domain"
)

// CategoryRepository 分类数据访问
type CategoryRepository interface {
	ListActive(ctx context.Context) ([]*domain.Category, error)
	GetByCode(ctx context.Context, code string) (*domain.Category, error)
}

type categoryRepo struct {
	db *sql.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) ListActive(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, display_name, sort_order, is_active
		FROM categories WHERE is_active = TRUE
		ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.Code, &c.DisplayName, &c.SortOrder, &c.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// GetByCode 不存在时返回 (nil, nil)
func (r *categoryRepo) GetByCode(ctx context.Context, code string) (*domain.Category, error) {
	c := &domain.Category{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, code, display_name, sort_order, is_active FROM categories WHERE code = ?", code,
	).Scan(&c.ID, &c.Code, &c.DisplayName, &c.SortOrder, &c.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}
