package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MorseWayne/cherry_market/internal/domain"
)

// ImageRepository 商品图片数据访问
type ImageRepository interface {
	GetByOriginalURL(ctx context.Context, url string) (*domain.ProductImage, error)
	ListByProductID(ctx context.Context, productID int64) ([]*domain.ProductImage, error)
	MarkProcessed(ctx context.Context, id int64, detailURL, thumbnailURL string) error
	CountUnprocessed(ctx context.Context, productID int64) (int, error)
}

type imageRepo struct {
	db *sql.DB
}

// NewImageRepository 创建图片仓储
func NewImageRepository(db *sql.DB) ImageRepository {
	return &imageRepo{db: db}
}

const imageColumns = "id, product_id, original_url, detail_url, thumbnail_url, sort_order, processed"

func scanImage(row rowScanner) (*domain.ProductImage, error) {
	img := &domain.ProductImage{}
	err := row.Scan(&img.ID, &img.ProductID, &img.OriginalURL, &img.DetailURL,
		&img.ThumbnailURL, &img.SortOrder, &img.Processed)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// GetByOriginalURL 不存在时返回 (nil, nil)
func (r *imageRepo) GetByOriginalURL(ctx context.Context, url string) (*domain.ProductImage, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+imageColumns+" FROM product_images WHERE original_url = ?", url)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

func (r *imageRepo) ListByProductID(ctx context.Context, productID int64) ([]*domain.ProductImage, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+imageColumns+" FROM product_images WHERE product_id = ? ORDER BY sort_order, id", productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var images []*domain.ProductImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}
	return images, nil
}

func (r *imageRepo) MarkProcessed(ctx context.Context, id int64, detailURL, thumbnailURL string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE product_images SET detail_url = ?, thumbnail_url = ?, processed = TRUE WHERE id = ?",
		detailURL, thumbnailURL, id)
	if err != nil {
		return fmt.Errorf("failed to mark image processed: %w", err)
	}
	return nil
}

func (r *imageRepo) CountUnprocessed(ctx context.Context, productID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM product_images WHERE product_id = ? AND processed = FALSE", productID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unprocessed images: %w", err)
	}
	return n, nil
}
