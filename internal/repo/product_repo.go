// Package repo 实现数据访问层，负责与 MySQL 的交互。
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/query"
)

// NewListing 新商品及其图片与标签，在同一事务中写入
type NewListing struct {
	Product   *domain.Product
	ImageURLs []string // 按展示顺序，第一张为封面
	Tags      []string // 已去重、去空白
}

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	Create(ctx context.Context, listing *NewListing) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	// Activate 将 PENDING 商品上架为 SELLING 并设置封面；非 PENDING 时返回 false
	Activate(ctx context.Context, id int64, thumbnailURL string) (bool, error)
	// FindPage 执行一次键集分页读取
	FindPage(ctx context.Context, q query.PageQuery) ([]*domain.Product, error)
}

type productRepo struct {
	db *sql.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `p.id, p.seller_id, p.category_id, c.code, p.title, p.description, p.price,
	p.status, p.trade_type, p.thumbnail_url, p.created_at, p.updated_at`

const productFrom = `FROM products p JOIN categories c ON c.id = p.category_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.CategoryID,
		&p.CategoryCode,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.Status,
		&p.TradeType,
		&p.ThumbnailURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanProducts(rows *sql.Rows) ([]*domain.Product, error) {
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// Create 事务内写入商品、图片、标签
func (r *productRepo) Create(ctx context.Context, listing *NewListing) error {
	p := listing.Product
	if p.CreatedAt.IsZero() {
		// DATETIME(6) 精度为微秒，截断后内存值与库中一致
		p.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	p.UpdatedAt = p.CreatedAt

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO products (seller_id, category_id, title, description, price, status, trade_type, thumbnail_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.SellerID, p.CategoryID, p.Title, p.Description, p.Price,
		p.Status, p.TradeType, p.ThumbnailURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id

	for i, url := range listing.ImageURLs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_images (product_id, original_url, sort_order) VALUES (?, ?, ?)`,
			id, url, i,
		); err != nil {
			return fmt.Errorf("failed to create product image: %w", err)
		}
	}

	if err := attachTags(ctx, tx, id, listing.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product: %w", err)
	}
	return nil
}

// attachTags 查找或创建标签并关联到商品
func attachTags(ctx context.Context, tx *sql.Tx, productID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	args := make([]any, len(tags))
	for i, t := range tags {
		args[i] = t
	}

	values := strings.Repeat("(?),", len(tags)-1) + "(?)"
	if _, err := tx.ExecContext(ctx, "INSERT IGNORE INTO tags (name) VALUES "+values, args...); err != nil {
		return fmt.Errorf("failed to upsert tags: %w", err)
	}

	linkArgs := append([]any{productID}, args...)
	if _, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO product_tags (product_id, tag_id) SELECT ?, id FROM tags WHERE name IN ("+placeholders(len(tags))+")",
		linkArgs...,
	); err != nil {
		return fmt.Errorf("failed to link tags: %w", err)
	}
	return nil
}

// GetByID 不存在时返回 (nil, nil)
func (r *productRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" "+productFrom+" WHERE p.id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}
	return p, nil
}

// GetByIDs 批量读取，不保证顺序，缺失的 id 被忽略
func (r *productRepo) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}

	where, args := query.In(query.ColID, int64Args(ids)...).SQL()
	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" "+productFrom+" WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by ids: %w", err)
	}
	return scanProducts(rows)
}

// Update 更新可变字段
func (r *productRepo) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET title = ?, description = ?, price = ?, status = ?, trade_type = ?, thumbnail_url = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Description, p.Price, p.Status, p.TradeType, p.ThumbnailURL, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// Delete 物理删除，图片/标签关联/点赞由外键级联删除
func (r *productRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// Activate PENDING -> SELLING
func (r *productRepo) Activate(ctx context.Context, id int64, thumbnailURL string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products SET status = ?, thumbnail_url = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		domain.ProductStatusSelling, thumbnailURL, time.Now().UTC().Truncate(time.Microsecond),
		id, domain.ProductStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to activate product: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// FindPage 按条件、排序与 LIMIT 读取一页
func (r *productRepo) FindPage(ctx context.Context, q query.PageQuery) ([]*domain.Product, error) {
	where, args := q.WhereSQL()
	stmt := fmt.Sprintf("SELECT %s %s %s %s LIMIT ?", productColumns, productFrom, where, q.OrderSQL())
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query product page: %w", err)
	}
	return scanProducts(rows)
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func placeholders(n int) string {
	return strings.Repeat("?,", n-1) + "?"
}
