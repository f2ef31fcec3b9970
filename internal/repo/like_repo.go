package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MorseWayne/cherry_market/internal/domain"
)

// LikeCursor 点赞列表的续读位置
type LikeCursor struct {
	CreatedAt time.Time
	ID        int64
}

// LikeRepository 点赞数据访问
type LikeRepository interface {
	// Add 幂等：已存在时返回 false
	Add(ctx context.Context, userID, productID int64) (bool, error)
	// Remove 不存在时返回 false
	Remove(ctx context.Context, userID, productID int64) (bool, error)
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	// LikedSubset 返回 productIDs 中被该用户点赞的集合
	LikedSubset(ctx context.Context, userID int64, productIDs []int64) (map[int64]bool, error)
	// CountByProductIDs 一次查询取出点赞数，无点赞的商品不出现在结果中
	CountByProductIDs(ctx context.Context, productIDs []int64) (map[int64]int64, error)
	// ListByUser 按 (created_at DESC, id DESC) 分页
	ListByUser(ctx context.Context, userID int64, after *LikeCursor, limit int) ([]*domain.ProductLike, error)
}

type likeRepo struct {
	db *sql.DB
}

// NewLikeRepository 创建点赞仓储
func NewLikeRepository(db *sql.DB) LikeRepository {
	return &likeRepo{db: db}
}

func (r *likeRepo) Add(ctx context.Context, userID, productID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO product_likes (user_id, product_id, created_at) VALUES (?, ?, ?)",
		userID, productID, time.Now().UTC().Truncate(time.Microsecond),
	)
	if err != nil {
		return false, fmt.Errorf("failed to add like: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *likeRepo) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM product_likes WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to remove like: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *likeRepo) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM product_likes WHERE user_id = ? AND product_id = ? LIMIT 1", userID, productID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return true, nil
}

func (r *likeRepo) LikedSubset(ctx context.Context, userID int64, productIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	if len(productIDs) == 0 {
		return out, nil
	}

	stmt := fmt.Sprintf("SELECT product_id FROM product_likes WHERE user_id = ? AND product_id IN (%s)",
		placeholders(len(productIDs)))
	args := append([]any{userID}, int64Args(productIDs)...)

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query liked subset: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan liked id: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate liked ids: %w", err)
	}
	return out, nil
}

func (r *likeRepo) CountByProductIDs(ctx context.Context, productIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	stmt := fmt.Sprintf(`
		SELECT product_id, COUNT(*) FROM product_likes
		WHERE product_id IN (%s) GROUP BY product_id`, placeholders(len(productIDs)))

	rows, err := r.db.QueryContext(ctx, stmt, int64Args(productIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan like count: %w", err)
		}
		out[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate like counts: %w", err)
	}
	return out, nil
}

func (r *likeRepo) ListByUser(ctx context.Context, userID int64, after *LikeCursor, limit int) ([]*domain.ProductLike, error) {
	stmt := "SELECT id, user_id, product_id, created_at FROM product_likes WHERE user_id = ?"
	args := []any{userID}
	if after != nil {
		stmt += " AND (created_at < ? OR (created_at = ? AND id < ?))"
		args = append(args, after.CreatedAt, after.CreatedAt, after.ID)
	}
	stmt += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	defer rows.Close()

	var likes []*domain.ProductLike
	for rows.Next() {
		l := &domain.ProductLike{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		likes = append(likes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate likes: %w", err)
	}
	return likes, nil
}
