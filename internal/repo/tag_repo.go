package repo

import (
	"context"
	"database/sql"
	"fmt"
)

// TagRepository 标签读取
type TagRepository interface {
	// NamesByProductIDs 一次查询取出多件商品的标签名，按商品分组
	NamesByProductIDs(ctx context.Context, productIDs []int64) (map[int64][]string, error)
}

type tagRepo struct {
	db *sql.DB
}

// NewTagRepository 创建标签仓储
func NewTagRepository(db *sql.DB) TagRepository {
	return &tagRepo{db: db}
}

func (r *tagRepo) NamesByProductIDs(ctx context.Context, productIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	stmt := fmt.Sprintf(`
		SELECT pt.product_id, t.name
		FROM product_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.product_id IN (%s)
		ORDER BY pt.product_id, t.name`, placeholders(len(productIDs)))

	rows, err := r.db.QueryContext(ctx, stmt, int64Args(productIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			name      string
		)
		if err := rows.Scan(&productID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		out[productID] = append(out[productID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return out, nil
}
