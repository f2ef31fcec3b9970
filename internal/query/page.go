package query

import (
	"sort"
	"strings"

	"github.com/MorseWayne/cherry_market/internal/domain"
)

// Order 排序项
type Order struct {
	Column Column
	Desc   bool
}

// String 渲染为 SQL 排序片段
func (o Order) String() string {
	if o.Desc {
		return string(o.Column) + " DESC"
	}
	return string(o.Column) + " ASC"
}

// PageQuery 一次分页读取：Where 中各条件按 AND 组合
type PageQuery struct {
	Where   []Predicate
	OrderBy []Order
	Limit   int
}

// WhereSQL 返回 WHERE 子句（无条件时为空串）与参数
func (q PageQuery) WhereSQL() (string, []any) {
	if len(q.Where) == 0 {
		return "", nil
	}
	clause, args := And(q.Where...).SQL()
	return "WHERE " + clause, args
}

// OrderSQL 返回 ORDER BY 子句（无排序时为空串）
func (q PageQuery) OrderSQL() string {
	if len(q.OrderBy) == 0 {
		return ""
	}
	parts := make([]string, len(q.OrderBy))
	for i, o := range q.OrderBy {
		parts[i] = o.String()
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

// Apply 在内存中执行查询：过滤、排序、截断，返回新切片
func (q PageQuery) Apply(products []*domain.Product) []*domain.Product {
	where := And(q.Where...)
	out := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		if where.Match(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return q.less(out[i], out[j]) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (q PageQuery) less(a, b *domain.Product) bool {
	for _, o := range q.OrderBy {
		r := compare(o.Column.value(a), o.Column.value(b))
		if r == 0 {
			continue
		}
		if o.Desc {
			return r > 0
		}
		return r < 0
	}
	return false
}
