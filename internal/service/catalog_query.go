package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/metrics"
	"github.com/MorseWayne/cherry_market/internal/pagination"
	"github.com/MorseWayne/cherry_market/internal/query"
	"github.com/MorseWayne/cherry_market/internal/repo"
)

// sortSpec 一种排序方式的排序列与"位于游标之后"的键集条件。
// 无论主排序键方向如何，id 始终降序作为决胜键。
type sortSpec struct {
	order []query.Order
	after func(c *pagination.Cursor) query.Predicate
}

var sortSpecs = map[domain.SortMode]sortSpec{
	domain.SortLatest: {
		order: []query.Order{
			{Column: query.ColCreatedAt, Desc: true},
			{Column: query.ColID, Desc: true},
		},
		after: func(c *pagination.Cursor) query.Predicate {
			return query.Or(
				query.Lt(query.ColCreatedAt, c.CreatedAt),
				query.And(query.Eq(query.ColCreatedAt, c.CreatedAt), query.Lt(query.ColID, c.ID)),
			)
		},
	},
	domain.SortLowPrice: {
		order: []query.Order{
			{Column: query.ColPrice},
			{Column: query.ColID, Desc: true},
		},
		after: func(c *pagination.Cursor) query.Predicate {
			return query.Or(
				query.Gt(query.ColPrice, c.Price),
				query.And(query.Eq(query.ColPrice, c.Price), query.Lt(query.ColID, c.ID)),
			)
		},
	},
	domain.SortHighPrice: {
		order: []query.Order{
			{Column: query.ColPrice, Desc: true},
			{Column: query.ColID, Desc: true},
		},
		after: func(c *pagination.Cursor) query.Predicate {
			return query.Or(
				query.Lt(query.ColPrice, c.Price),
				query.And(query.Eq(query.ColPrice, c.Price), query.Lt(query.ColID, c.ID)),
			)
		},
	},
}

// tradeTypeMatches 请求某交易方式时可接受的商品交易方式
func tradeTypeMatches(want domain.TradeType) []any {
	switch want {
	case domain.TradeTypeDirect, domain.TradeTypeDelivery:
		return []any{want, domain.TradeTypeBoth}
	default:
		return []any{want}
	}
}

// CatalogQueryExecutor 执行商品列表的键集分页读取
type CatalogQueryExecutor struct {
	products repo.ProductRepository
}

// NewCatalogQueryExecutor 创建查询执行器
func NewCatalogQueryExecutor(products repo.ProductRepository) *CatalogQueryExecutor {
	return &CatalogQueryExecutor{products: products}
}

// Build 将过滤条件与游标转换为一次分页读取。多取一行用于判断是否还有下一页。
// 无法解析或与排序方式不符的游标按第一页处理。
func (e *CatalogQueryExecutor) Build(filter domain.ProductFilter, cursor string, pageSize int) query.PageQuery {
	mode := filter.SortOrDefault()
	spec, ok := sortSpecs[mode]
	if !ok {
		mode = domain.SortLatest
		spec = sortSpecs[mode]
	}

	var where []query.Predicate
	if filter.Status != nil {
		where = append(where, query.Eq(query.ColStatus, *filter.Status))
	} else {
		where = append(where, query.Ne(query.ColStatus, domain.ProductStatusPending))
	}
	if filter.CategoryCode != nil {
		where = append(where, query.Eq(query.ColCategoryCode, *filter.CategoryCode))
	}
	if filter.MinPrice != nil {
		where = append(where, query.Ge(query.ColPrice, *filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where = append(where, query.Le(query.ColPrice, *filter.MaxPrice))
	}
	if filter.TradeType != nil {
		where = append(where, query.In(query.ColTradeType, tradeTypeMatches(*filter.TradeType)...))
	}
	if c, ok := pagination.Decode(cursor, mode); ok {
		where = append(where, spec.after(c))
	}

	return query.PageQuery{
		Where:   where,
		OrderBy: spec.order,
		Limit:   pageSize + 1,
	}
}

// Query 返回一页商品以及是否存在下一页。没有匹配行时返回空页而不是错误。
func (e *CatalogQueryExecutor) Query(ctx context.Context, filter domain.ProductFilter, cursor string, pageSize int) ([]*domain.Product, bool, error) {
	pageSize = domain.NormalizeLimit(pageSize)
	if filter.EmptyRange() {
		return []*domain.Product{}, false, nil
	}

	start := time.Now()
	defer metrics.ObserveCatalogQuery(string(filter.SortOrDefault()), start)

	rows, err := e.products.FindPage(ctx, e.Build(filter, cursor, pageSize))
	if err != nil {
		return nil, false, fmt.Errorf("query product page: %w", err)
	}

	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []*domain.Product{}
	}
	return rows, hasNext, nil
}
