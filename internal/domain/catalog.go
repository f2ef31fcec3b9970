package domain

import (
	"strings"
	"time"
)

// SortMode 列表排序方式
type SortMode string

const (
	SortLatest    SortMode = "LATEST"
	SortLowPrice  SortMode = "LOW_PRICE"
	SortHighPrice SortMode = "HIGH_PRICE"
)

// ParseSortMode 解析排序方式，空串或未知值返回 LATEST
func ParseSortMode(s string) SortMode {
	switch SortMode(strings.ToUpper(strings.TrimSpace(s))) {
	case SortLowPrice:
		return SortLowPrice
	case SortHighPrice:
		return SortHighPrice
	default:
		return SortLatest
	}
}

// ProductFilter 列表查询的过滤与排序条件。nil 字段表示不过滤。
type ProductFilter struct {
	Status       *ProductStatus
	CategoryCode *string
	MinPrice     *int64
	MaxPrice     *int64
	TradeType    *TradeType
	Sort         SortMode
}

// SortOrDefault 返回排序方式，未指定时为 LATEST
func (f ProductFilter) SortOrDefault() SortMode {
	if f.Sort == "" {
		return SortLatest
	}
	return f.Sort
}

// EmptyRange 价格区间上下界倒置时不可能有结果
func (f ProductFilter) EmptyRange() bool {
	return f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice
}

// Matches 在内存中判定商品是否满足过滤条件（不含游标）。
// 未指定状态时排除 PENDING。
func (f ProductFilter) Matches(p *Product) bool {
	if f.Status != nil {
		if p.Status != *f.Status {
			return false
		}
	} else if p.Status == ProductStatusPending {
		return false
	}
	if f.CategoryCode != nil && p.CategoryCode != *f.CategoryCode {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.TradeType != nil && !p.TradeType.Matches(*f.TradeType) {
		return false
	}
	return true
}

// ProductSummary 列表展示记录：商品投影 + 标签 + 点赞数 + 当前用户是否点赞
type ProductSummary struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Price        int64         `json:"price"`
	Status       ProductStatus `json:"status"`
	TradeType    TradeType     `json:"trade_type"`
	CategoryCode string        `json:"category_code"`
	ThumbnailURL string        `json:"thumbnail_url"`
	Tags         []string      `json:"tags"`
	LikeCount    int64         `json:"like_count"`
	IsLiked      bool          `json:"is_liked"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ProductListResponse 列表响应；NextCursor 为 nil 表示已到末页
type ProductListResponse struct {
	Items      []ProductSummary `json:"items"`
	NextCursor *string          `json:"next_cursor"`
}

// IDs 返回列表中的商品ID（保持顺序）
func (r *ProductListResponse) IDs() []int64 {
	ids := make([]int64, len(r.Items))
	for i, item := range r.Items {
		ids[i] = item.ID
	}
	return ids
}

// Depersonalized 返回 IsLiked 全部置为 false 的副本，原值不变
func (r *ProductListResponse) Depersonalized() *ProductListResponse {
	items := make([]ProductSummary, len(r.Items))
	copy(items, r.Items)
	for i := range items {
		items[i].IsLiked = false
	}
	return &ProductListResponse{Items: items, NextCursor: r.NextCursor}
}

// ListProductsRequest HTTP 层传入的列表查询参数
type ListProductsRequest struct {
	Filter ProductFilter
	Cursor string
	Limit  int
}

// 分页大小
const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// NormalizeLimit 将分页大小限制在 [1, MaxPageSize]，非正数取默认值
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
