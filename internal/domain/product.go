// Package domain 定义二手市场的领域模型：商品、分类、图片、标签、点赞与用户。
package domain

import (
	"time"
)

// ProductStatus 商品状态
type ProductStatus string

const (
	ProductStatusPending  ProductStatus = "PENDING"  // 图片处理中，尚未上架
	ProductStatusSelling  ProductStatus = "SELLING"  // 在售
	ProductStatusReserved ProductStatus = "RESERVED" // 已预订
	ProductStatusSold     ProductStatus = "SOLD"     // 已售出
)

// Valid 判断状态取值是否合法
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusPending, ProductStatusSelling, ProductStatusReserved, ProductStatusSold:
		return true
	}
	return false
}

// TradeType 交易方式
type TradeType string

const (
	TradeTypeDirect   TradeType = "DIRECT"   // 当面交易
	TradeTypeDelivery TradeType = "DELIVERY" // 快递交易
	TradeTypeBoth     TradeType = "BOTH"     // 两者皆可
)

// Valid 判断交易方式取值是否合法
func (t TradeType) Valid() bool {
	switch t {
	case TradeTypeDirect, TradeTypeDelivery, TradeTypeBoth:
		return true
	}
	return false
}

// Matches 报告一个交易方式为 t 的商品是否满足请求的交易方式 want。
// 请求 DIRECT 或 DELIVERY 时，BOTH 商品同样匹配；请求 BOTH 时仅匹配 BOTH。
func (t TradeType) Matches(want TradeType) bool {
	if t == want {
		return true
	}
	return t == TradeTypeBoth && (want == TradeTypeDirect || want == TradeTypeDelivery)
}

// Product 商品领域模型
// Price 以最小货币单位存储。
type Product struct {
	ID           int64         `json:"id"`
	SellerID     int64         `json:"seller_id"`
	CategoryID   int64         `json:"category_id"`
	CategoryCode string        `json:"category_code"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Price        int64         `json:"price"`
	Status       ProductStatus `json:"status"`
	TradeType    TradeType     `json:"trade_type"`
	ThumbnailURL string        `json:"thumbnail_url"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsOwnedBy 判断商品是否属于指定卖家
func (p *Product) IsOwnedBy(userID int64) bool {
	return p.SellerID == userID
}

// Category 商品分类
type Category struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

// CreateProductRequest 创建商品请求
// ImageKeys 非空时商品以 PENDING 状态创建，待图片处理回调全部完成后上架。
type CreateProductRequest struct {
	Title        string    `json:"title" binding:"required,min=1,max=100"`
	Description  string    `json:"description" binding:"max=2000"`
	Price        int64     `json:"price" binding:"required,gt=0"`
	CategoryCode string    `json:"category_code" binding:"required"`
	TradeType    TradeType `json:"trade_type" binding:"required"`
	ImageKeys    []string  `json:"image_keys" binding:"max=10"`
	Tags         []string  `json:"tags" binding:"max=10"`
}

// UpdateProductRequest 更新商品请求，nil 字段保持不变
type UpdateProductRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Price       *int64         `json:"price"`
	Status      *ProductStatus `json:"status"`
	TradeType   *TradeType     `json:"trade_type"`
}

// ProductDetail 商品详情展示结构
type ProductDetail struct {
	ID           int64         `json:"id"`
	SellerID     int64         `json:"seller_id"`
	CategoryCode string        `json:"category_code"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Price        int64         `json:"price"`
	Status       ProductStatus `json:"status"`
	TradeType    TradeType     `json:"trade_type"`
	ImageURLs    []string      `json:"image_urls"`
	Tags         []string      `json:"tags"`
	LikeCount    int64         `json:"like_count"`
	IsLiked      bool          `json:"is_liked"`
	CreatedAt    time.Time     `json:"created_at"`
}
