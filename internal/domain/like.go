package domain

import "time"

// ProductLike 用户对商品的点赞（每个用户对同一商品至多一条）
type ProductLike struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeStatus 点赞状态响应
type LikeStatus struct {
	ProductID int64 `json:"product_id"`
	Liked     bool  `json:"liked"`
}
