package domain

// ProductImage 商品图片；Processed 为 true 时详情图与缩略图地址已由处理服务回填
type ProductImage struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"product_id"`
	OriginalURL  string `json:"original_url"`
	DetailURL    string `json:"detail_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	SortOrder    int    `json:"sort_order"`
	Processed    bool   `json:"processed"`
}

// DisplayURL 优先返回处理后的详情图
func (i *ProductImage) DisplayURL() string {
	if i.DetailURL != "" {
		return i.DetailURL
	}
	return i.OriginalURL
}

// ImageCallbackRequest 图片处理完成回调
type ImageCallbackRequest struct {
	ImageKey     string `json:"image_key" binding:"required"`
	DetailURL    string `json:"detail_url" binding:"required"`
	ThumbnailURL string `json:"thumbnail_url" binding:"required"`
}
