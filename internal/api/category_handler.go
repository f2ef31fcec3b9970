package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/service"
)

// CategoryHandler 分类接口
type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *zap.Logger
}

// NewCategoryHandler 创建分类处理器
func NewCategoryHandler(categoryService service.CategoryService, logger *zap.Logger) *CategoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryHandler{categoryService: categoryService, logger: logger}
}

// ListCategories 启用中的分类，按 sort_order 排序
// @Router /api/v1/categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryService.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list categories", err)
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	writeOK(c, &categories)
}
