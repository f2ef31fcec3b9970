package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/service"
)

// LikeHandler 点赞接口，全部需要登录
type LikeHandler struct {
	likeService service.LikeService
	logger      *zap.Logger
}

// NewLikeHandler 创建点赞处理器
func NewLikeHandler(likeService service.LikeService, logger *zap.Logger) *LikeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LikeHandler{likeService: likeService, logger: logger}
}

// AddLike 点赞（幂等）
// @Router /api/v1/products/{id}/likes [post]
// @Security Bearer
func (h *LikeHandler) AddLike(c *gin.Context) {
	userID, authed := requireUser(c)
	if !authed {
		return
	}
	id, valid := parseIDParam(c, "id")
	if !valid {
		return
	}

	status, err := h.likeService.AddLike(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, h.logger, "add like", err)
		return
	}
	writeOK(c, status)
}

// RemoveLike 取消点赞（幂等）
// @Router /api/v1/products/{id}/likes [delete]
// @Security Bearer
func (h *LikeHandler) RemoveLike(c *gin.Context) {
	userID, authed := requireUser(c)
	if !authed {
		return
	}
	id, valid := parseIDParam(c, "id")
	if !valid {
		return
	}

	status, err := h.likeService.RemoveLike(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, h.logger, "remove like", err)
		return
	}
	writeOK(c, status)
}

// GetLikeStatus 查询当前用户是否点赞
// @Router /api/v1/products/{id}/likes [get]
// @Security Bearer
func (h *LikeHandler) GetLikeStatus(c *gin.Context) {
	userID, authed := requireUser(c)
	if !authed {
		return
	}
	id, valid := parseIDParam(c, "id")
	if !valid {
		return
	}

	status, err := h.likeService.IsLiked(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, h.logger, "get like status", err)
		return
	}
	writeOK(c, status)
}

// ListMyLikes 我点赞过的商品，按点赞时间倒序分页
// @Param cursor query string false "上一页返回的 next_cursor"
// @Param limit query int false "每页数量"
// @Router /api/v1/users/me/likes [get]
// @Security Bearer
func (h *LikeHandler) ListMyLikes(c *gin.Context) {
	userID, authed := requireUser(c)
	if !authed {
		return
	}

	limit := 0
	if v := queryValue(c, "limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	list, err := h.likeService.ListMyLikes(c.Request.Context(), userID, queryValue(c, "cursor"), limit)
	if err != nil {
		writeError(c, h.logger, "list my likes", err)
		return
	}
	writeOK(c, list)
}
