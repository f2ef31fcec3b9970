package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/service"
)

// ImageCallbackHandler 接收图片处理服务的完成回调
type ImageCallbackHandler struct {
	callbackService service.ImageCallbackService
	logger          *zap.Logger
}

// NewImageCallbackHandler 创建回调处理器
func NewImageCallbackHandler(callbackService service.ImageCallbackService, logger *zap.Logger) *ImageCallbackHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageCallbackHandler{callbackService: callbackService, logger: logger}
}

// HandleCallback 回填处理后的图片地址，所有图片完成后商品自动上架
// @Router /api/v1/internal/images/callback [post]
// @Security Bearer
func (h *ImageCallbackHandler) HandleCallback(c *gin.Context) {
	var req domain.ImageCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.callbackService.Apply(c.Request.Context(), &req); err != nil {
		h.logger.Warn("image callback rejected",
			zap.String("image_key", req.ImageKey),
			zap.String("request_id", getRequestID(c)),
			zap.Error(err),
		)
		writeError(c, h.logger, "image callback", err)
		return
	}
	writeOK[any](c, nil)
}
