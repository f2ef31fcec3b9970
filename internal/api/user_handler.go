package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/resp"
	"github.com/MorseWayne/cherry_market/internal/service"
)

// UserHandler 注册、登录与当前用户接口
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{userService: userService, logger: logger}
}

// Register 处理用户注册请求
// @Router /api/v1/auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("bind register request failed", zap.Error(err))
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, "register", err)
		return
	}

	h.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("request_id", getRequestID(c)))
	resp.WriteJSON(c.Writer, http.StatusCreated, resp.CodeOK, "created", user, getRequestID(c), getTraceID(c))
}

// Login 处理用户登录请求
// @Router /api/v1/auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, "login", err)
		return
	}
	writeOK(c, result)
}

// RefreshToken 使用刷新令牌换取新的令牌对
// @Router /api/v1/auth/refresh [post]
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	pair, err := h.userService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, h.logger, "refresh token", err)
		return
	}
	writeOK(c, pair)
}

// GetProfile 当前登录用户信息
// @Router /api/v1/users/me [get]
// @Security Bearer
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, authed := requireUser(c)
	if !authed {
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, "get profile", err)
		return
	}
	writeOK(c, user)
}
