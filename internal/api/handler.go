// Package api 提供基于 gin 的 HTTP 处理器。
// API层负责解析请求参数、调用服务层，并把领域错误映射为统一的响应信封。
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/middleware"
	"github.com/MorseWayne/cherry_market/internal/resp"
	"github.com/MorseWayne/cherry_market/internal/service"
)

// getCurrentUserID 获取当前用户ID，匿名请求为 0
func getCurrentUserID(c *gin.Context) int64 {
	return middleware.UserIDFromGin(c)
}

// getRequestID 获取请求ID
func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.GinKeyRequestID)
}

// getTraceID 获取追踪ID
func getTraceID(c *gin.Context) string {
	return c.GetString(middleware.GinKeyTraceID)
}

// parseIDParam 解析路径中的正整数 ID，失败时写出 400
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// requireUser 获取当前用户ID，未登录时写出 401
func requireUser(c *gin.Context) (int64, bool) {
	userID := getCurrentUserID(c)
	if userID == 0 {
		resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, "login required", getRequestID(c), getTraceID(c))
		return 0, false
	}
	return userID, true
}

func badRequest(c *gin.Context, msg string) {
	resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, msg, getRequestID(c), getTraceID(c))
}

func writeOK[T any](c *gin.Context, data *T) {
	resp.OK(c.Writer, data, getRequestID(c), getTraceID(c))
}

// errorCode 将服务层错误映射为业务码与对外消息
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		return resp.CodeNotFound, "product not found"
	case errors.Is(err, service.ErrImageNotFound):
		return resp.CodeNotFound, "image not found"
	case errors.Is(err, service.ErrUserNotFound):
		return resp.CodeNotFound, "user not found"
	case errors.Is(err, service.ErrCategoryNotFound):
		return resp.CodeInvalidParam, "unknown category"
	case errors.Is(err, service.ErrInvalidInput):
		return resp.CodeInvalidParam, err.Error()
	case errors.Is(err, service.ErrForbidden):
		return resp.CodeForbidden, "not the owner of this product"
	case errors.Is(err, service.ErrEmailTaken):
		return resp.CodeConflict, "email already registered"
	case errors.Is(err, service.ErrInvalidCredentials):
		return resp.CodeUnauthorized, "invalid email or password"
	case errors.Is(err, service.ErrTokenExpired):
		return resp.CodeUnauthorized, "token expired"
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrTokenNotReady):
		return resp.CodeUnauthorized, "invalid token"
	case errors.Is(err, context.DeadlineExceeded):
		return resp.CodeTimeout, "request timeout"
	default:
		return resp.CodeInternalError, "internal server error"
	}
}

// writeError 写出服务层错误；未识别的错误按 500 处理并记录日志
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	code, msg := errorCode(err)
	if code == resp.CodeInternalError || code == resp.CodeTimeout {
		logger.Error(op+" failed",
			zap.String("request_id", getRequestID(c)),
			zap.Error(err),
		)
	}
	resp.Error(c.Writer, resp.HTTPStatusFromCode(code), code, msg, getRequestID(c), getTraceID(c))
}
