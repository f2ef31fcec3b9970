// Package middleware 提供 HTTP 中间件：请求 ID、恢复、超时、访问日志、指标与 JWT 认证。
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// contextKey 用于在上下文中存取特定键，避免与外部键冲突。
type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
)

// gin.Context 上的键，处理器通过 c.Get 读取
const (
	GinKeyRequestID = "request_id"
	GinKeyTraceID   = "trace_id"
	GinKeyUserID    = "user_id"
	GinKeyUserRole  = "user_role"
)

// withRequestID 将请求 ID 写入上下文。
func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// RequestIDFromContext 从上下文中读取请求 ID（可能为空）。
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GinRequestID 把标准库链路上生成的请求 ID 同步到 gin.Context
func GinRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rid := RequestIDFromContext(c.Request.Context()); rid != "" {
			c.Set(GinKeyRequestID, rid)
		}
		c.Next()
	}
}

// UserIDFromGin 读取认证中间件写入的用户 ID，匿名请求返回 0
func UserIDFromGin(c *gin.Context) int64 {
	if v, ok := c.Get(GinKeyUserID); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
