package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/resp"
	"github.com/MorseWayne/cherry_market/internal/service"
)

const bearerPrefix = "Bearer "

// bearerToken 从 Authorization 头中提取令牌
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", true
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)), true
}

func setUser(c *gin.Context, claims *service.Claims) {
	c.Set(GinKeyUserID, claims.UserID)
	c.Set(GinKeyUserRole, string(claims.Role))
}

// RequireAuth JWT认证中间件
// 令牌缺失或无效时直接返回 401，否则将用户 ID 与角色写入 gin.Context
func RequireAuth(jwtService service.JWTService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		reqID := c.GetString(GinKeyRequestID)

		token, present := bearerToken(c)
		if !present {
			resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, "authorization header required", reqID, "")
			c.Abort()
			return
		}
		if token == "" {
			resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, "invalid authorization header format", reqID, "")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			logger.Warn("token validation failed", zap.String("request_id", reqID), zap.Error(err))
			msg := "invalid token"
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				msg = "token expired"
			case errors.Is(err, service.ErrTokenNotReady):
				msg = "token not ready"
			}
			resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, msg, reqID, "")
			c.Abort()
			return
		}

		setUser(c, claims)
		c.Next()
	}
}

// OptionalAuth 可选认证中间件
// 携带有效令牌时注入用户信息；未携带或令牌无效时按匿名请求继续处理
func OptionalAuth(jwtService service.JWTService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, present := bearerToken(c)
		if present && token != "" {
			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				logger.Debug("optional auth ignored invalid token",
					zap.String("request_id", c.GetString(GinKeyRequestID)),
					zap.Error(err),
				)
			} else {
				setUser(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole 角色授权中间件，需放在 RequireAuth 之后
func RequireRole(role domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(GinKeyUserRole) != string(role) {
			resp.Error(c.Writer, http.StatusForbidden, resp.CodeForbidden, "insufficient permissions", c.GetString(GinKeyRequestID), "")
			c.Abort()
			return
		}
		c.Next()
	}
}
