package limiter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/metrics"
	"github.com/MorseWayne/cherry_market/internal/resp"
)

// 单次限流检查的最长等待时间，超时按限流器故障处理
const checkTimeout = 500 * time.Millisecond

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	Limiter Limiter

	// Key生成函数
	KeyGenerator func(*gin.Context) string

	// 限流器出错时的处理，默认放行
	ErrorHandler func(*gin.Context, error)

	// 被限流时的处理
	OnLimitReached func(*gin.Context, *LimitResult)
}

// ClientKey 优先使用登录用户 ID，匿名请求使用客户端 IP
func ClientKey(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(int64); ok && id > 0 {
			return fmt.Sprintf("user:%d", id)
		}
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// RateLimitMiddleware 创建限流中间件
func RateLimitMiddleware(config *MiddlewareConfig) gin.HandlerFunc {
	if config.KeyGenerator == nil {
		config.KeyGenerator = ClientKey
	}
	if config.ErrorHandler == nil {
		config.ErrorHandler = func(c *gin.Context, _ error) { c.Next() }
	}
	if config.OnLimitReached == nil {
		config.OnLimitReached = defaultOnLimitReached
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		result, err := config.Limiter.Allow(ctx, config.KeyGenerator(c))
		cancel()
		if err != nil {
			config.ErrorHandler(c, err)
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.FormatInt(int64(result.RetryAfter.Seconds()), 10))
			}
			config.OnLimitReached(c, result)
			c.Abort()
			return
		}

		c.Next()
	}
}

func defaultOnLimitReached(c *gin.Context, _ *LimitResult) {
	resp.Error(c.Writer, http.StatusTooManyRequests, resp.CodeTooManyRequests,
		"too many requests", c.GetString("request_id"), c.GetString("trace_id"))
}

// ViewRateLimitMiddleware 浏览上报限流：同一客户端对同一商品在窗口内的上报次数受限，
// 限流器故障时放行
func ViewRateLimitMiddleware(l Limiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return RateLimitMiddleware(&MiddlewareConfig{
		Limiter: l,
		KeyGenerator: func(c *gin.Context) string {
			return fmt.Sprintf("views:%s:product:%s", ClientKey(c), c.Param("id"))
		},
		ErrorHandler: func(c *gin.Context, err error) {
			logger.Warn("view limiter unavailable, allowing request",
				zap.String("request_id", c.GetString("request_id")),
				zap.Error(err),
			)
			c.Next()
		},
		OnLimitReached: func(c *gin.Context, result *LimitResult) {
			metrics.ViewsRateLimited.Inc()
			resp.Error(c.Writer, http.StatusTooManyRequests, resp.CodeTooManyRequests,
				"view reports too frequent", c.GetString("request_id"), c.GetString("trace_id"))
		},
	})
}
