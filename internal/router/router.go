// Package router 提供 HTTP 路由设置和中间件配置功能
package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/api"
	"github.com/MorseWayne/cherry_market/internal/config"
	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/limiter"
	mw "github.com/MorseWayne/cherry_market/internal/middleware"
	"github.com/MorseWayne/cherry_market/internal/resp"
	"github.com/MorseWayne/cherry_market/internal/service"
)

// HealthCheck 健康检查项，返回错误表示依赖不可用
type HealthCheck func(ctx context.Context) error

// Dependencies 包含路由设置所需的所有依赖
type Dependencies struct {
	UserHandler          *api.UserHandler
	ProductHandler       *api.ProductHandler
	LikeHandler          *api.LikeHandler
	CategoryHandler      *api.CategoryHandler
	ImageCallbackHandler *api.ImageCallbackHandler
	JWTService           service.JWTService

	// ViewLimiter 为 nil 时浏览上报不限流
	ViewLimiter limiter.Limiter

	HealthChecks map[string]HealthCheck
}

// Router 路由器接口
type Router interface {
	Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler
}

// GinRouter Gin路由器实现
type GinRouter struct {
	engine *gin.Engine
	deps   *Dependencies
	logger *zap.Logger
	cfg    *config.Config
}

// New 创建新的路由器实例
func New() Router {
	return &GinRouter{}
}

// Setup 设置路由和中间件。
// 返回的 handler 外层是标准库中间件链：request ID → access log → recovery → timeout → gin。
func (r *GinRouter) Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler {
	if lg == nil {
		lg = zap.NewNop()
	}
	switch cfg.App.Env {
	case "prod":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r.engine = gin.New()
	r.deps = deps
	r.logger = lg
	r.cfg = cfg

	r.setupMiddleware()
	r.setupRoutes()

	var handler http.Handler = r.engine
	handler = mw.Timeout(cfg.App.RequestTimeout)(handler)
	handler = mw.Recovery(lg)(handler)
	handler = mw.AccessLog(lg)(handler)
	handler = mw.RequestID(handler)
	return handler
}

// setupMiddleware 设置 Gin 中间件
func (r *GinRouter) setupMiddleware() {
	r.engine.Use(mw.GinRequestID())
	r.engine.Use(mw.Metrics())
	r.engine.Use(r.corsMiddleware())
}

// setupRoutes 设置所有路由
func (r *GinRouter) setupRoutes() {
	r.engine.GET("/healthz", r.healthCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.engine.NoRoute(func(c *gin.Context) {
		resp.Error(c.Writer, http.StatusNotFound, resp.CodeNotFound, "route not found", c.GetString(mw.GinKeyRequestID), "")
	})

	optionalAuth := mw.OptionalAuth(r.deps.JWTService, r.logger)
	requireAuth := mw.RequireAuth(r.deps.JWTService, r.logger)

	v1 := r.engine.Group("/api/v1")
	{
		// 认证路由（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.deps.UserHandler.Register)
			auth.POST("/login", r.deps.UserHandler.Login)
			auth.POST("/refresh", r.deps.UserHandler.RefreshToken)
		}

		// 当前用户（需要认证）
		users := v1.Group("/users/me", requireAuth)
		{
			users.GET("", r.deps.UserHandler.GetProfile)
			users.GET("/likes", r.deps.LikeHandler.ListMyLikes)
		}

		v1.GET("/categories", r.deps.CategoryHandler.ListCategories)

		// 商品浏览（可选认证，用于点赞状态）
		products := v1.Group("/products")
		{
			products.GET("", optionalAuth, r.deps.ProductHandler.ListProducts)
			products.GET("/trending", optionalAuth, r.deps.ProductHandler.GetTrending)
			products.GET("/:id", optionalAuth, r.deps.ProductHandler.GetProduct)
			products.POST("/:id/views", r.viewHandlers(optionalAuth)...)

			// 卖家管理与点赞（需要认证）
			products.POST("", requireAuth, r.deps.ProductHandler.CreateProduct)
			products.PUT("/:id", requireAuth, r.deps.ProductHandler.UpdateProduct)
			products.DELETE("/:id", requireAuth, r.deps.ProductHandler.DeleteProduct)
			products.GET("/:id/likes", requireAuth, r.deps.LikeHandler.GetLikeStatus)
			products.POST("/:id/likes", requireAuth, r.deps.LikeHandler.AddLike)
			products.DELETE("/:id/likes", requireAuth, r.deps.LikeHandler.RemoveLike)
		}

		// 内部回调（需要管理员令牌）
		internal := v1.Group("/internal", requireAuth, mw.RequireRole(domain.UserRoleAdmin))
		{
			internal.POST("/images/callback", r.deps.ImageCallbackHandler.HandleCallback)
		}
	}
}

// viewHandlers 浏览上报链路：可选认证 → 限流（如已配置）→ 处理器
func (r *GinRouter) viewHandlers(optionalAuth gin.HandlerFunc) []gin.HandlerFunc {
	handlers := []gin.HandlerFunc{optionalAuth}
	if r.deps.ViewLimiter != nil {
		handlers = append(handlers, limiter.ViewRateLimitMiddleware(r.deps.ViewLimiter, r.logger))
	}
	return append(handlers, r.deps.ProductHandler.RecordView)
}

// healthCheck 健康检查处理器；任一依赖失败时返回 503
func (r *GinRouter) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	checks := make(map[string]string, len(r.deps.HealthChecks))
	for name, check := range r.deps.HealthChecks {
		if err := check(ctx); err != nil {
			r.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "down"
			status = "degraded"
			continue
		}
		checks[name] = "up"
	}

	data := map[string]any{
		"status":  status,
		"version": r.cfg.App.Version,
		"checks":  checks,
	}
	httpStatus, code := http.StatusOK, resp.CodeOK
	if status != "ok" {
		httpStatus, code = http.StatusServiceUnavailable, resp.CodeInternalError
	}
	resp.WriteJSON(c.Writer, httpStatus, code, status, &data, c.GetString(mw.GinKeyRequestID), "")
}

// corsMiddleware CORS 中间件，允许的来源、方法和请求头来自配置
func (r *GinRouter) corsMiddleware() gin.HandlerFunc {
	origins := r.cfg.CORS.AllowedOrigins
	methods := strings.Join(r.cfg.CORS.AllowedMethods, ", ")
	headers := strings.Join(r.cfg.CORS.AllowedHeaders, ", ")

	return func(c *gin.Context) {
		if origin := allowedOrigin(origins, c.GetHeader("Origin")); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)
			c.Header("Access-Control-Expose-Headers", mw.HeaderRequestID)
			if origin != "*" {
				c.Header("Vary", "Origin")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// allowedOrigin 返回应写入响应头的来源，不允许时返回空串
func allowedOrigin(allowed []string, origin string) string {
	for _, o := range allowed {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}
