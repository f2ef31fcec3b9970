package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/api"
	"github.com/MorseWayne/cherry_market/internal/cache"
	"github.com/MorseWayne/cherry_market/internal/config"
	"github.com/MorseWayne/cherry_market/internal/database"
	"github.com/MorseWayne/cherry_market/internal/limiter"
	"github.com/MorseWayne/cherry_market/internal/logger"
	"github.com/MorseWayne/cherry_market/internal/repo"
	"github.com/MorseWayne/cherry_market/internal/router"
	"github.com/MorseWayne/cherry_market/internal/service"
)

// stores 缓存相关的存储实例
type stores struct {
	// cache 列表缓存与单商品缓存；缓存关闭时为 NullCache
	cache cache.Cache
	// ranking 热门榜有序集合，缓存关闭时退化为进程内实现
	ranking cache.RankingStore
	// redis 可用时非 nil，供限流器共享连接
	redis redis.UniversalClient
}

func (s *stores) Close() error {
	return s.cache.Close()
}

// initConfigAndLogger 初始化配置和日志器
func initConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, lg, nil
}

// initDatabase 初始化数据库连接并执行迁移
func initDatabase(cfg *config.Config, lg *zap.Logger) (*database.DB, error) {
	db, err := database.New(cfg, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	lg.Info("using migrations directory", zap.String("path", cfg.Migrations.Dir))
	if err := db.RunMigrations(cfg.Migrations.Dir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return db, nil
}

// initStores 初始化缓存：Redis 不可用时回退到内存实现，Redis 外层加熔断
func initStores(cfg *config.Config, lg *zap.Logger) *stores {
	if !cfg.Cache.Enabled {
		lg.Info("cache disabled, trending uses in-process ranking")
		return &stores{cache: cache.NewNullCache(), ranking: cache.NewMemoryCache()}
	}

	if cfg.Cache.Type == "redis" {
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		redisCache, err := cache.NewRedisCache(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err == nil {
			lg.Info("cache enabled", zap.String("type", "redis"), zap.String("addr", addr))
			breaker := cache.NewBreakerStore(redisCache, cache.DefaultBreakerConfig(), lg)
			return &stores{cache: breaker, ranking: breaker, redis: redisCache.Client()}
		}
		lg.Warn("failed to connect to Redis, falling back to memory cache", zap.Error(err))
	}

	mem := cache.NewMemoryCache()
	lg.Info("cache enabled", zap.String("type", "memory"))
	return &stores{cache: mem, ranking: mem}
}

// newViewLimiter 浏览上报限流器：优先使用 Redis 共享计数
func newViewLimiter(cfg *config.Config, client redis.UniversalClient, lg *zap.Logger) limiter.Limiter {
	if !cfg.ViewLimit.Enabled {
		return nil
	}
	limitCfg := limiter.Config{
		Rate:      int64(cfg.ViewLimit.Rate),
		Window:    cfg.ViewLimit.Window,
		KeyPrefix: "limiter:views",
	}
	if client != nil {
		l, err := limiter.NewFixedWindowLimiter(client, limitCfg)
		if err == nil {
			return l
		}
		lg.Warn("redis view limiter unavailable, using in-process limiter", zap.Error(err))
	}
	return limiter.NewMemoryLimiter(limitCfg)
}

// app 组装完成的应用
type app struct {
	handler  http.Handler
	trending *service.TrendingTracker
}

// initApp 初始化依赖注入链：仓储 -> 服务 -> API处理器 -> 路由
func initApp(cfg *config.Config, db *database.DB, st *stores, lg *zap.Logger) *app {
	users := repo.NewUserRepository(db.DB)
	products := repo.NewCachedProductRepository(repo.NewProductRepository(db.DB), st.cache, cfg.Cache.ProductTTL, lg)
	categories := repo.NewCategoryRepository(db.DB)
	images := repo.NewImageRepository(db.DB)
	tags := repo.NewTagRepository(db.DB)
	likes := repo.NewLikeRepository(db.DB)

	enricher := service.NewEnricher(tags, likes)
	invalidator := service.NewCacheInvalidator(st.cache, lg)
	trending := service.NewTrendingTracker(st.ranking, cfg.Trending, lg)

	jwtService := service.NewJWTService(cfg.JWT, lg)
	productService := service.NewProductService(service.ProductServiceDeps{
		Products:    products,
		Categories:  categories,
		Images:      images,
		Tags:        tags,
		Likes:       likes,
		Executor:    service.NewCatalogQueryExecutor(products),
		Enricher:    enricher,
		ListCache:   service.NewListCache(st.cache, enricher, cfg.Cache.ListTTL, lg),
		Trending:    trending,
		Invalidator: invalidator,
		TrendingTop: cfg.Trending.TopN,
		ImageBase:   cfg.Storage.BaseURL,
		Logger:      lg,
	})

	deps := &router.Dependencies{
		UserHandler:          api.NewUserHandler(service.NewUserService(users, jwtService, lg), lg),
		ProductHandler:       api.NewProductHandler(productService, lg),
		LikeHandler:          api.NewLikeHandler(service.NewLikeService(likes, products, enricher, invalidator, lg), lg),
		CategoryHandler:      api.NewCategoryHandler(service.NewCategoryService(categories), lg),
		ImageCallbackHandler: api.NewImageCallbackHandler(service.NewImageCallbackService(images, products, invalidator, cfg.Storage.BaseURL, lg), lg),
		JWTService:           jwtService,
		ViewLimiter:          newViewLimiter(cfg, st.redis, lg),
		HealthChecks: map[string]router.HealthCheck{
			"mysql": db.PingContext,
			"cache": st.cache.Ping,
		},
	}

	return &app{
		handler:  router.New().Setup(cfg, deps, lg),
		trending: trending,
	}
}

// startServer 启动服务器并处理优雅关闭
func startServer(cfg *config.Config, a *app, lg *zap.Logger) error {
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	srv := &http.Server{Addr: addr, Handler: a.handler, ReadHeaderTimeout: 5 * time.Second}

	serverErrCh := make(chan error, 1)
	go func() {
		lg.Info("server starting", zap.String("addr", addr))
		serverErrCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		lg.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("server shutdown error", zap.Error(err))
	}

	// 等待尚未完成的浏览计数写入
	done := make(chan struct{})
	go func() {
		a.trending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		lg.Warn("pending trending writes abandoned at shutdown")
	}

	lg.Info("server exited")
	return nil
}

// main 为应用入口，协调各个组件的初始化和启动
func main() {
	cfg, lg, err := initConfigAndLogger()
	if err != nil {
		log.Fatalf("failed to initialize config and logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := initDatabase(cfg, lg)
	if err != nil {
		lg.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Error("failed to close database connection", zap.Error(err))
		}
	}()

	st := initStores(cfg, lg)
	defer func() {
		if err := st.Close(); err != nil {
			lg.Error("failed to close cache", zap.Error(err))
		}
	}()

	if err := startServer(cfg, initApp(cfg, db, st, lg), lg); err != nil {
		lg.Error("server stopped with error", zap.Error(err))
	}
}
