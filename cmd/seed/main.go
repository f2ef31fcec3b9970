// Package main 向开发数据库写入可复现的演示数据
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/config"
	"github.com/MorseWayne/cherry_market/internal/database"
	"github.com/MorseWayne/cherry_market/internal/logger"
	"github.com/MorseWayne/cherry_market/internal/repo"
	"github.com/MorseWayne/cherry_market/internal/seed"
)

const usageExamples = `
Examples:
  seed -count=10000 -seed=42                   # append 10k products
  seed -count=500 -images                      # with thumbnail urls
  seed -truncate -confirm=YES -count=10000     # wipe business data first
`

func main() {
	defaults := seed.DefaultConfig()
	var (
		count    = flag.Int("count", defaults.Products, "Number of products to generate")
		seedVal  = flag.Int64("seed", defaults.Seed, "Random seed")
		sellers  = flag.Int("sellers", defaults.Sellers, "Number of seller accounts")
		tags     = flag.Int("tags", defaults.Tags, "Size of the tag pool")
		images   = flag.Bool("images", false, "Set thumbnail urls on generated products")
		truncate = flag.Bool("truncate", false, "Delete users, products, tags and likes before seeding")
		confirm  = flag.String("confirm", "", "Must be YES when -truncate is set")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprint(flag.CommandLine.Output(), usageExamples)
	}
	flag.Parse()

	if *truncate && *confirm != seed.ConfirmToken {
		log.Fatalf("refusing to truncate without -confirm=%s", seed.ConfirmToken)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.App.Env == "prod" {
		log.Fatal("refusing to seed a production environment")
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "seed", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.New(cfg, lg)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Error("failed to close database", zap.Error(err))
		}
	}()

	ctx := context.Background()
	if *truncate {
		if err := seed.Truncate(ctx, db.DB, *confirm); err != nil {
			lg.Fatal("failed to truncate", zap.Error(err))
		}
		lg.Info("business tables cleared")
	}

	seeder := seed.NewSeeder(
		repo.NewUserRepository(db.DB),
		repo.NewProductRepository(db.DB),
		repo.NewCategoryRepository(db.DB),
		lg,
	)
	start := time.Now()
	res, err := seeder.Run(ctx, seed.Config{
		Products:      *count,
		Seed:          *seedVal,
		Sellers:       *sellers,
		Tags:          *tags,
		IncludeImages: *images,
	}, start)
	if err != nil {
		lg.Fatal("seed failed", zap.Error(err))
	}

	// 已缓存的列表页在 CACHE_LIST_TTL 内仍可能返回旧数据
	lg.Info("seed done",
		zap.Int("sellers", res.Sellers),
		zap.Int("products", res.Products),
		zap.Int64("seed", *seedVal),
		zap.Bool("truncate", *truncate),
		zap.Duration("elapsed", time.Since(start)),
	)
}
