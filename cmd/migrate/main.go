// Package main 提供数据库迁移管理的命令行工具
// 基于 golang-migrate，支持 up、down、version、force 与 status
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/config"
	"github.com/MorseWayne/cherry_market/internal/database"
	"github.com/MorseWayne/cherry_market/internal/logger"
)

const usageExamples = `
Examples:
  migrate -action=up                 # apply all pending migrations
  migrate -action=down -steps=1      # roll back one migration
  migrate -action=version -target=1  # migrate to version 1
  migrate -action=force -target=1    # clear dirty state at version 1
  migrate -action=status             # print current version
`

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version, force, status")
		steps  = flag.Int("steps", 1, "Number of steps for down migration")
		target = flag.Uint("target", 0, "Target version for version or force migration")
		dir    = flag.String("dir", "", "Migrations directory (defaults to MIGRATIONS_DIR)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -action=[up|down|version|force|status] [options]\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprint(flag.CommandLine.Output(), usageExamples)
	}
	flag.Parse()

	switch *action {
	case "up", "down", "version", "force", "status":
	default:
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "migrate", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	migrationsDir := cfg.Migrations.Dir
	if *dir != "" {
		migrationsDir = *dir
	}

	db, err := database.New(cfg, lg)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := run(db, *action, migrationsDir, *steps, *target, lg); err != nil {
		lg.Fatal("migration failed", zap.String("action", *action), zap.Error(err))
	}
}

func run(db *database.DB, action, dir string, steps int, target uint, lg *zap.Logger) error {
	switch action {
	case "up":
		return db.RunMigrations(dir)
	case "down":
		if steps <= 0 {
			return fmt.Errorf("steps must be positive, got %d", steps)
		}
		return db.MigrateDown(dir, steps)
	case "version":
		if target == 0 {
			return fmt.Errorf("target version must be specified")
		}
		return db.MigrateToVersion(dir, target)
	case "force":
		// 允许版本 0，表示重置为未迁移状态
		return db.ForceMigrationVersion(dir, target)
	case "status":
		version, dirty, err := db.MigrationStatus(dir)
		if err != nil {
			return err
		}
		lg.Info("migration status", zap.Uint("version", version), zap.Bool("dirty", dirty))
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	}
	return fmt.Errorf("unknown action %q", action)
}
