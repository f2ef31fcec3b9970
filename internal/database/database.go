// Package database 负责 MySQL 连接池与 golang-migrate 迁移。
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// 注册 mysql 驱动
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/MorseWayne/cherry_market/internal/config"
)

// DB 封装连接池
type DB struct {
	*sql.DB
	logger *zap.Logger
	dsn    string
}

// DSN 根据配置生成连接串；parseTime 使 DATETIME 列扫描为 time.Time
func DSN(c config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC&time_zone=%%27%%2B00%%3A00%%27&multiStatements=true",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// New 打开连接池并检查连通性
func New(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	dsn := DSN(cfg.Database)

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	return &DB{DB: sqlDB, logger: logger, dsn: dsn}, nil
}

// withMigrator 使用独立连接创建 migrate 实例并执行 fn，避免迁移出错影响主连接池
func (db *DB) withMigrator(migrationsDir string, fn func(m *migrate.Migrate) error) error {
	conn, err := sql.Open("mysql", db.dsn)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}
	defer conn.Close()

	driver, err := mysql.WithInstance(conn, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("create mysql driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "mysql", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	return fn(m)
}

// currentVersion 返回当前版本；脏状态返回错误
func currentVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("database is in dirty state at version %d, fix it with -action=force", v)
	}
	return v, nil
}

// RunMigrations 执行全部待执行的 up 迁移
func (db *DB) RunMigrations(migrationsDir string) error {
	return db.withMigrator(migrationsDir, func(m *migrate.Migrate) error {
		from, err := currentVersion(m)
		if err != nil {
			return err
		}

		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				db.logger.Info("no new migrations to apply", zap.Uint("version", from))
				return nil
			}
			return fmt.Errorf("run migrations: %w", err)
		}

		to, _, _ := m.Version()
		db.logger.Info("migrations applied", zap.Uint("from_version", from), zap.Uint("to_version", to))
		return nil
	})
}

// MigrateDown 回滚 steps 步
func (db *DB) MigrateDown(migrationsDir string, steps int) error {
	return db.withMigrator(migrationsDir, func(m *migrate.Migrate) error {
		from, err := currentVersion(m)
		if err != nil {
			return err
		}

		if err := m.Steps(-steps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}

		to, _, _ := m.Version()
		db.logger.Info("migrations rolled back", zap.Uint("from_version", from), zap.Uint("to_version", to))
		return nil
	})
}

// MigrateToVersion 迁移到指定版本
func (db *DB) MigrateToVersion(migrationsDir string, version uint) error {
	return db.withMigrator(migrationsDir, func(m *migrate.Migrate) error {
		from, err := currentVersion(m)
		if err != nil {
			return err
		}

		if err := m.Migrate(version); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				db.logger.Info("already at target version", zap.Uint("version", version))
				return nil
			}
			return fmt.Errorf("migrate to version %d: %w", version, err)
		}

		db.logger.Info("migrated to version", zap.Uint("from_version", from), zap.Uint("to_version", version))
		return nil
	})
}

// ForceMigrationVersion 强制设置版本，仅用于清除脏状态
func (db *DB) ForceMigrationVersion(migrationsDir string, version uint) error {
	return db.withMigrator(migrationsDir, func(m *migrate.Migrate) error {
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("force migration version: %w", err)
		}
		db.logger.Warn("migration version forced", zap.Uint("version", version))
		return nil
	})
}

// MigrationStatus 返回当前迁移版本与脏状态；尚未迁移时版本为 0
func (db *DB) MigrationStatus(migrationsDir string) (version uint, dirty bool, err error) {
	err = db.withMigrator(migrationsDir, func(m *migrate.Migrate) error {
		v, d, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			return fmt.Errorf("get current version: %w", verr)
		}
		version, dirty = v, d
		return nil
	})
	return version, dirty, err
}
