package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/repo"
)

// ConfirmToken 清空数据前必须提供的确认串
const ConfirmToken = "YES"

// SellerPassword 所有种子卖家的登录密码
const SellerPassword = "seed-password"

// ErrConfirmRequired 未确认时拒绝清空
var ErrConfirmRequired = errors.New("seed: truncate requires confirm=" + ConfirmToken)

// truncateTables 按外键依赖顺序清空；分类由迁移维护，保留
var truncateTables = []string{
	"product_likes",
	"product_tags",
	"product_images",
	"products",
	"tags",
	"users",
}

// Truncate 在一个事务中清空业务数据
func Truncate(ctx context.Context, db *sql.DB, confirm string) error {
	if confirm != ConfirmToken {
		return ErrConfirmRequired
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range truncateTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Result 写入统计
type Result struct {
	Sellers  int
	Products int
}

// Seeder 通过仓储写入生成的数据
type Seeder struct {
	users      repo.UserRepository
	products   repo.ProductRepository
	categories repo.CategoryRepository
	logger     *zap.Logger

	progressEvery int
}

// NewSeeder 创建数据写入器
func NewSeeder(users repo.UserRepository, products repo.ProductRepository, categories repo.CategoryRepository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		users:         users,
		products:      products,
		categories:    categories,
		logger:        logger,
		progressEvery: 1000,
	}
}

// Run 生成并写入数据。同一 Seed 重复执行时复用已存在的卖家账号。
func (s *Seeder) Run(ctx context.Context, cfg Config, now time.Time) (*Result, error) {
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	codes := make([]string, len(categories))
	categoryIDs := make(map[string]int64, len(categories))
	for i, c := range categories {
		codes[i] = c.Code
		categoryIDs[c.Code] = c.ID
	}

	data, err := Generate(cfg, codes, now)
	if err != nil {
		return nil, err
	}

	sellerIDs, err := s.ensureSellers(ctx, data.Sellers)
	if err != nil {
		return nil, err
	}

	for i, l := range data.Listings {
		p := &domain.Product{
			SellerID:     sellerIDs[l.SellerIndex],
			CategoryID:   categoryIDs[l.CategoryCode],
			CategoryCode: l.CategoryCode,
			Title:        l.Title,
			Description:  l.Description,
			Price:        l.Price,
			Status:       l.Status,
			TradeType:    l.TradeType,
			ThumbnailURL: l.ThumbnailURL,
			CreatedAt:    l.CreatedAt,
		}
		if err := s.products.Create(ctx, &repo.NewListing{Product: p, Tags: l.Tags}); err != nil {
			return nil, fmt.Errorf("failed to create listing %d: %w", i, err)
		}
		if s.progressEvery > 0 && (i+1)%s.progressEvery == 0 {
			s.logger.Info("seed progress", zap.Int("products", i+1), zap.Int("total", len(data.Listings)))
		}
	}

	return &Result{Sellers: len(sellerIDs), Products: len(data.Listings)}, nil
}

func (s *Seeder) ensureSellers(ctx context.Context, sellers []Seller) ([]int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SellerPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	ids := make([]int64, len(sellers))
	for i, seller := range sellers {
		existing, err := s.users.GetByEmail(ctx, seller.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up seller %s: %w", seller.Email, err)
		}
		if existing != nil {
			ids[i] = existing.ID
			continue
		}

		u := &domain.User{
			Email:        seller.Email,
			Nickname:     seller.Nickname,
			PasswordHash: string(hash),
			Role:         domain.UserRoleUser,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to create seller %s: %w", seller.Email, err)
		}
		ids[i] = u.ID
	}
	return ids, nil
}
