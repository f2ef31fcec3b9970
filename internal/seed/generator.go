// Package seed 生成可复现的开发数据（卖家、商品、标签）并写入数据库。
package seed

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/MorseWayne/cherry_market/internal/domain"
)

// Config 生成参数；相同 Seed 与分类集合生成相同数据
type Config struct {
	Products      int
	Seed          int64
	Sellers       int
	Tags          int
	IncludeImages bool
}

// DefaultConfig 默认一万件商品
func DefaultConfig() Config {
	return Config{
		Products: 10000,
		Seed:     42,
		Sellers:  50,
		Tags:     200,
	}
}

// Seller 生成的卖家账号
type Seller struct {
	Email    string
	Nickname string
}

// Listing 生成的商品，卖家以下标引用 Data.Sellers
type Listing struct {
	SellerIndex  int
	CategoryCode string
	Title        string
	Description  string
	Price        int64
	Status       domain.ProductStatus
	TradeType    domain.TradeType
	CreatedAt    time.Time
	ThumbnailURL string
	Tags         []string
}

// Data 一次生成的全部数据
type Data struct {
	Sellers  []Seller
	Listings []Listing
}

var titleWords = []string{"New", "Sealed", "Quick sale", "Rare", "Limited"}

// Generate 按 cfg 生成数据，创建时间分布在 now 之前 180 天内
func Generate(cfg Config, categories []string, now time.Time) (*Data, error) {
	if len(categories) == 0 {
		return nil, errors.New("seed: no categories to assign")
	}
	if cfg.Products < 0 || cfg.Sellers <= 0 {
		return nil, fmt.Errorf("seed: invalid counts products=%d sellers=%d", cfg.Products, cfg.Sellers)
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), 0))
	now = now.UTC().Truncate(time.Microsecond)

	data := &Data{
		Sellers:  make([]Seller, cfg.Sellers),
		Listings: make([]Listing, cfg.Products),
	}
	for i := range data.Sellers {
		data.Sellers[i] = Seller{
			Email:    fmt.Sprintf("seed-%d-user-%04d@example.com", cfg.Seed, i),
			Nickname: fmt.Sprintf("seed-user-%d", i),
		}
	}

	for i := range data.Listings {
		category := categories[rng.IntN(len(categories))]
		createdAt := now.
			Add(-time.Duration(rng.IntN(180)) * 24 * time.Hour).
			Add(-time.Duration(rng.IntN(24*60)) * time.Minute)

		l := Listing{
			SellerIndex:  rng.IntN(cfg.Sellers),
			CategoryCode: category,
			Title:        fmt.Sprintf("%s %s %d", titleWords[rng.IntN(len(titleWords))], category, 1000+rng.IntN(9000)),
			Description:  fmt.Sprintf("seed description %d", i),
			Price:        pickPrice(rng),
			Status:       pickStatus(rng),
			TradeType:    pickTradeType(rng),
			CreatedAt:    createdAt,
			Tags:         pickTags(rng, cfg.Seed, cfg.Tags),
		}
		if cfg.IncludeImages {
			l.ThumbnailURL = fmt.Sprintf("https://example.invalid/seed/thumb.png?listing=%d", i)
		}
		data.Listings[i] = l
	}
	return data, nil
}

// 70% 在售，20% 已预订，10% 已售出
func pickStatus(rng *rand.Rand) domain.ProductStatus {
	switch r := rng.IntN(100); {
	case r < 70:
		return domain.ProductStatusSelling
	case r < 90:
		return domain.ProductStatusReserved
	default:
		return domain.ProductStatusSold
	}
}

func pickTradeType(rng *rand.Rand) domain.TradeType {
	switch r := rng.IntN(100); {
	case r < 40:
		return domain.TradeTypeDirect
	case r < 80:
		return domain.TradeTypeDelivery
	default:
		return domain.TradeTypeBoth
	}
}

// 价格分三档：1k-50k 占 60%，50k-200k 占 30%，200k-500k 占 10%
func pickPrice(rng *rand.Rand) int64 {
	switch b := rng.IntN(100); {
	case b < 60:
		return 1000 + rng.Int64N(49000)
	case b < 90:
		return 50000 + rng.Int64N(150000)
	default:
		return 200000 + rng.Int64N(300000)
	}
}

// pickTags 从标签池中不重复地选 0-5 个
func pickTags(rng *rand.Rand, seed int64, pool int) []string {
	if pool <= 0 {
		return nil
	}
	n := min(rng.IntN(6), pool)
	if n == 0 {
		return nil
	}
	chosen := make(map[int]bool, n)
	tags := make([]string, 0, n)
	for len(tags) < n {
		idx := rng.IntN(pool)
		if chosen[idx] {
			continue
		}
		chosen[idx] = true
		tags = append(tags, fmt.Sprintf("seed-%d-tag-%03d", seed, idx))
	}
	return tags
}
