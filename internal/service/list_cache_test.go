package service

import (
	"context"
	"strings"
	"testing"

	"github.com/MorseWayne/cherry_market/internal/cache"
	"github.com/MorseWayne/cherry_market/internal/domain"
)

func TestListCacheKey_Deterministic(t *testing.T) {
	filter := domain.ProductFilter{
		Status:       ptr(domain.ProductStatusSelling),
		CategoryCode: ptr("BOOK"),
		MinPrice:     ptr(int64(100)),
		TradeType:    ptr(domain.TradeTypeBoth),
		Sort:         domain.SortLowPrice,
	}
	// 相同取值、不同指针
	same := domain.ProductFilter{
		Status:       ptr(domain.ProductStatusSelling),
		CategoryCode: ptr("BOOK"),
		MinPrice:     ptr(int64(100)),
		TradeType:    ptr(domain.TradeTypeBoth),
		Sort:         domain.SortLowPrice,
	}

	a := ListCacheKey("1000_5", filter, 20)
	b := ListCacheKey("1000_5", same, 20)
	if a != b {
		t.Fatalf("keys differ:\n%s\n%s", a, b)
	}
	if !strings.HasPrefix(a, ListKeyPrefix) {
		t.Errorf("key %q lacks prefix %q", a, ListKeyPrefix)
	}

	want := `products:list:cursor="1000_5";status=SELLING;category="BOOK";min=100;max=null;trade=BOTH;sort=LOW_PRICE;limit=20`
	if a != want {
		t.Errorf("key = %s, want %s", a, want)
	}

	// 未指定排序与显式 LATEST 等价
	if ListCacheKey("", domain.ProductFilter{}, 20) != ListCacheKey("", domain.ProductFilter{Sort: domain.SortLatest}, 20) {
		t.Error("default sort should key the same as LATEST")
	}
}

func TestListCacheKey_NoCollisions(t *testing.T) {
	type input struct {
		cursor string
		filter domain.ProductFilter
		limit  int
	}
	inputs := map[string]input{
		"empty":              {},
		"limit":              {limit: 10},
		"cursor":             {cursor: "x_1"},
		"cursor null text":   {cursor: "null"},
		"status":             {filter: domain.ProductFilter{Status: ptr(domain.ProductStatusSold)}},
		"category":           {filter: domain.ProductFilter{CategoryCode: ptr("BOOK")}},
		"category null text": {filter: domain.ProductFilter{CategoryCode: ptr("null")}},
		"category empty":     {filter: domain.ProductFilter{CategoryCode: ptr("")}},
		"category injection": {filter: domain.ProductFilter{CategoryCode: ptr(`BOOK";min=5`)}},
		"min":                {filter: domain.ProductFilter{MinPrice: ptr(int64(5))}},
		"max":                {filter: domain.ProductFilter{MaxPrice: ptr(int64(5))}},
		"min zero":           {filter: domain.ProductFilter{MinPrice: ptr(int64(0))}},
		"trade":              {filter: domain.ProductFilter{TradeType: ptr(domain.TradeTypeDirect)}},
		"sort":               {filter: domain.ProductFilter{Sort: domain.SortHighPrice}},
	}

	seen := make(map[string]string, len(inputs))
	for name, in := range inputs {
		key := ListCacheKey(in.cursor, in.filter, in.limit)
		if other, ok := seen[key]; ok {
			t.Errorf("%q and %q produce the same key %s", name, other, key)
		}
		seen[key] = name
	}
}

func TestListCache_Idempotence(t *testing.T) {
	f := newCatalogFixture(t)
	seedTies(f.store, 10)
	req := &domain.ListProductsRequest{Limit: 5}

	first, err := f.svc.ListProducts(context.Background(), req, 0)
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	second, err := f.svc.ListProducts(context.Background(), req, 0)
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}

	if calls := f.store.pageCalls(); calls != 1 {
		t.Errorf("FindPage calls = %d, want 1", calls)
	}
	if !equalIDs(first.IDs(), second.IDs()) {
		t.Errorf("cached page %v differs from loaded page %v", second.IDs(), first.IDs())
	}
	if (first.NextCursor == nil) != (second.NextCursor == nil) ||
		(first.NextCursor != nil && *first.NextCursor != *second.NextCursor) {
		t.Errorf("cached cursor differs from loaded cursor")
	}
}

func TestListCache_PersonalizationIsolation(t *testing.T) {
	f := newCatalogFixture(t)
	p1 := f.store.seed(domain.Product{Title: "a"})
	p2 := f.store.seed(domain.Product{Title: "b"})
	f.store.like(100, p1.ID)
	f.store.like(200, p2.ID)
	f.store.like(200, p1.ID)

	req := &domain.ListProductsRequest{Limit: 10}

	// 用户 100 写入缓存
	u1, err := f.svc.ListProducts(context.Background(), req, 100)
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	u2, err := f.svc.ListProducts(context.Background(), req, 200)
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	anon, err := f.svc.ListProducts(context.Background(), req, 0)
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}

	if calls := f.store.pageCalls(); calls != 1 {
		t.Fatalf("FindPage calls = %d, want 1", calls)
	}

	liked := func(resp *domain.ProductListResponse) map[int64]bool {
		out := make(map[int64]bool)
		for _, item := range resp.Items {
			out[item.ID] = item.IsLiked
		}
		return out
	}
	if got := liked(u1); !got[p1.ID] || got[p2.ID] {
		t.Errorf("user 100 flags = %v, want only %d", got, p1.ID)
	}
	if got := liked(u2); !got[p1.ID] || !got[p2.ID] {
		t.Errorf("user 200 flags = %v, want both", got)
	}
	if got := liked(anon); got[p1.ID] || got[p2.ID] {
		t.Errorf("anonymous flags = %v, want none", got)
	}

	// 缓存中的值不带个性化
	var stored domain.ProductListResponse
	if err := f.cache.Get(context.Background(), ListCacheKey("", domain.ProductFilter{Sort: domain.SortLatest}, 10), &stored); err != nil {
		t.Fatalf("cache Get() error = %v", err)
	}
	for _, item := range stored.Items {
		if item.IsLiked {
			t.Errorf("cached item %d has IsLiked = true", item.ID)
		}
	}

	// 点赞数对所有用户一致
	for _, resp := range []*domain.ProductListResponse{u1, u2, anon} {
		for _, item := range resp.Items {
			want := int64(1)
			if item.ID == p1.ID {
				want = 2
			}
			if item.LikeCount != want {
				t.Errorf("product %d like count = %d, want %d", item.ID, item.LikeCount, want)
			}
		}
	}
}

func TestListCache_FailingStoreStillServes(t *testing.T) {
	f := newCatalogFixtureWithCache(t, failingCache{})
	f.store.seed(domain.Product{Title: "a"})
	req := &domain.ListProductsRequest{Limit: 10}

	for i := 0; i < 2; i++ {
		resp, err := f.svc.ListProducts(context.Background(), req, 0)
		if err != nil {
			t.Fatalf("ListProducts() error = %v", err)
		}
		if len(resp.Items) != 1 {
			t.Fatalf("items = %d, want 1", len(resp.Items))
		}
	}
	if calls := f.store.pageCalls(); calls != 2 {
		t.Errorf("FindPage calls = %d, want 2", calls)
	}
}

func TestListCache_OverlayErrorPropagates(t *testing.T) {
	f := newCatalogFixture(t)
	f.store.seed(domain.Product{Title: "a"})
	req := &domain.ListProductsRequest{Limit: 10}

	if _, err := f.svc.ListProducts(context.Background(), req, 0); err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	f.store.failLikes = errStoreDown
	if _, err := f.svc.ListProducts(context.Background(), req, 7); err == nil {
		t.Fatal("ListProducts() error = nil, want like store error")
	}
}

func TestListCache_InvalidationForcesReload(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, f *catalogFixture, existing *domain.Product)
	}{
		{
			name: "create",
			mutate: func(t *testing.T, f *catalogFixture, _ *domain.Product) {
				_, err := f.svc.CreateProduct(context.Background(), 1, &domain.CreateProductRequest{
					Title: "new", Price: 10, CategoryCode: "ETC", TradeType: domain.TradeTypeDirect,
				})
				if err != nil {
					t.Fatalf("CreateProduct() error = %v", err)
				}
			},
		},
		{
			name: "update",
			mutate: func(t *testing.T, f *catalogFixture, p *domain.Product) {
				if _, err := f.svc.UpdateProduct(context.Background(), p.SellerID, p.ID, &domain.UpdateProductRequest{Price: ptr(int64(77))}); err != nil {
					t.Fatalf("UpdateProduct() error = %v", err)
				}
			},
		},
		{
			name: "delete",
			mutate: func(t *testing.T, f *catalogFixture, p *domain.Product) {
				if err := f.svc.DeleteProduct(context.Background(), p.SellerID, p.ID); err != nil {
					t.Fatalf("DeleteProduct() error = %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCatalogFixture(t)
			p := f.store.seed(domain.Product{SellerID: 1, Title: "a", Price: 50})
			req := &domain.ListProductsRequest{Limit: 10}

			if _, err := f.svc.ListProducts(context.Background(), req, 0); err != nil {
				t.Fatalf("ListProducts() error = %v", err)
			}
			if _, err := f.svc.ListProducts(context.Background(), req, 0); err != nil {
				t.Fatalf("ListProducts() error = %v", err)
			}
			if calls := f.store.pageCalls(); calls != 1 {
				t.Fatalf("FindPage calls before mutation = %d, want 1", calls)
			}

			tt.mutate(t, f, p)

			if _, err := f.svc.ListProducts(context.Background(), req, 0); err != nil {
				t.Fatalf("ListProducts() error = %v", err)
			}
			if calls := f.store.pageCalls(); calls != 2 {
				t.Errorf("FindPage calls after mutation = %d, want 2", calls)
			}
			if f.invalidator.count() != 1 {
				t.Errorf("invalidations = %d, want 1", f.invalidator.count())
			}
		})
	}
}

func TestCacheInvalidator_DeletesOnlyListKeys(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()
	for _, key := range []string{ListKeyPrefix + "a", ListKeyPrefix + "b", "product:id:1", "products:other"} {
		if err := c.Set(ctx, key, "v", 0); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	NewCacheInvalidator(c, nil).InvalidateListings(ctx)

	keys, err := c.ScanKeys(ctx, "")
	if err != nil {
		t.Fatalf("ScanKeys() error = %v", err)
	}
	remaining := make(map[string]bool)
	for _, k := range keys {
		remaining[k] = true
	}
	if remaining[ListKeyPrefix+"a"] || remaining[ListKeyPrefix+"b"] {
		t.Errorf("list keys survived: %v", keys)
	}
	if !remaining["product:id:1"] || !remaining["products:other"] {
		t.Errorf("unrelated keys removed: %v", keys)
	}
}

func TestCacheInvalidator_ManyKeysAndFailures(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()
	for i := 0; i < invalidateBatch*2+3; i++ {
		_ = c.Set(ctx, ListCacheKey("", domain.ProductFilter{}, i+1), "v", 0)
	}

	NewCacheInvalidator(c, nil).InvalidateListings(ctx)
	keys, _ := c.ScanKeys(ctx, ListKeyPrefix)
	if len(keys) != 0 {
		t.Errorf("%d list keys remain, want 0", len(keys))
	}

	// 故障不会传播
	NewCacheInvalidator(failingCache{}, nil).InvalidateListings(ctx)
}
