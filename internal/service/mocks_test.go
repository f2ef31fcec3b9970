package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/MorseWayne/cherry_market/internal/cache"
	"github.com/MorseWayne/cherry_market/internal/config"
	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/query"
	"github.com/MorseWayne/cherry_market/internal/repo"
)

var errStoreDown = errors.New("store unavailable")

// mockStore 内存版数据库，同时实现商品、标签、点赞、图片、分类、用户仓储
type mockStore struct {
	mu sync.Mutex

	products   map[int64]*domain.Product
	tags       map[int64][]string
	likes      []*domain.ProductLike
	images     map[int64]*domain.ProductImage
	categories map[string]*domain.Category
	users      map[int64]*domain.User

	nextProductID int64
	nextLikeID    int64
	nextImageID   int64
	nextUserID    int64
	clock         time.Time

	findPageCalls int
	likedCalls    int

	// 注入故障
	failFindPage error
	failTags     error
	failLikes    error
}

func newMockStore() *mockStore {
	s := &mockStore{
		products:   make(map[int64]*domain.Product),
		tags:       make(map[int64][]string),
		images:     make(map[int64]*domain.ProductImage),
		categories: make(map[string]*domain.Category),
		users:      make(map[int64]*domain.User),
		clock:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	for i, code := range []string{"DIGITAL", "BOOK", "ETC"} {
		s.categories[code] = &domain.Category{ID: int64(i + 1), Code: code, DisplayName: code, SortOrder: i, IsActive: true}
	}
	s.categories["RETIRED"] = &domain.Category{ID: 99, Code: "RETIRED", IsActive: false}
	return s
}

func (s *mockStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// seed 直接写入一件商品，返回副本
func (s *mockStore) seed(p domain.Product, tags ...string) *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextProductID++
		p.ID = s.nextProductID
	} else if p.ID > s.nextProductID {
		s.nextProductID = p.ID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.tick()
	}
	if p.Status == "" {
		p.Status = domain.ProductStatusSelling
	}
	if p.TradeType == "" {
		p.TradeType = domain.TradeTypeDirect
	}
	if p.CategoryCode == "" {
		p.CategoryCode = "ETC"
	}
	s.products[p.ID] = &p
	if len(tags) > 0 {
		s.tags[p.ID] = tags
	}
	cp := p
	return &cp
}

func (s *mockStore) like(userID, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLikeID++
	s.likes = append(s.likes, &domain.ProductLike{ID: s.nextLikeID, UserID: userID, ProductID: productID, CreatedAt: s.tick()})
}

func (s *mockStore) pageCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findPageCalls
}

// ProductRepository

func (s *mockStore) Create(ctx context.Context, listing *repo.NewListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *listing.Product
	s.nextProductID++
	p.ID = s.nextProductID
	p.CreatedAt = s.tick()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = &p
	for i, url := range listing.ImageURLs {
		s.nextImageID++
		s.images[s.nextImageID] = &domain.ProductImage{ID: s.nextImageID, ProductID: p.ID, OriginalURL: url, SortOrder: i}
	}
	if len(listing.Tags) > 0 {
		s.tags[p.ID] = append([]string(nil), listing.Tags...)
	}
	listing.Product.ID = p.ID
	listing.Product.CreatedAt = p.CreatedAt
	listing.Product.UpdatedAt = p.UpdatedAt
	return nil
}

func (s *mockStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *mockStore) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *mockStore) Update(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return errors.New("product not found")
	}
	cp := *product
	s.products[product.ID] = &cp
	return nil
}

func (s *mockStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	delete(s.tags, id)
	return nil
}

func (s *mockStore) Activate(ctx context.Context, id int64, thumbnailURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.Status != domain.ProductStatusPending {
		return false, nil
	}
	p.Status = domain.ProductStatusSelling
	p.ThumbnailURL = thumbnailURL
	return true, nil
}

func (s *mockStore) FindPage(ctx context.Context, q query.PageQuery) ([]*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findPageCalls++
	if s.failFindPage != nil {
		return nil, s.failFindPage
	}
	all := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		all = append(all, &cp)
	}
	return q.Apply(all), nil
}

// TagRepository

func (s *mockStore) NamesByProductIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTags != nil {
		return nil, s.failTags
	}
	out := make(map[int64][]string)
	for _, id := range ids {
		if t, ok := s.tags[id]; ok {
			out[id] = append([]string(nil), t...)
		}
	}
	return out, nil
}

// LikeRepository

func (s *mockStore) Add(ctx context.Context, userID, productID int64) (bool, error) {
	s.mu.Lock()
	for _, l := range s.likes {
		if l.UserID == userID && l.ProductID == productID {
			s.mu.Unlock()
			return false, nil
		}
	}
	s.mu.Unlock()
	s.like(userID, productID)
	return true, nil
}

func (s *mockStore) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.likes {
		if l.UserID == userID && l.ProductID == productID {
			s.likes = append(s.likes[:i], s.likes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *mockStore) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLikes != nil {
		return false, s.failLikes
	}
	for _, l := range s.likes {
		if l.UserID == userID && l.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (s *mockStore) LikedSubset(ctx context.Context, userID int64, ids []int64) (map[int64]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likedCalls++
	if s.failLikes != nil {
		return nil, s.failLikes
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[int64]bool)
	for _, l := range s.likes {
		if l.UserID == userID && want[l.ProductID] {
			out[l.ProductID] = true
		}
	}
	return out, nil
}

func (s *mockStore) CountByProductIDs(ctx context.Context, ids []int64) (map[int64]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLikes != nil {
		return nil, s.failLikes
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[int64]int64)
	for _, l := range s.likes {
		if want[l.ProductID] {
			out[l.ProductID]++
		}
	}
	return out, nil
}

func (s *mockStore) ListByUser(ctx context.Context, userID int64, after *repo.LikeCursor, limit int) ([]*domain.ProductLike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ProductLike
	for _, l := range s.likes {
		if l.UserID != userID {
			continue
		}
		if after != nil && !(l.CreatedAt.Before(after.CreatedAt) || (l.CreatedAt.Equal(after.CreatedAt) && l.ID < after.ID)) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ImageRepository

func (s *mockStore) GetByOriginalURL(ctx context.Context, url string) (*domain.ProductImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, img := range s.images {
		if img.OriginalURL == url {
			cp := *img
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *mockStore) ListByProductID(ctx context.Context, productID int64) ([]*domain.ProductImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ProductImage
	for _, img := range s.images {
		if img.ProductID == productID {
			cp := *img
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *mockStore) MarkProcessed(ctx context.Context, id int64, detailURL, thumbnailURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return errors.New("image not found")
	}
	img.DetailURL = detailURL
	img.ThumbnailURL = thumbnailURL
	img.Processed = true
	return nil
}

func (s *mockStore) CountUnprocessed(ctx context.Context, productID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, img := range s.images {
		if img.ProductID == productID && !img.Processed {
			n++
		}
	}
	return n, nil
}

// CategoryRepository

func (s *mockStore) ListActive(ctx context.Context) ([]*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Category
	for _, c := range s.categories {
		if c.IsActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *mockStore) GetByCode(ctx context.Context, code string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[code]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// mockUserRepository 用户仓储（方法名与商品仓储冲突，单独实现）
type mockUserRepository struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// failingCache 所有操作都失败的缓存
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string, dest any) error { return errStoreDown }
func (failingCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return errStoreDown
}
func (failingCache) Del(ctx context.Context, keys ...string) error { return errStoreDown }
func (failingCache) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	return nil, errStoreDown
}
func (failingCache) IncrScore(ctx context.Context, key, member string, delta float64, ttl time.Duration) error {
	return errStoreDown
}
func (failingCache) TopWithScores(ctx context.Context, key string, n int) ([]cache.ScoredMember, error) {
	return nil, errStoreDown
}
func (failingCache) MembersWithScore(ctx context.Context, key string, score float64, limit int) ([]string, error) {
	return nil, errStoreDown
}
func (failingCache) Ping(ctx context.Context) error { return errStoreDown }
func (failingCache) Close() error                   { return nil }

// recordingInvalidator 记录调用次数并转发给真实失效器
type recordingInvalidator struct {
	mu    sync.Mutex
	calls int
	next  CacheInvalidator
}

func (r *recordingInvalidator) InvalidateListings(ctx context.Context) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.next != nil {
		r.next.InvalidateListings(ctx)
	}
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testTrendingConfig() config.TrendingConfig {
	return config.TrendingConfig{
		Key:           "trending:views:test",
		TTL:           time.Hour,
		TopN:          10,
		RecordTimeout: time.Second,
	}
}

// catalogFixture 组装一套基于内存存储与内存缓存的商品服务
type catalogFixture struct {
	store       *mockStore
	cache       cache.Store
	invalidator *recordingInvalidator
	tracker     *TrendingTracker
	enricher    *Enricher
	svc         ProductService
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	return newCatalogFixtureWithCache(t, cache.NewMemoryCache())
}

func newCatalogFixtureWithCache(t *testing.T, c cache.Store) *catalogFixture {
	t.Helper()
	store := newMockStore()
	inv := &recordingInvalidator{next: NewCacheInvalidator(c, nil)}
	enricher := NewEnricher(store, store)
	tracker := NewTrendingTracker(c, testTrendingConfig(), nil)
	t.Cleanup(tracker.Wait)

	svc := NewProductService(ProductServiceDeps{
		Products:    store,
		Categories:  store,
		Images:      store,
		Tags:        store,
		Likes:       store,
		Executor:    NewCatalogQueryExecutor(store),
		Enricher:    enricher,
		ListCache:   NewListCache(c, enricher, time.Minute, nil),
		Trending:    tracker,
		Invalidator: inv,
		TrendingTop: 10,
		ImageBase:   "https://cdn.example.com/",
	})
	return &catalogFixture{
		store:       store,
		cache:       c,
		invalidator: inv,
		tracker:     tracker,
		enricher:    enricher,
		svc:         svc,
	}
}

func ptr[T any](v T) *T { return &v }
