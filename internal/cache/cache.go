// Package cache 提供键值缓存与有序集合（排行榜）抽象，以及 Redis、内存、空实现。
package cache

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// ErrMiss 键不存在或已过期
var ErrMiss = errors.New("cache: key not found")

// Cache 键值缓存接口；值以 JSON 序列化存储
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// ScanKeys 返回所有以 prefix 开头的键
	ScanKeys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// ScoredMember 有序集合成员及分数
type ScoredMember struct {
	Member string
	Score  float64
}

// RankingStore 有序集合接口
type RankingStore interface {
	// IncrScore 将 member 的分数加 delta，并把整个集合的过期时间重置为 ttl
	IncrScore(ctx context.Context, key, member string, delta float64, ttl time.Duration) error
	// TopWithScores 按分数降序返回前 n 个成员
	TopWithScores(ctx context.Context, key string, n int) ([]ScoredMember, error)
	// MembersWithScore 按成员字典序升序返回分数恰为 score 的成员，最多 limit 个；limit <= 0 不限
	MembersWithScore(ctx context.Context, key string, score float64, limit int) ([]string, error)
}

// Store 同时具备键值与有序集合能力
type Store interface {
	Cache
	RankingStore
}

// memorySweepInterval 两次全量清理过期键的最小间隔
const memorySweepInterval = time.Minute

// MemoryCache 内存实现（单机回退与测试使用），并发安全。
// 过期键在读取、扫描时删除，写入时按 memorySweepInterval 周期全量清理。
type MemoryCache struct {
	mu        sync.RWMutex
	data      map[string]*memoryCacheItem
	zsets     map[string]*memoryZSet
	now       func() time.Time
	lastSweep time.Time
}

type memoryCacheItem struct {
	value      []byte
	expiration time.Time
}

type memoryZSet struct {
	scores     map[string]float64
	expiration time.Time
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data:  make(map[string]*memoryCacheItem),
		zsets: make(map[string]*memoryZSet),
		now:   time.Now,
	}
}

// Get 读取并反序列化
func (m *MemoryCache) Get(ctx context.Context, key string, dest any) error {
	m.mu.RLock()
	item, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return ErrMiss
	}
	if m.expired(item.expiration) {
		m.mu.Lock()
		// 加锁期间可能已被重新写入
		if cur, ok := m.data[key]; ok && m.expired(cur.expiration) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return ErrMiss
	}
	return json.Unmarshal(item.value, dest)
}

// Set 序列化后写入；expiration 为 0 表示不过期
func (m *MemoryCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	item := &memoryCacheItem{value: data}
	if expiration > 0 {
		item.expiration = m.now().Add(expiration)
	}

	m.mu.Lock()
	m.data[key] = item
	if now := m.now(); now.Sub(m.lastSweep) >= memorySweepInterval {
		m.sweep()
		m.lastSweep = now
	}
	m.mu.Unlock()
	return nil
}

// sweep 删除所有过期的键值与有序集合，调用方需持有写锁
func (m *MemoryCache) sweep() {
	for key, item := range m.data {
		if m.expired(item.expiration) {
			delete(m.data, key)
		}
	}
	for key, z := range m.zsets {
		if m.expired(z.expiration) {
			delete(m.zsets, key)
		}
	}
}

// Del 删除键（包括有序集合）
func (m *MemoryCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.zsets, key)
	}
	return nil
}

// ScanKeys 前缀匹配未过期的键，顺带删除匹配到的过期键
func (m *MemoryCache) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key, item := range m.data {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if m.expired(item.expiration) {
			delete(m.data, key)
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// IncrScore 有序集合加分并刷新过期时间
func (m *MemoryCache) IncrScore(ctx context.Context, key, member string, delta float64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	z, ok := m.zsets[key]
	if !ok || m.expired(z.expiration) {
		z = &memoryZSet{scores: make(map[string]float64)}
		m.zsets[key] = z
	}
	z.scores[member] += delta
	if ttl > 0 {
		z.expiration = m.now().Add(ttl)
	}
	return nil
}

// TopWithScores 分数降序，同分按成员字典序降序（与 Redis ZREVRANGE 一致）
func (m *MemoryCache) TopWithScores(ctx context.Context, key string, n int) ([]ScoredMember, error) {
	members := m.zsetMembers(key)
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].Member > members[j].Member
	})
	if n >= 0 && len(members) > n {
		members = members[:n]
	}
	return members, nil
}

// MembersWithScore 返回分数等于 score 的成员，字典序升序
func (m *MemoryCache) MembersWithScore(ctx context.Context, key string, score float64, limit int) ([]string, error) {
	var out []string
	for _, sm := range m.zsetMembers(key) {
		if sm.Score == score {
			out = append(out, sm.Member)
		}
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryCache) zsetMembers(key string) []ScoredMember {
	m.mu.RLock()
	defer m.mu.RUnlock()

	z, ok := m.zsets[key]
	if !ok || m.expired(z.expiration) {
		return nil
	}
	out := make([]ScoredMember, 0, len(z.scores))
	for member, score := range z.scores {
		out = append(out, ScoredMember{Member: member, Score: score})
	}
	return out
}

func (m *MemoryCache) expired(at time.Time) bool {
	return !at.IsZero() && m.now().After(at)
}

// Ping 始终可用
func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Close 清空数据
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]*memoryCacheItem)
	m.zsets = make(map[string]*memoryZSet)
	return nil
}

// NullCache 禁用缓存时使用：读永远未命中，写与排行榜操作为空
type NullCache struct{}

// NewNullCache 创建空缓存
func NewNullCache() *NullCache {
	return &NullCache{}
}

func (n *NullCache) Get(ctx context.Context, key string, dest any) error {
	return ErrMiss
}

func (n *NullCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return nil
}

func (n *NullCache) Del(ctx context.Context, keys ...string) error {
	return nil
}

func (n *NullCache) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}

func (n *NullCache) IncrScore(ctx context.Context, key, member string, delta float64, ttl time.Duration) error {
	return nil
}

func (n *NullCache) TopWithScores(ctx context.Context, key string, count int) ([]ScoredMember, error) {
	return nil, nil
}

func (n *NullCache) MembersWithScore(ctx context.Context, key string, score float64, limit int) ([]string, error) {
	return nil, nil
}

func (n *NullCache) Ping(ctx context.Context) error {
	return nil
}

func (n *NullCache) Close() error {
	return nil
}
