package api

import (
	"hash/fnv"
	"strconv"
	"sync"
	"time"
)

// cacheEntry 是单条缓存：数据 + 写入时间 + 完整性签名。
// 签名是 FNV-1a 校验和，不是安全控制——只用于发现被篡改/错位的条目并当作 miss，
// 不要升级成真正的加密签名。
type cacheEntry struct {
	data      any
	storedAt  time.Time
	signature uint64
}

// Cache 是进程内 TTL 缓存，key 空间为 (namespace, key)。
// 进程退出即丢弃，无持久化要求。
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache 创建缓存；defaultTTL <= 0 时默认 30 分钟。
func NewCache(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     defaultTTL,
		now:     time.Now,
	}
}

// Get 返回未过期且签名有效的缓存值；miss 时第二返回值为 false。
func (c *Cache) Get(namespace, key string) (any, bool) {
	return c.GetTTL(namespace, key, c.ttl)
}

// GetTTL 同 Get，但用调用方指定的 ttl 判定过期。
func (c *Cache) GetTTL(namespace, key string, ttl time.Duration) (any, bool) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	ck := namespace + ":" + key

	c.mu.RLock()
	entry, ok := c.entries[ck]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.storedAt) >= ttl {
		return nil, false
	}
	// 签名对不上：条目被篡改或错位，按 miss 处理
	if entry.signature != signature(namespace, key, entry.storedAt) {
		return nil, false
	}
	return entry.data, true
}

// Put 写入一条缓存，签名由 (namespace, key, 写入时间) 派生。
func (c *Cache) Put(namespace, key string, data any) {
	now := c.now()
	c.mu.Lock()
	c.entries[namespace+":"+key] = cacheEntry{
		data:      data,
		storedAt:  now,
		signature: signature(namespace, key, now),
	}
	c.mu.Unlock()
}

// Invalidate 删除一条缓存。
func (c *Cache) Invalidate(namespace, key string) {
	c.mu.Lock()
	delete(c.entries, namespace+":"+key)
	c.mu.Unlock()
}

// Len 返回当前条目数（观测用）。
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func signature(namespace, key string, at time.Time) uint64 {
	h := fnv.New64a()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(key))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(at.UnixNano(), 10)))
	return h.Sum64()
}
