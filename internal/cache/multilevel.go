package cache

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"nyumbatz/internal/logger"
	"nyumbatz/internal/metrics"
)

// 文档注释：三级读穿/写穿缓存
// 背景：一级为进程内 LRU（热数据），二级为会话级键值存储，三级为持久级键值存储；
// 读按 L1→L2→L3 逐层探测，命中即向上提升；写固定落 L1+L2，persistent 时追加 L3。
// 约束：二三级条目包裹 {data,timestamp,ttl} 信封，now-timestamp<ttl 才有效；
// 一级只存裸负载不带信封，命中不查 TTL——被提升的值在一级的存活只受容量淘汰约束，
// 可能超出原始 TTL，这是沿用的精度取舍，不要悄悄“修复”。
// 二三级的写失败（配额类）只记录并触发该层一次过期清扫，绝不向调用方抛错；
// 信封损坏按未命中处理并顺手删除。实例级互斥锁覆盖复合操作与清扫全程。
type MultiLevelCache struct {
	mu   sync.Mutex
	cfg  Config
	l1   *LRU[string, []byte]
	l2   KVStore
	l3   KVStore
	done chan struct{}
	wg   sync.WaitGroup
}

// Config: 组合根一次性构造；零值字段回退到默认
type Config struct {
	L1Capacity      int
	L2Prefix        string
	L3Prefix        string
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	DefaultL1Capacity      = 100
	DefaultL2Prefix        = "nyumba_l2_"
	DefaultL3Prefix        = "nyumba_l3_"
	DefaultTTL             = 5 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// envelope: 二三级存储的条目包装，时间戳与 TTL 均为毫秒
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	TTL       int64           `json:"ttl"`
}

func (e envelope) valid(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp < e.TTL
}

func NewMultiLevel(cfg Config, l2, l3 KVStore) (*MultiLevelCache, error) {
	if cfg.L1Capacity <= 0 {
		cfg.L1Capacity = DefaultL1Capacity
	}
	if cfg.L2Prefix == "" {
		cfg.L2Prefix = DefaultL2Prefix
	}
	if cfg.L3Prefix == "" {
		cfg.L3Prefix = DefaultL3Prefix
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	l1, err := NewLRU[string, []byte](cfg.L1Capacity)
	if err != nil {
		return nil, err
	}
	return &MultiLevelCache{cfg: cfg, l1: l1, l2: l2, l3: l3, done: make(chan struct{})}, nil
}

// Get: 逐层读取并解码到 dest（需为指针）；任一层有效命中返回 true
func (c *MultiLevelCache) Get(key string, dest any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()

	if raw, ok := c.l1.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues("l1").Inc()
		return decode(raw, dest)
	}

	if s, ok := c.l2.Get(c.cfg.L2Prefix + key); ok {
		if env, ok := parseEnvelope(s); ok {
			if env.valid(now) {
				metrics.CacheHitsTotal.WithLabelValues("l2").Inc()
				c.l1.Set(key, env.Data)
				return decode(env.Data, dest)
			}
		} else {
			metrics.CacheCorruptTotal.WithLabelValues("l2").Inc()
		}
		c.l2.Remove(c.cfg.L2Prefix + key)
	}

	if s, ok := c.l3.Get(c.cfg.L3Prefix + key); ok {
		if env, ok := parseEnvelope(s); ok {
			if env.valid(now) {
				metrics.CacheHitsTotal.WithLabelValues("l3").Inc()
				c.l1.Set(key, env.Data)
				c.writeStore(c.l2, c.cfg.L2Prefix, c.cfg.L2Prefix+key, s)
				return decode(env.Data, dest)
			}
		} else {
			metrics.CacheCorruptTotal.WithLabelValues("l3").Inc()
		}
		c.l3.Remove(c.cfg.L3Prefix + key)
	}

	metrics.CacheMissesTotal.Inc()
	return false
}

// Set: 编码一次后写 L1 与 L2；persistent 为真时追加写 L3。写失败不返回错误
func (c *MultiLevelCache) Set(key string, value any, ttl time.Duration, persistent bool) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.L().Error("cache_set_encode_error", "key", key, "err", err)
		return
	}
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	env := envelope{Data: raw, Timestamp: time.Now().UnixMilli(), TTL: ttl.Milliseconds()}
	wrapped, _ := json.Marshal(env)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.l1.Set(key, raw)
	c.writeStore(c.l2, c.cfg.L2Prefix, c.cfg.L2Prefix+key, string(wrapped))
	if persistent {
		c.writeStore(c.l3, c.cfg.L3Prefix, c.cfg.L3Prefix+key, string(wrapped))
	}
}

// writeStore: 尽力而为的下层写入；配额类失败记录指标并触发该层一次过期清扫
func (c *MultiLevelCache) writeStore(st KVStore, prefix, key, value string) {
	if err := st.Set(key, value); err != nil {
		logger.L().Warn("cache_store_write_drop", "key", key, "err", err)
		metrics.CacheQuotaDropsTotal.Inc()
		c.sweepStore(st, prefix, time.Now())
	}
}

func (c *MultiLevelCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.l1.Delete(key)
	c.l2.Remove(c.cfg.L2Prefix + key)
	c.l3.Remove(c.cfg.L3Prefix + key)
}

// Clear: 清空一级并删除二三级中本缓存命名空间下的全部键
func (c *MultiLevelCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.l1.Clear()
	for _, k := range c.l2.Keys() {
		if strings.HasPrefix(k, c.cfg.L2Prefix) {
			c.l2.Remove(k)
		}
	}
	for _, k := range c.l3.Keys() {
		if strings.HasPrefix(k, c.cfg.L3Prefix) {
			c.l3.Remove(k)
		}
	}
}

// Cleanup: 扫描二三级，删除过期或损坏的信封；周期清扫与手动调用共用此入口
// 背景：一级命中不查 TTL，过期键在一级的兜底回收也由这里完成——清扫在下层删掉的键
// 同步从一级剔除，保证清扫过后过期值不再可读。
func (c *MultiLevelCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	removed := append(c.sweepStore(c.l2, c.cfg.L2Prefix, now), c.sweepStore(c.l3, c.cfg.L3Prefix, now)...)
	for _, k := range removed {
		c.l1.Delete(k)
	}
	metrics.CacheCleanupRunsTotal.Inc()
	if len(removed) > 0 {
		logger.L().Debug("cache_cleanup_done", "removed", len(removed))
	}
}

// sweepStore: 删除该层过期或损坏的条目，返回去掉前缀的键名；调用方需持有实例锁
func (c *MultiLevelCache) sweepStore(st KVStore, prefix string, now time.Time) []string {
	var removed []string
	for _, k := range st.Keys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		s, ok := st.Get(k)
		if !ok {
			continue
		}
		env, ok := parseEnvelope(s)
		if ok && env.valid(now) {
			continue
		}
		st.Remove(k)
		removed = append(removed, strings.TrimPrefix(k, prefix))
	}
	return removed
}

// Stats: 各层条目数与一级容量，仅用于观测
type Stats struct {
	L1Count    int `json:"l1_count"`
	L1Capacity int `json:"l1_capacity"`
	L2Count    int `json:"l2_count"`
	L3Count    int `json:"l3_count"`
}

func (c *MultiLevelCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		L1Count:    c.l1.Len(),
		L1Capacity: c.l1.Cap(),
		L2Count:    countPrefixed(c.l2, c.cfg.L2Prefix),
		L3Count:    countPrefixed(c.l3, c.cfg.L3Prefix),
	}
}

// Start: 启动周期清扫协程；Stop 负责停止，进程退出前应调用
func (c *MultiLevelCache) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		t := time.NewTicker(c.cfg.CleanupInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.Cleanup()
			case <-c.done:
				return
			}
		}
	}()
	logger.L().Info("cache_sweeper_started", "interval", c.cfg.CleanupInterval.String())
}

func (c *MultiLevelCache) Stop() {
	close(c.done)
	c.wg.Wait()
}

func countPrefixed(st KVStore, prefix string) int {
	n := 0
	for _, k := range st.Keys() {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}

func parseEnvelope(s string) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return envelope{}, false
	}
	if env.TTL <= 0 || env.Timestamp <= 0 {
		return envelope{}, false
	}
	return env, true
}

func decode(raw []byte, dest any) bool {
	if dest == nil {
		return true
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.L().Debug("cache_decode_error", "err", err)
		return false
	}
	return true
}
