// 包 search：组合空间索引、前缀树、布隆过滤器与多级缓存的房源搜索服务
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"nyumbatz/internal/cache"
	"nyumbatz/internal/index"
	"nyumbatz/internal/logger"
	"nyumbatz/internal/metrics"
	"nyumbatz/internal/property"
)

// PropertySource: 房源数据来源契约；store.Store 满足，测试可注入假实现
type PropertySource interface {
	All(ctx context.Context) ([]property.Property, error)
	GetByID(ctx context.Context, id string) (*property.Property, error)
}

// 文档注释：索引快照
// 背景：重建在副本上完成后整体原子替换，读路径永不阻塞在重建上；
// 空间索引、前缀树、布隆过滤器与 id→房源映射必须来自同一次全量加载，避免互相脱节。
type indexSet struct {
	spatial *index.SpatialIndex
	trie    *index.SearchTrie
	bloom   *index.BloomFilter
	props   map[string]property.Property
}

type Service struct {
	src       PropertySource
	cache     *cache.MultiLevelCache
	idx       atomic.Pointer[indexSet]
	gridSize  float64
	resultTTL time.Duration
	done      chan struct{}
	wg        sync.WaitGroup
}

// Options: 零值字段回退到默认
type Options struct {
	GridSize  float64
	ResultTTL time.Duration
}

func New(src PropertySource, mlc *cache.MultiLevelCache, opts Options) *Service {
	if opts.GridSize <= 0 {
		opts.GridSize = index.DefaultGridSize
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = 2 * time.Minute
	}
	return &Service{
		src:       src,
		cache:     mlc,
		gridSize:  opts.GridSize,
		resultTTL: opts.ResultTTL,
		done:      make(chan struct{}),
	}
}

// Rebuild: 全量加载房源并重建索引快照，完成后原子切换
func (s *Service) Rebuild(ctx context.Context) error {
	begin := time.Now()
	props, err := s.src.All(ctx)
	if err != nil {
		return err
	}
	next := &indexSet{
		spatial: index.NewSpatialIndex(s.gridSize),
		trie:    index.NewSearchTrie(),
		// 布隆容量给出下限冗余：两次重建之间新增房源不应立刻抬高误判率
		bloom:   index.NewBloomFilter(max(len(props)*2, 1024), index.DefaultFalsePositiveRate),
		props:   make(map[string]property.Property, len(props)),
	}
	for _, p := range props {
		next.spatial.Add(p.ID, p.Lat, p.Lng)
		next.trie.Add(p)
		next.bloom.Add(p.ID)
		next.props[p.ID] = p
	}
	s.idx.Store(next)
	metrics.IndexRebuildsTotal.Inc()
	metrics.IndexRebuildDurationMs.Observe(float64(time.Since(begin).Milliseconds()))
	metrics.IndexedPropertiesGauge.Set(float64(len(props)))
	logger.L().Info("index_rebuild_done", "properties", len(props), "duration_ms", time.Since(begin).Milliseconds())
	return nil
}

// Query: 搜索请求参数；HasLocation 为真时启用空间过滤
type Query struct {
	Text     string
	Lat      float64
	Lng      float64
	HasLoc   bool
	RadiusKm float64
	Limit    int
}

// Result: 带匹配得分的房源
type Result struct {
	property.Property
	Score float64 `json:"score"`
}

// Do: 执行一次搜索
// 背景：文本按词取前缀树命中集求交，再与空间邻域求交；空间索引返回的是方形超集，
// 这里按球面距离做精确二次过滤；得分入最大堆后弹出前 N 条。
// 结果以规整化的查询串为键写入多级缓存（非持久），重复查询直接命中。
func (s *Service) Do(ctx context.Context, q Query) ([]Result, error) {
	begin := time.Now()
	metrics.SearchRequestsTotal.Inc()
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.RadiusKm <= 0 {
		q.RadiusKm = 10
	}
	key := cacheKey(q)
	var cached []Result
	if s.cache.Get(key, &cached) {
		metrics.SearchDurationMs.Observe(float64(time.Since(begin).Milliseconds()))
		return cached, nil
	}

	idx := s.idx.Load()
	if idx == nil {
		return nil, nil
	}

	ids, all := s.textCandidates(idx, q.Text)
	if q.HasLoc {
		near := idx.spatial.FindNearby(q.Lat, q.Lng, q.RadiusKm)
		if all {
			ids, all = near, false
		} else {
			ids = intersect(ids, near)
		}
	}
	if all {
		ids = make(map[string]struct{}, len(idx.props))
		for id := range idx.props {
			ids[id] = struct{}{}
		}
	}

	pq := index.NewPriorityQueue[Result]()
	for id := range ids {
		p, ok := idx.props[id]
		if !ok {
			continue
		}
		score := 1.0
		if q.HasLoc {
			d := haversineKm(q.Lat, q.Lng, p.Lat, p.Lng)
			if d > q.RadiusKm {
				continue
			}
			score += 1 - d/q.RadiusKm
		}
		pq.Enqueue(Result{Property: p, Score: score}, score)
	}
	out := make([]Result, 0, q.Limit)
	for len(out) < q.Limit {
		r, ok := pq.Dequeue()
		if !ok {
			break
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		metrics.EmptyResultsTotal.Inc()
	}
	s.cache.Set(key, out, s.resultTTL, false)
	metrics.SearchDurationMs.Observe(float64(time.Since(begin).Milliseconds()))
	return out, nil
}

// textCandidates: 按词求前缀树命中集的交集；无有效词时 all=true 表示不设文本过滤
func (s *Service) textCandidates(idx *indexSet, text string) (map[string]struct{}, bool) {
	var acc map[string]struct{}
	seen := false
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if len([]rune(tok)) < 2 {
			continue
		}
		hit := idx.trie.Search(tok)
		if !seen {
			acc, seen = hit, true
			continue
		}
		acc = intersect(acc, hit)
	}
	if !seen {
		return nil, true
	}
	return acc, false
}

// Suggest: 前缀补全，去重排序由调用方决定是否需要
func (s *Service) Suggest(prefix string, limit int) []string {
	metrics.SuggestRequestsTotal.Inc()
	idx := s.idx.Load()
	if idx == nil {
		return nil
	}
	out := idx.trie.Suggestions(prefix, limit)
	sort.Strings(out)
	return out
}

// Get: 单房源读取
// 背景：布隆过滤器在缓存与数据库之前挡掉必然不存在的 id；
// 命中走多级缓存读穿，回源结果以持久标记写回（详情页跨会话复用价值高）。
func (s *Service) Get(ctx context.Context, id string) (*property.Property, error) {
	if idx := s.idx.Load(); idx != nil && !idx.bloom.MightContain(id) {
		metrics.BloomNegativesTotal.Inc()
		return nil, nil
	}
	key := "property:" + id
	var p property.Property
	if s.cache.Get(key, &p) {
		return &p, nil
	}
	got, err := s.src.GetByID(ctx, id)
	if err != nil || got == nil {
		return got, err
	}
	s.cache.Set(key, *got, 0, true)
	return got, nil
}

func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

// StartPeriodicRebuild: 后台按固定间隔重建索引；错误只记录，下个周期继续
func (s *Service) StartPeriodicRebuild(interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if err := s.Rebuild(context.Background()); err != nil {
					logger.L().Error("index_rebuild_error", "err", err)
				}
			case <-s.done:
				return
			}
		}
	}()
	logger.L().Info("index_rebuild_scheduled", "interval", interval.String())
}

func (s *Service) Stop() {
	close(s.done)
	s.wg.Wait()
}

func cacheKey(q Query) string {
	loc := "-"
	if q.HasLoc {
		loc = fmt.Sprintf("%.4f,%.4f,%.1f", q.Lat, q.Lng, q.RadiusKm)
	}
	return "search:" + strings.Join(strings.Fields(strings.ToLower(q.Text)), "+") +
		":" + loc + ":" + fmt.Sprintf("%d", q.Limit)
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// haversineKm: 球面距离（千米），用于对空间索引的方形超集做精确过滤
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return R * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
