package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nyumba_search_requests_total",
		Help: "Total number of /api/search requests",
	})
	SearchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nyumba_search_duration_ms",
		Help:    "Search request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	SuggestRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nyumba_suggest_requests_total",
		Help: "Total number of /api/suggest requests",
	})
	EmptyResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nyumba_empty_results_total",
		Help: "Total number of searches returning no properties",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nyumba_cache_hits_total",
		Help: "Multi-level cache hits by tier",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nyumba_cache_misses_total",
		Help: "Multi-level cache misses across all tiers",
	})
	CacheQuotaDropsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nyumba_cache_quota_drops_total",
		Help: "Writes dropped because a backing store refused them",
	})
	CacheCorruptTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nyumba_cache_corrupt_entries_total",
		Help: "Corrupt cache envelopes found and removed, by tier",
	}, []string{"tier"})
	CacheCleanupRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nyumba_cache_cleanup_runs_total",
		Help: "Completed cleanup sweeps over tier-2/3 stores",
	})
	BloomNegativesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nyumba_bloom_negatives_total",
		Help: "Property lookups short-circuited by the bloom filter",
	})
	IndexRebuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nyumba_index_rebuilds_total",
		Help: "Completed search index rebuilds",
	})
	IndexRebuildDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nyumba_index_rebuild_duration_ms",
		Help:    "Index rebuild duration in milliseconds",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 20000},
	})
	IndexedPropertiesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nyumba_indexed_properties",
		Help: "Number of properties in the live search index",
	})
)

func init() {
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDurationMs)
	prometheus.MustRegister(SuggestRequestsTotal)
	prometheus.MustRegister(EmptyResultsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CacheQuotaDropsTotal)
	prometheus.MustRegister(CacheCorruptTotal)
	prometheus.MustRegister(CacheCleanupRunsTotal)
	prometheus.MustRegister(BloomNegativesTotal)
	prometheus.MustRegister(IndexRebuildsTotal)
	prometheus.MustRegister(IndexRebuildDurationMs)
	prometheus.MustRegister(IndexedPropertiesGauge)
}

// 文档注释：返回 Prometheus 指标处理器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
