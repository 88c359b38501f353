package middleware

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"nyumbatz/internal/logger"
)

// 文档注释：令牌桶限流中间件（每秒）
// 背景：搜索接口在流量峰值时对入口限速，避免索引与数据库被过载；按环境变量开关与速率配置。
// 约束：简化实现，不做队列排队，仅丢弃并返回 429。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	mu       sync.Mutex
}

func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := time.Now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimit: 按 RATE_LIMIT_QPS 配置的全局限流；未配置或非正值时直通
func RateLimit(next http.Handler) http.Handler {
	qps := 0
	if v := os.Getenv("RATE_LIMIT_QPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			qps = n
		}
	}
	if qps <= 0 {
		return next
	}
	tb := &TokenBucket{capacity: qps}
	logger.L().Info("ratelimit_enabled", "qps", qps)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.allow() {
			logger.L().Debug("ratelimit_drop", "path", r.URL.Path, "ip", r.RemoteAddr)
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
