// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nyumbatz/internal/api"
	"nyumbatz/internal/cache"
	"nyumbatz/internal/geoip"
	"nyumbatz/internal/logger"
	"nyumbatz/internal/metrics"
	"nyumbatz/internal/middleware"
	"nyumbatz/internal/migrate"
	"nyumbatz/internal/search"
	"nyumbatz/internal/store"
	"nyumbatz/internal/utils"
)

func envDuration(name string, def time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
	} else {
		l.Info("db_ping_ok")
	}
	st := store.AttachDB(db)
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	// 二级为进程内会话级存储；三级优先 Redis，未配置时退化为本地文件目录
	l2 := cache.NewMemStore(envInt("CACHE_L2_MAX_BYTES", 0))
	var l3 cache.KVStore
	if rc := utils.OpenRedisFromEnv(); rc != nil {
		if err := rc.Ping(context.Background()).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		l3 = cache.NewRedisStore(rc, "nyumbatz:cache:")
		l.Info("cache_l3_backend", "backend", "redis")
	} else {
		dir := os.Getenv("CACHE_DIR")
		if dir == "" {
			dir = filepath.Join("data", "cache")
		}
		fs, err := cache.NewFileStore(dir)
		if err != nil {
			l.Error("filestore_open_error", "dir", dir, "err", err)
			os.Exit(1)
		}
		l3 = fs
		l.Info("cache_l3_backend", "backend", "file", "dir", dir)
	}

	mlc, err := cache.NewMultiLevel(cache.Config{
		L1Capacity:      envInt("CACHE_L1_CAPACITY", cache.DefaultL1Capacity),
		DefaultTTL:      envDuration("CACHE_DEFAULT_TTL", cache.DefaultTTL),
		CleanupInterval: envDuration("CACHE_CLEANUP_INTERVAL", cache.DefaultCleanupInterval),
	}, l2, l3)
	if err != nil {
		l.Error("cache_init_error", "err", err)
		os.Exit(1)
	}
	mlc.Start()

	svc := search.New(st, mlc, search.Options{
		ResultTTL: envDuration("SEARCH_RESULT_TTL", 2*time.Minute),
	})
	if err := svc.Rebuild(context.Background()); err != nil {
		l.Error("index_rebuild_error", "err", err)
	}
	svc.StartPeriodicRebuild(envDuration("INDEX_REBUILD_INTERVAL", time.Hour))

	// 访客定位（可选）：配置 GEOIP_MMDB 后，无坐标的搜索按访客城市兜底
	var geo *geoip.Resolver
	if path := os.Getenv("GEOIP_MMDB"); path != "" {
		if g, err := geoip.Open(path); err == nil {
			geo = g
			defer geo.Close()
			l.Info("geoip_ready", "path", path)
		} else {
			l.Error("geoip_open_error", "path", path, "err", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", api.BuildRoutes(svc, geo)))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := logger.AccessMiddleware(l)(middleware.RateLimit(mux))
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		l.Info("http_listen", "addr", addr)
		var serveErr error
		if os.Getenv("ENABLE_TLS") == "true" {
			certPath := filepath.Join("data", "tls", "server.crt")
			keyPath := filepath.Join("data", "tls", "server.key")
			if err := utils.EnsureSelfSignedCert(certPath, keyPath, "nyumbatz"); err != nil {
				l.Error("tls_cert_error", "err", err)
				os.Exit(1)
			}
			serveErr = srv.ListenAndServeTLS(certPath, keyPath)
		} else {
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			l.Error("http_serve_error", "err", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	l.Info("shutdown_begin")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	svc.Stop()
	mlc.Stop()
	l.Info("shutdown_done")
}
