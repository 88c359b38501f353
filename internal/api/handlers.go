// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"nyumbatz/internal/geoip"
	"nyumbatz/internal/logger"
	"nyumbatz/internal/search"
)

// 解析访问者 IP：优先常见反向代理头，最后回退远端地址；用于无坐标搜索的城市兜底定位
func getClientIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	if x := h.Get("x-real-ip"); x != "" {
		return x
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		return host[:i]
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Debug("api_encode_error", "err", err)
	}
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 /api 前缀
// 背景：geo 可为 nil（未配置 mmdb），此时无坐标请求退化为纯文本搜索
func BuildRoutes(svc *search.Service, geo *geoip.Resolver) *http.ServeMux {
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		q := search.Query{Text: qs.Get("q")}
		if v := qs.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				q.Limit = n
			}
		}
		if v := qs.Get("radius_km"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q.RadiusKm = f
			}
		}
		var city string
		latStr, lngStr := qs.Get("lat"), qs.Get("lng")
		if latStr != "" && lngStr != "" {
			lat, errLat := strconv.ParseFloat(latStr, 64)
			lng, errLng := strconv.ParseFloat(lngStr, 64)
			if errLat == nil && errLng == nil {
				q.Lat, q.Lng, q.HasLoc = lat, lng, true
			}
		} else if geo != nil {
			if name, lat, lng, ok := geo.City(getClientIP(r)); ok {
				city = name
				q.Lat, q.Lng, q.HasLoc = lat, lng, true
				logger.L().Debug("search_geo_default", "city", name)
			}
		}
		results, err := svc.Do(r.Context(), q)
		if err != nil {
			logger.L().Error("search_error", "err", err)
			http.Error(w, "search failed", http.StatusInternalServerError)
			return
		}
		if results == nil {
			results = []search.Result{}
		}
		writeJSON(w, http.StatusOK, searchResponse{Query: q.Text, City: city, Count: len(results), Results: results})
	})

	apiMux.HandleFunc("/suggest", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("q")
		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
				limit = n
			}
		}
		out := svc.Suggest(prefix, limit)
		if out == nil {
			out = []string{}
		}
		writeJSON(w, http.StatusOK, suggestResponse{Prefix: prefix, Suggestions: out})
	})

	apiMux.HandleFunc("/properties", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		p, err := svc.Get(r.Context(), id)
		if err != nil {
			logger.L().Error("property_get_error", "id", id, "err", err)
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		if p == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, p)
	})

	apiMux.HandleFunc("/cache/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.CacheStats())
	})

	return apiMux
}
