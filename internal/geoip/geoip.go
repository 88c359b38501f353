// 包 geoip：基于 MaxMind mmdb 的访客城市解析，用于未带坐标的搜索请求兜底定位
package geoip

import (
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"

	"nyumbatz/internal/logger"
)

type Resolver struct {
	r *geoip2.Reader
}

// Open: 打开 mmdb 并先做一次完整性校验
// 背景：库文件由外部更新流程替换，损坏文件会让查询静默返回空结果，启动期校验便于及早暴露
// 约束：校验失败只告警不拒绝启动，定位属于体验增强而非核心依赖
func Open(path string) (*Resolver, error) {
	mr, err := maxminddb.Open(path)
	if err != nil {
		return nil, err
	}
	if err := mr.Verify(); err != nil {
		logger.L().Warn("geoip_verify_failed", "path", path, "err", err)
	}
	_ = mr.Close()
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &Resolver{r: r}, nil
}

// City: 解析 IP 所在城市与坐标；解析失败或库中无记录返回 ok=false
func (g *Resolver) City(ipStr string) (name string, lat, lng float64, ok bool) {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "", 0, 0, false
	}
	rec, err := g.r.City(ip)
	if err != nil || rec == nil {
		return "", 0, 0, false
	}
	name = rec.City.Names["en"]
	lat = rec.Location.Latitude
	lng = rec.Location.Longitude
	if name == "" && lat == 0 && lng == 0 {
		return "", 0, 0, false
	}
	return name, lat, lng, true
}

func (g *Resolver) Close() error { return g.r.Close() }
