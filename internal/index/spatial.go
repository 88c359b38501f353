// 包 index：房源搜索用的内存索引结构（网格空间索引、前缀树、布隆过滤器、优先队列）
package index

import "math"

// 文档注释：均匀网格空间索引
// 背景：按固定步长把经纬度切分为网格桶，插入与删除 O(1)；近邻查询只需合并目标半径覆盖的方形邻域桶。
// 约束：索引不记录实体坐标，删除时必须传入与插入一致的坐标；半径换算按 1 度纬度 ≈ 111 千米估算，
// 高纬度与经度方向会偏大，结果是真实圆的超集，需要精确圈选时由调用方按球面距离二次过滤。
type SpatialIndex struct {
	gridSize float64
	buckets  map[cellKey]map[string]struct{}
}

type cellKey struct {
	latCell int
	lngCell int
}

// DefaultGridSize: 约 0.01 度，即 1km 左右的网格
const DefaultGridSize = 0.01

func NewSpatialIndex(gridSize float64) *SpatialIndex {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	return &SpatialIndex{
		gridSize: gridSize,
		buckets:  make(map[cellKey]map[string]struct{}),
	}
}

func (s *SpatialIndex) key(lat, lng float64) cellKey {
	return cellKey{
		latCell: int(math.Floor(lat / s.gridSize)),
		lngCell: int(math.Floor(lng / s.gridSize)),
	}
}

// Add: 将实体 id 放入坐标对应的网格桶
func (s *SpatialIndex) Add(id string, lat, lng float64) {
	k := s.key(lat, lng)
	b, ok := s.buckets[k]
	if !ok {
		b = make(map[string]struct{})
		s.buckets[k] = b
	}
	b[id] = struct{}{}
}

// Remove: 从坐标对应的桶中删除实体；桶清空后删除桶本身，避免空桶累积
// 约束：坐标必须与 Add 时一致，索引自身不追踪实体位置
func (s *SpatialIndex) Remove(id string, lat, lng float64) {
	k := s.key(lat, lng)
	b, ok := s.buckets[k]
	if !ok {
		return
	}
	delete(b, id)
	if len(b) == 0 {
		delete(s.buckets, k)
	}
}

// FindNearby: 返回半径覆盖邻域内的全部实体 id（去重集合）
// 背景：radiusKm 先换算为网格半径 ceil(radiusKm/(gridSize*111))，再合并 (2r+1)^2 个桶；
// 返回为真实圆的超集，不做球面距离裁剪。
func (s *SpatialIndex) FindNearby(lat, lng, radiusKm float64) map[string]struct{} {
	out := make(map[string]struct{})
	if radiusKm < 0 {
		return out
	}
	center := s.key(lat, lng)
	r := int(math.Ceil(radiusKm / (s.gridSize * 111)))
	for dLat := -r; dLat <= r; dLat++ {
		for dLng := -r; dLng <= r; dLng++ {
			k := cellKey{latCell: center.latCell + dLat, lngCell: center.lngCell + dLng}
			for id := range s.buckets[k] {
				out[id] = struct{}{}
			}
		}
	}
	return out
}

// Len: 当前非空桶数量，仅用于观测
func (s *SpatialIndex) Len() int { return len(s.buckets) }
