// 包 property：房源领域模型，仅承载数据字段，不包含业务逻辑
package property

// Property: 房源记录，索引与缓存层共用的最小字段集
type Property struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	City      string   `json:"city"`
	Amenities []string `json:"amenities"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Price     float64  `json:"price"`
	Bedrooms  int      `json:"bedrooms"`
}
