package api

import "nyumbatz/internal/search"

// 文档注释：搜索返回结构（对外）
// 背景：统一对外序列化模型，仅包含必要字段；便于缓存与前端依赖的一致化处理。
// 约束：字段稳定；新增字段需评估兼容性。
type searchResponse struct {
	Query   string          `json:"query"`
	City    string          `json:"city,omitempty"`
	Count   int             `json:"count"`
	Results []search.Result `json:"results"`
}

type suggestResponse struct {
	Prefix      string   `json:"prefix"`
	Suggestions []string `json:"suggestions"`
}
