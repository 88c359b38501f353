package index

import (
	"hash/fnv"
	"math"
)

// 文档注释：定长布隆过滤器
// 背景：在缓存与数据库之前挡掉必然不存在的键；位图大小与哈希轮数在构造时由
// (期望元素数, 目标误判率) 一次推导：m = ceil(-n·ln p/(ln2)^2)，k = ceil((m/n)·ln2)。
// 约束：对已加入元素永不漏报；误判率只在写入量不超过期望元素数时逼近目标值，
// 过量写入会抬高实际误判率，属于预期退化而非缺陷。不支持删除，需要删除时应改用计数变体。
// 哈希采用按轮次索引加盐的 FNV-64a（与位图方案一致的成熟散列），
// 替代参考实现的多项式滚动哈希以保证误判率在实测中成立。
type BloomFilter struct {
	bits []uint64
	m    uint64
	k    int
}

// DefaultFalsePositiveRate: 未显式配置时的目标误判率
const DefaultFalsePositiveRate = 0.01

func NewBloomFilter(expectedElements int, falsePositiveRate float64) *BloomFilter {
	if expectedElements <= 0 {
		expectedElements = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = DefaultFalsePositiveRate
	}
	n := float64(expectedElements)
	m := uint64(math.Ceil(-n * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2)))
	if m == 0 {
		m = 1
	}
	k := int(math.Ceil(float64(m) / n * math.Ln2))
	if k < 1 {
		k = 1
	}
	return &BloomFilter{
		bits: make([]uint64, (m+63)/64),
		m:    m,
		k:    k,
	}
}

func (b *BloomFilter) positions(item string) []uint64 {
	pos := make([]uint64, b.k)
	for i := 0; i < b.k; i++ {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write([]byte(item))
		pos[i] = h.Sum64() % b.m
	}
	return pos
}

// Add: 置位 k 个哈希位置
func (b *BloomFilter) Add(item string) {
	for _, p := range b.positions(item) {
		b.bits[p/64] |= 1 << (p % 64)
	}
}

// MightContain: k 个位置全部为 1 才返回 true；false 表示必然未加入过
func (b *BloomFilter) MightContain(item string) bool {
	for _, p := range b.positions(item) {
		if b.bits[p/64]&(1<<(p%64)) == 0 {
			return false
		}
	}
	return true
}

// BitSize / Rounds: 观测用，便于在日志里核对推导参数
func (b *BloomFilter) BitSize() uint64 { return b.m }

func (b *BloomFilter) Rounds() int { return b.k }
