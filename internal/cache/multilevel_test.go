package cache

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, l1cap int) (*MultiLevelCache, *MemStore, *MemStore) {
	t.Helper()
	l2 := NewMemStore(0)
	l3 := NewMemStore(0)
	c, err := NewMultiLevel(Config{L1Capacity: l1cap, DefaultTTL: time.Minute}, l2, l3)
	require.NoError(t, err)
	return c, l2, l3
}

func TestMultiLevelRoundTrip(t *testing.T) {
	c, _, _ := newTestCache(t, 10)

	c.Set("s", "habari", 0, false)
	var s string
	require.True(t, c.Get("s", &s))
	require.Equal(t, "habari", s)

	c.Set("n", 42.5, 0, false)
	var n float64
	require.True(t, c.Get("n", &n))
	require.Equal(t, 42.5, n)

	type nested struct {
		Name string            `json:"name"`
		Tags []string          `json:"tags"`
		Meta map[string]string `json:"meta"`
	}
	want := nested{Name: "Mbeya", Tags: []string{"parking", "wifi"}, Meta: map[string]string{"zone": "south"}}
	c.Set("o", want, 0, false)
	var got nested
	require.True(t, c.Get("o", &got))
	require.Equal(t, want, got)
}

func TestMultiLevelMiss(t *testing.T) {
	c, _, _ := newTestCache(t, 10)
	var v string
	require.False(t, c.Get("absent", &v))
}

func TestMultiLevelTTLExpiryAndCleanup(t *testing.T) {
	c, l2, l3 := newTestCache(t, 10)

	c.Set("k", "v", 50*time.Millisecond, true)
	var v string
	require.True(t, c.Get("k", &v))
	require.Equal(t, "v", v)

	time.Sleep(60 * time.Millisecond)
	c.Cleanup()

	require.False(t, c.Get("k", &v))
	_, ok := l2.Get(DefaultL2Prefix + "k")
	require.False(t, ok)
	_, ok = l3.Get(DefaultL3Prefix + "k")
	require.False(t, ok)
	require.Equal(t, 0, c.Stats().L1Count)
}

func TestMultiLevelLazyExpiryOnGet(t *testing.T) {
	c, l2, _ := newTestCache(t, 10)
	c.Set("k", "v", 30*time.Millisecond, false)
	// 淘汰一级副本，迫使读路径落到带信封的二级
	c.l1.Delete("k")

	time.Sleep(40 * time.Millisecond)
	var v string
	require.False(t, c.Get("k", &v))
	_, ok := l2.Get(DefaultL2Prefix + "k")
	require.False(t, ok)
}

func TestMultiLevelPromotionFromL2(t *testing.T) {
	c, _, l3 := newTestCache(t, 2)

	c.Set("k", "v", time.Minute, false)
	// 连续写入挤掉一级中的 k；非持久键不会出现在三级
	c.Set("x1", 1, time.Minute, false)
	c.Set("x2", 2, time.Minute, false)
	require.False(t, c.l1.Has("k"))
	_, ok := l3.Get(DefaultL3Prefix + "k")
	require.False(t, ok)

	var v string
	require.True(t, c.Get("k", &v))
	require.Equal(t, "v", v)
	require.True(t, c.l1.Has("k"))
}

func TestMultiLevelPromotionFromL3(t *testing.T) {
	c, l2, _ := newTestCache(t, 4)

	c.Set("k", "v", time.Minute, true)
	// 模拟会话结束：一二级都失去副本，仅持久层还在
	c.l1.Delete("k")
	l2.Remove(DefaultL2Prefix + "k")

	var v string
	require.True(t, c.Get("k", &v))
	require.Equal(t, "v", v)
	require.True(t, c.l1.Has("k"))
	_, ok := l2.Get(DefaultL2Prefix + "k")
	require.True(t, ok)
}

func TestMultiLevelCorruptEnvelopeIsMiss(t *testing.T) {
	c, l2, l3 := newTestCache(t, 4)
	require.NoError(t, l2.Set(DefaultL2Prefix+"bad", "{not json"))
	require.NoError(t, l3.Set(DefaultL3Prefix+"bad", `{"data":1}`))

	var v int
	require.False(t, c.Get("bad", &v))
	_, ok := l2.Get(DefaultL2Prefix + "bad")
	require.False(t, ok)
	_, ok = l3.Get(DefaultL3Prefix + "bad")
	require.False(t, ok)
}

func TestMultiLevelDeleteAndClear(t *testing.T) {
	c, l2, l3 := newTestCache(t, 4)
	c.Set("a", 1, 0, true)
	c.Set("b", 2, 0, true)

	c.Delete("a")
	var v int
	require.False(t, c.Get("a", &v))
	_, ok := l3.Get(DefaultL3Prefix + "a")
	require.False(t, ok)

	c.Clear()
	require.False(t, c.Get("b", &v))
	require.Empty(t, l2.Keys())
	require.Empty(t, l3.Keys())
	st := c.Stats()
	require.Equal(t, 0, st.L1Count)
	require.Equal(t, 0, st.L2Count)
	require.Equal(t, 0, st.L3Count)
}

func TestMultiLevelQuotaDropNeverErrors(t *testing.T) {
	l2 := NewMemStore(256)
	l3 := NewMemStore(0)
	c, err := NewMultiLevel(Config{L1Capacity: 8, DefaultTTL: time.Minute}, l2, l3)
	require.NoError(t, err)

	// 先塞入一个很快过期的条目占住配额
	c.Set("old", "x", 20*time.Millisecond, false)
	time.Sleep(30 * time.Millisecond)

	big := make([]byte, 300)
	for i := range big {
		big[i] = 'a'
	}
	// 超配额写入：不报错、触发该层清扫，过期条目被顺手移除
	c.Set("big", string(big), time.Minute, false)
	_, ok := l2.Get(DefaultL2Prefix + "old")
	require.False(t, ok)

	// 一级仍然可读，调用方不感知下层丢写
	var v string
	require.True(t, c.Get("big", &v))
}

func TestMultiLevelStats(t *testing.T) {
	c, _, _ := newTestCache(t, 5)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, 0, i == 0)
	}
	st := c.Stats()
	require.Equal(t, 3, st.L1Count)
	require.Equal(t, 5, st.L1Capacity)
	require.Equal(t, 3, st.L2Count)
	require.Equal(t, 1, st.L3Count)
}

func TestEnvelopeValidity(t *testing.T) {
	now := time.Now()
	env := envelope{Data: json.RawMessage(`1`), Timestamp: now.UnixMilli() - 10, TTL: 100}
	require.True(t, env.valid(now))
	env.Timestamp = now.UnixMilli() - 200
	require.False(t, env.valid(now))
}
