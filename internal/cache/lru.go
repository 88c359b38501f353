// 包 cache：进程内 LRU、键值存储抽象与三级读穿/写穿缓存
package cache

import (
	"container/list"
	"errors"
	"sync"
)

// 文档注释：定容 LRU 缓存
// 背景：map 提供 O(1) 定位，双向链表头部为最近使用端；命中即前移，写满时淘汰链表尾部。
// 约束：容量必须为正，非法容量在构造期失败；Has/Delete 不改变新近度，只有 Get/Set 会前移；
// 条目数在任意时刻不超过容量，超容写入先精确淘汰一条最久未用。
type LRU[K comparable, V any] struct {
	mu   sync.Mutex
	cap  int
	lst  *list.List
	dict map[K]*list.Element
}

type lruEntry[K comparable, V any] struct {
	k K
	v V
}

func NewLRU[K comparable, V any](capacity int) (*LRU[K, V], error) {
	if capacity <= 0 {
		return nil, errors.New("lru: capacity must be positive")
	}
	return &LRU[K, V]{
		cap:  capacity,
		lst:  list.New(),
		dict: make(map[K]*list.Element, capacity),
	}, nil
}

// Get: 命中返回值并刷新为最近使用；未命中返回零值与 false
func (c *LRU[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		c.lst.MoveToFront(e)
		return e.Value.(lruEntry[K, V]).v, true
	}
	var zero V
	return zero, false
}

// Set: 已存在则更新值并前移；不存在且已满则先淘汰链表尾部再插入到头部
func (c *LRU[K, V]) Set(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		e.Value = lruEntry[K, V]{k: k, v: v}
		c.lst.MoveToFront(e)
		return
	}
	if c.lst.Len() >= c.cap {
		back := c.lst.Back()
		if back != nil {
			delete(c.dict, back.Value.(lruEntry[K, V]).k)
			c.lst.Remove(back)
		}
	}
	c.dict[k] = c.lst.PushFront(lruEntry[K, V]{k: k, v: v})
}

func (c *LRU[K, V]) Has(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.dict[k]
	return ok
}

func (c *LRU[K, V]) Delete(k K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		c.lst.Remove(e)
		delete(c.dict, k)
	}
}

func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lst.Init()
	c.dict = make(map[K]*list.Element, c.cap)
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}

// Cap: 构造时的容量上限
func (c *LRU[K, V]) Cap() int { return c.cap }
