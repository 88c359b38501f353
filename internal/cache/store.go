package cache

import (
	"errors"
	"sort"
	"sync"
)

// 文档注释：二三级缓存的键值存储契约
// 背景：把“会话级/持久级存储”收敛成四个操作（读、写、删、枚举键），
// 任何满足契约的后端（内存、文件目录、Redis）都可以直接替换，不触碰多级缓存逻辑。
// 约束：Set 允许返回容量类错误（如配额耗尽），由上层捕获并降级；其余操作不报错。
type KVStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string)
	Keys() []string
}

// ErrQuotaExceeded: 写入超出后端容量配额
var ErrQuotaExceeded = errors.New("cache: store quota exceeded")

// 文档注释：内存键值存储
// 背景：默认的二级（会话级）后端，进程退出即失效；可选字节配额用来模拟浏览器
// sessionStorage 的容量上限，使配额降级路径可测试。
// 约束：配额按键值字节和粗略计量；0 表示不限额。
type MemStore struct {
	mu       sync.Mutex
	data     map[string]string
	maxBytes int
	used     int
}

func NewMemStore(maxBytes int) *MemStore {
	return &MemStore{data: make(map[string]string), maxBytes: maxBytes}
}

func (s *MemStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.used + len(key) + len(value)
	if old, ok := s.data[key]; ok {
		next -= len(key) + len(old)
	}
	if s.maxBytes > 0 && next > s.maxBytes {
		return ErrQuotaExceeded
	}
	if old, ok := s.data[key]; ok {
		s.used -= len(key) + len(old)
	}
	s.data[key] = value
	s.used += len(key) + len(value)
	return nil
}

func (s *MemStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.data[key]; ok {
		s.used -= len(key) + len(old)
		delete(s.data, key)
	}
}

func (s *MemStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
