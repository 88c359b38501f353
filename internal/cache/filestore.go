package cache

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"nyumbatz/internal/logger"
)

// 文档注释：文件目录键值存储
// 背景：默认的三级（持久级）后端，每个键一个文件，跨进程重启仍可读；
// 键经十六进制编码成文件名，规避分隔符与大小写敏感问题。
// 约束：单机单进程假设，不做文件锁；读写错误按未命中/配额处理，由上层降级。
type FileStore struct {
	mu  sync.Mutex
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

const fileStoreExt = ".kv"

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(key))+fileStoreExt)
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(key), []byte(value), 0o644); err != nil {
		logger.L().Debug("filestore_write_error", "key", key, "err", err)
		return err
	}
	return nil
}

func (s *FileStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = os.Remove(s.path(key))
}

func (s *FileStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileStoreExt) {
			continue
		}
		raw, err := hex.DecodeString(strings.TrimSuffix(name, fileStoreExt))
		if err != nil {
			continue
		}
		out = append(out, string(raw))
	}
	sort.Strings(out)
	return out
}
