package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"nyumbatz/internal/logger"
)

// 文档注释：Redis 键值存储
// 背景：三级缓存的部署可选后端，多实例共享同一份持久缓存；调用保持同步语义，
// 生命周期由信封里的 timestamp/ttl 统一管理，不使用 Redis 原生过期，保证各后端行为一致。
// 约束：枚举通过 SCAN 按命名空间前缀遍历，只应在低频清理路径调用；
// 网络错误一律按未命中/写失败处理，由上层降级，不向调用方传播。
type RedisStore struct {
	rc     *redis.Client
	prefix string
}

func NewRedisStore(rc *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rc: rc, prefix: prefix}
}

func (s *RedisStore) Get(key string) (string, bool) {
	v, err := s.rc.Get(context.Background(), s.prefix+key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (s *RedisStore) Set(key, value string) error {
	if err := s.rc.Set(context.Background(), s.prefix+key, value, 0).Err(); err != nil {
		logger.L().Debug("redisstore_write_error", "key", key, "err", err)
		return err
	}
	return nil
}

func (s *RedisStore) Remove(key string) {
	_ = s.rc.Del(context.Background(), s.prefix+key).Err()
}

func (s *RedisStore) Keys() []string {
	ctx := context.Background()
	var out []string
	iter := s.rc.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		logger.L().Debug("redisstore_scan_error", "err", err)
	}
	return out
}
