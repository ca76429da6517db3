package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"enquetes-backend/cache"
)

const keyPrefix = "enquetes:sessao:"

// RedisStore 基于 Redis 的会话存储，会话数据为 JSON 字符串，已投票集合为 Redis Set
type RedisStore struct {
	client cache.RedisClient
}

// NewRedisStore 创建 Redis 会话存储
func NewRedisStore(client cache.RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

func dataKey(id string) string  { return keyPrefix + id }
func votedKey(id string) string { return keyPrefix + id + ":votos" }

// Load 读取会话
func (s *RedisStore) Load(ctx context.Context, id string) (*Data, error) {
	raw, err := s.client.Get(ctx, dataKey(id)).Result()
	if err != nil {
		if cache.IsNil(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("读取会话失败: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Printf("会话数据损坏, ID=%s: %v", id, err)
		return nil, ErrNoSession
	}
	data.ID = id
	return &data, nil
}

// Save 写入会话并刷新过期时间
func (s *RedisStore) Save(ctx context.Context, data *Data, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化会话失败: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, dataKey(data.ID), raw, ttl)
	pipe.Expire(ctx, votedKey(data.ID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("保存会话失败: %w", err)
	}
	return nil
}

// Destroy 删除会话和已投票集合
func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, dataKey(id), votedKey(id)).Err(); err != nil {
		return fmt.Errorf("删除会话失败: %w", err)
	}
	return nil
}

// MarkVoted SADD 返回1表示新加入
func (s *RedisStore) MarkVoted(ctx context.Context, id string, pollID uint, ttl time.Duration) (bool, error) {
	pipe := s.client.TxPipeline()
	added := pipe.SAdd(ctx, votedKey(id), member(pollID))
	pipe.Expire(ctx, votedKey(id), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("记录已投票失败: %w", err)
	}
	return added.Val() == 1, nil
}

// UnmarkVoted 投票写库失败时撤销标记
func (s *RedisStore) UnmarkVoted(ctx context.Context, id string, pollID uint) error {
	if err := s.client.SRem(ctx, votedKey(id), member(pollID)).Err(); err != nil {
		return fmt.Errorf("撤销已投票标记失败: %w", err)
	}
	return nil
}

// HasVoted 查询是否已投票
func (s *RedisStore) HasVoted(ctx context.Context, id string, pollID uint) (bool, error) {
	ok, err := s.client.SIsMember(ctx, votedKey(id), member(pollID)).Result()
	if err != nil {
		return false, fmt.Errorf("查询已投票失败: %w", err)
	}
	return ok, nil
}

// Ping 检查 Redis 是否可用
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Name() string { return "redis" }

func member(pollID uint) string {
	return strconv.FormatUint(uint64(pollID), 10)
}
