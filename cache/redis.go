package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"enquetes-backend/config"

	"github.com/redis/go-redis/v9"
)

// Connect 建立 Redis 连接。
// 配置了 REDIS_MOCK 或无法 ping 通时返回 ErrRedisNotAvailable，调用方改用内存存储。
func Connect(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisMock {
		log.Println("强制使用Redis模拟模式")
		return nil, ErrRedisNotAvailable
	}

	log.Printf("初始化Redis连接, 地址: %s", cfg.RedisAddr)

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 3 * time.Second,
		ReadTimeout: 3 * time.Second,
		PoolSize:    10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Redis连接失败: %v，将使用内存存储", err)
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisNotAvailable, err)
	}

	log.Println("Redis连接初始化成功")
	return client, nil
}

// Close 关闭Redis连接
func Close(client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Printf("关闭Redis连接错误: %v", err)
		return
	}
	log.Println("Redis连接已关闭")
}

// IsNil 判断是否为键不存在
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
