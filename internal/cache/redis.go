// Package cache 提供 Redis 缓存操作的封装
// 存放人工接管的快速判断标记和客服在线状态等需要快速访问的数据
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"product-chatbot-server/internal/config"
)

// RedisCache 封装 Redis 客户端，提供业务相关的缓存操作
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建 RedisCache 实例
// 参数:
//   - cfg: 应用配置（包含 Redis 连接信息）
//
// 返回:
//   - *RedisCache: 缓存实例
//   - error: 连接错误
func NewRedisCache(cfg *config.Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close 关闭 Redis 连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// ==================== 人工接管快速判断 ====================
// 激活的接管标记同时写一份到 Redis，聊天热路径先查缓存，
// 未命中再回落数据库。数据库始终是权威来源，缓存只是加速

// handoffKey 接管标记的缓存 Key
func handoffKey(sessionID string) string {
	return fmt.Sprintf("handoff:active:%s", sessionID)
}

// MarkHandoffActive 标记会话已被人工接管
// 设置 24 小时过期，避免会话被淘汰后残留
func (c *RedisCache) MarkHandoffActive(ctx context.Context, sessionID string) error {
	return c.client.Set(ctx, handoffKey(sessionID), 1, 24*time.Hour).Err()
}

// ClearHandoffActive 清除会话的接管标记
// 标记关闭或会话被淘汰时调用
func (c *RedisCache) ClearHandoffActive(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, handoffKey(sessionID)).Err()
}

// IsHandoffActive 查询会话是否处于人工接管状态
// 返回:
//   - bool: 缓存中是否存在激活标记
//   - error: Redis 操作错误（调用方应回落数据库）
func (c *RedisCache) IsHandoffActive(ctx context.Context, sessionID string) (bool, error) {
	n, err := c.client.Exists(ctx, handoffKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ==================== 客服在线状态 ====================
// 支持面板通过 WebSocket 连接时记录在线客服，用 Set 存储

// SetAgentOnline 标记客服在线
func (c *RedisCache) SetAgentOnline(ctx context.Context, agentID int64) error {
	return c.client.SAdd(ctx, "online:agents", agentID).Err()
}

// SetAgentOffline 标记客服离线
func (c *RedisCache) SetAgentOffline(ctx context.Context, agentID int64) error {
	return c.client.SRem(ctx, "online:agents", agentID).Err()
}

// CountOnlineAgents 统计在线客服数量
func (c *RedisCache) CountOnlineAgents(ctx context.Context) (int64, error) {
	return c.client.SCard(ctx, "online:agents").Result()
}
