package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisConfigKey = "auditafolha:router:config"
	redisConfigTTL = 10 * time.Minute
)

// RedisCache shares the routing table across instances. Entries expire so a
// missed invalidation heals on its own.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context) (map[string]Config, bool, error) {
	payload, err := c.client.Get(ctx, redisConfigKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ler configuração do roteador no redis: %w", err)
	}

	var configs map[string]Config
	if err := json.Unmarshal(payload, &configs); err != nil {
		return nil, false, fmt.Errorf("decodificar configuração do roteador: %w", err)
	}
	return configs, true, nil
}

func (c *RedisCache) Set(ctx context.Context, configs map[string]Config) error {
	payload, err := json.Marshal(configs)
	if err != nil {
		return fmt.Errorf("codificar configuração do roteador: %w", err)
	}
	if err := c.client.Set(ctx, redisConfigKey, payload, redisConfigTTL).Err(); err != nil {
		return fmt.Errorf("gravar configuração do roteador no redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, redisConfigKey).Err(); err != nil {
		return fmt.Errorf("invalidar configuração do roteador no redis: %w", err)
	}
	return nil
}
