package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IgesAI/AMautomation/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrDisabled = errors.New("cache is disabled")
	ErrMiss     = errors.New("key not found in cache")
)

// 自分が取ったロックだけ消す
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCache はダッシュボード集計のキャッシュとスイープ用ロックを提供する。
// 無効時は何もしない（Get は ErrDisabled、TryLock は常に取得成功）。
type RedisCache struct {
	client  *redis.Client
	enabled bool
	log     logrus.FieldLogger
}

func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false, log: logrus.StandardLogger()}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return NewRedisCacheFromClient(client), nil
}

func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, enabled: true, log: logrus.StandardLogger()}
}

// WithLogger はロック解放失敗などの出力先を差し替える
func (c *RedisCache) WithLogger(log logrus.FieldLogger) *RedisCache {
	c.log = log
	return c
}

func (c *RedisCache) Enabled() bool {
	return c.enabled
}

// Get はJSONで保存した値を value に読み込む
func (c *RedisCache) Get(ctx context.Context, key string, value interface{}) error {
	if !c.enabled {
		return ErrDisabled
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrMiss
		}
		return errors.Wrap(err, "failed to get value from Redis")
	}

	if err := json.Unmarshal(data, value); err != nil {
		return errors.Wrap(err, "failed to unmarshal cached value")
	}
	return nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for caching")
	}

	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return errors.Wrap(err, "failed to set value in Redis")
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "failed to delete keys from Redis")
	}
	return nil
}

// TryLock は SET NX でロックを取る。取れなければ ok=false。
func (c *RedisCache) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if !c.enabled {
		return func() {}, true, nil
	}

	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to acquire lock")
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// 呼び出し元のctxが切れていても解放する
		uctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := unlockScript.Run(uctx, c.client, []string{key}, token).Err(); err != nil {
			// 解放できなくても TTL で消える
			c.log.WithError(err).WithField("key", key).Warn("failed to release lock")
		}
	}
	return unlock, true, nil
}

func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}
	return c.client.Close()
}
