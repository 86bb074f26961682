package slotlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript удаляет ключ только если он принадлежит нам
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis распределенная advisory-блокировка (SET NX PX) для нескольких инстансов сервиса
// TTL защищает от вечной блокировки при падении держателя
type Redis struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
}

// NewRedis создает redis locker
func NewRedis(client *redis.Client, prefix string, ttl, retryDelay time.Duration) *Redis {
	return &Redis{
		client:     client,
		prefix:     prefix,
		ttl:        ttl,
		retryDelay: retryDelay,
	}
}

// Lock пытается взять блокировку, повторяя попытки до отмены контекста
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := r.prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, fullKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
		case <-time.After(r.retryDelay):
		}
	}

	return func() {
		// Освобождаем даже если исходный контекст уже отменен
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, r.client, []string{fullKey}, token).Err()
	}, nil
}
