package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultTTL = 5 * time.Second

// Снимаем блокировку только если она всё ещё наша
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisClient подмножество redis.Cmdable, которое использует блокировка
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisSlotLocker короткая блокировка слота на время записи назначения.
// Сужает окно гонки между проверкой и записью; уникальный индекс в БД остаётся окончательной защитой
type RedisSlotLocker struct {
	rdb    RedisClient
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

func NewRedisSlotLocker(rdb RedisClient, ttl time.Duration, logger *zap.Logger) *RedisSlotLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSlotLocker{
		rdb:    rdb,
		ttl:    ttl,
		prefix: "scheduling:slot:",
		logger: logger,
	}
}

func (l *RedisSlotLocker) key(slot model.SlotKey) string {
	return fmt.Sprintf("%s%s:%s:%s", l.prefix, slot.MemberID, slot.Date, slot.Time)
}

// Acquire пытается занять слот. acquired=false значит, что слот сейчас назначает другой запрос
func (l *RedisSlotLocker) Acquire(ctx context.Context, slot model.SlotKey) (func(context.Context), bool, error) {
	key := l.key(slot)
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire slot lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) {
		if err := l.rdb.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warn("Failed to release slot lock",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return release, true, nil
}
