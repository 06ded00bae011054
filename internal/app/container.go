package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/demand_scheduler/internal/config"
	"github.com/Freeeeeet/demand_scheduler/internal/lock"
	"github.com/Freeeeeet/demand_scheduler/internal/repository"
	"github.com/Freeeeeet/demand_scheduler/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container собирает репозитории и сервисы поверх одного пула
type Container struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client

	Members *repository.MemberRepository
	Demands *repository.DemandRepository

	Validator    *service.SchedulingValidator
	Assignment   *service.AssignmentService
	Availability *service.AvailabilityService
	Integrity    *service.IntegrityService
}

// NewContainer подключается к БД (и к Redis, если он настроен) и создаёт сервисы
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c := &Container{
		Pool:    pool,
		Members: repository.NewMemberRepository(pool),
		Demands: repository.NewDemandRepository(pool),
	}

	var locker service.SlotLocker
	if cfg.RedisAddr != "" {
		c.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			// Без Redis назначение всё равно защищено уникальным индексом
			logger.Warn("Redis unavailable, slot locking disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = c.Redis.Close()
			c.Redis = nil
		} else {
			locker = lock.NewRedisSlotLocker(c.Redis, cfg.LockTTL, logger)
		}
	}

	c.Validator = service.NewSchedulingValidator(c.Demands, cfg.Policy)
	c.Assignment = service.NewAssignmentService(c.Members, c.Demands, c.Demands, c.Validator, locker, logger)
	c.Availability = service.NewAvailabilityService(c.Members, c.Demands, cfg.Policy, logger)
	c.Integrity = service.NewIntegrityService(c.Demands, cfg.Policy, logger)

	logger.Info("Container initialized",
		zap.Bool("slot_locking", locker != nil),
		zap.Strings("releasing_statuses", cfg.Policy.Releasing()),
	)

	return c, nil
}

func (c *Container) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	c.Pool.Close()
}
