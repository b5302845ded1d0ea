package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mes-admin/identity-service/internal/models"
)

// UserCache — read-through кэш профилей пользователей по бизнес-коду.
// Используется в RefreshTokenPair, чтобы не ходить в БД на каждое
// обновление токенов. Хэш пароля в кэш не попадает.
type UserCache interface {
	// Get возвращает профиль и признак его наличия в кэше.
	Get(ctx context.Context, code string) (*models.User, bool, error)
	// Set сохраняет профиль с TTL.
	Set(ctx context.Context, user *models.User, ttl time.Duration) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "identity:user:".
func NewRedisCache(redisURL, prefix string) (UserCache, error) {
	if prefix == "" {
		prefix = "identity:user:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(code string) string { return c.prefix + code }

// Храним как Redis Hash с полями: id, code, username, email, phone.
func (c *redisCache) Get(ctx context.Context, code string) (*models.User, bool, error) {
	m, err := c.rdb.HGetAll(ctx, c.key(code)).Result()
	if err != nil {
		return nil, false, err
	}

	if len(m) == 0 {
		return nil, false, nil
	}

	id, err := uuid.Parse(m["id"])
	if err != nil {
		return nil, false, err
	}

	return &models.User{
		ID:       id,
		Code:     m["code"],
		Username: m["username"],
		Email:    m["email"],
		Phone:    m["phone"],
	}, true, nil
}

func (c *redisCache) Set(ctx context.Context, user *models.User, ttl time.Duration) error {
	kv := map[string]string{
		"id":       user.ID.String(),
		"code":     user.Code,
		"username": user.Username,
		"email":    user.Email,
		"phone":    user.Phone,
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, c.key(user.Code), kv)
	pipe.Expire(ctx, c.key(user.Code), ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) Close() error { return c.rdb.Close() }
