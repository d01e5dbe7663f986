// Package cache implements the public page cache on top of redis, with a
// map-backed variant for tests and local development.
package cache

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/kifolio/backend/core"
	"github.com/kifolio/backend/core/portfolio"
)

const publicPageKeyPrefix = "kifolio:public-page:"

type redisCache struct {
	client *redis.Client
	conf   *core.Config
}

var _ portfolio.Cache = (*redisCache)(nil) // interface compliance check

func NewRedisCache(conf *core.Config) (*redisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &redisCache{client: client, conf: conf}, nil
}

func (c *redisCache) GetPublicPage(ctx context.Context, slug string) ([]byte, error) {
	val, err := c.client.Get(ctx, publicPageKeyPrefix+slug).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, portfolio.ErrCacheMiss
		}
		return nil, errors.Wrap(err, "getting public page from cache")
	}
	return val, nil
}

func (c *redisCache) SetPublicPage(ctx context.Context, slug string, payload []byte) error {
	err := c.client.Set(ctx, publicPageKeyPrefix+slug, payload, c.conf.Redis.PublicPageTTL).Err()
	return errors.Wrap(err, "setting public page in cache")
}

func (c *redisCache) DeletePublicPage(ctx context.Context, slug string) error {
	err := c.client.Del(ctx, publicPageKeyPrefix+slug).Err()
	return errors.Wrap(err, "deleting public page from cache")
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
