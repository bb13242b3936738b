package main

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// redisPinger adapts the redis client's Ping to app.Pinger.
type redisPinger struct {
	ping func(ctx context.Context) *redis.StatusCmd
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.ping(ctx).Err()
}
