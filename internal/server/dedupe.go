package server

import (
	"context"
	"crypto/md5"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DedupeTTL is how long a delivered message is remembered.
const DedupeTTL = 24 * time.Hour

// Deduper remembers delivered messages so repeated requests do not mail the
// same reminder twice.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key, recipient string) error
}

// RedisDeduper stores message hashes in Redis with DedupeTTL.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper connects to addr. The connection is checked with a PING.
func NewRedisDeduper(ctx context.Context, addr string) (*RedisDeduper, error) {
	const op = "NewRedisDeduper"

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: failed to connect to redis at %s: %w", op, addr, err)
	}
	return &RedisDeduper{client: client, ttl: DedupeTTL}, nil
}

func (d *RedisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	_, err := d.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *RedisDeduper) Mark(ctx context.Context, key, recipient string) error {
	return d.client.Set(ctx, key, recipient, d.ttl).Err()
}

// Close releases the Redis connection.
func (d *RedisDeduper) Close() error {
	return d.client.Close()
}

// messageHash identifies a message by recipient, subject and body.
func messageHash(to, subject, body string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(to+"\x00"+subject+"\x00"+body)))
}
