// Package redis mirrors signal broadcasts into Redis so that gateways in
// other processes can fan them out, and caches the latest signal per key
// for cheap cold reads.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"marketpulse/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const latestTTL = 10 * time.Minute

// Config configures the publisher.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Publisher publishes signal payloads to per-pair pub/sub channels and
// keeps a latest:signal:* key per pair. Failures are logged, never
// propagated: the in-process gateway remains the primary push surface.
type Publisher struct {
	client *goredis.Client
}

// New creates a Publisher and pings the server.
func New(cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// Channel returns the pub/sub channel for a pair key.
func Channel(key string) string {
	return "pub:signal:" + key
}

func latestKey(key string) string {
	return "latest:signal:" + key
}

// BroadcastSignal mirrors one signal payload: SET latest key with TTL and
// PUBLISH on the pair channel, pipelined. Non-blocking from the caller's
// point of view beyond the pipelined round trip.
func (p *Publisher) BroadcastSignal(key string, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pipe := p.client.Pipeline()
	pipe.Set(ctx, latestKey(key), payload, latestTTL)
	pipe.Publish(ctx, Channel(key), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] publish %s: %v", key, err)
	}
}

// LatestSignal returns the cached latest signal payload for a pair, or nil
// when absent.
func (p *Publisher) LatestSignal(ctx context.Context, symbol string, tf model.Timeframe) []byte {
	data, err := p.client.Get(ctx, latestKey(model.CacheKey(symbol, tf))).Bytes()
	if err != nil {
		return nil
	}
	return data
}

// Ping reports backend health.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
