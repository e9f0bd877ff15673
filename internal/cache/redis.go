package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const clientName = "vetero"

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
// The caller owns the returned client and must Close it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.ClientName == "" {
		opts.ClientName = clientName
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}
