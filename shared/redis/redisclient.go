// Package redis wraps the go-redis client for stream publication.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds all configuration for the Redis client
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client is a wrapper around the go-redis client.
// It provides the stream-publishing methods the quality server needs.
type Client struct {
	client *redis.Client
	config *Config
}

// NewClient creates and connects a new Client.
func NewClient(cfg *Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		client: rdb,
		config: cfg,
	}, nil
}

// Close gracefully closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying go-redis client if needed.
func (c *Client) GetClient() *redis.Client {
	return c.client
}

// PublishEvent adds an event to a stream using XADD.
// Using '*' as the ID tells Redis to auto-generate a timestamp-based ID.
func (c *Client) PublishEvent(ctx context.Context, streamName string, data map[string]interface{}) (string, error) {
	args := &redis.XAddArgs{
		Stream: streamName,
		Values: data,
	}

	msgID, err := c.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("failed to XADD to stream %s: %w", streamName, err)
	}
	return msgID, nil
}
