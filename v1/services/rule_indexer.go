package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	sharedredis "github.com/codelens-platform/quality-server-go/shared/redis"
)

// RuleIndexer triggers reindexing of rules in the external search index.
// The consumer of the events is the search-indexing system, which is not
// part of this server.
type RuleIndexer interface {
	// IndexAll requests a full reindex of the rule index
	IndexAll(ctx context.Context) error
	// IndexKeys requests reindexing of specific rules
	IndexKeys(ctx context.Context, ruleIDs []string) error
}

// RedisRuleIndexer publishes reindex requests to a Redis stream
type RedisRuleIndexer struct {
	client *sharedredis.Client
	stream string
}

// NewRedisRuleIndexer creates an indexer publishing to the given stream
func NewRedisRuleIndexer(client *sharedredis.Client, stream string) *RedisRuleIndexer {
	if stream == "" {
		stream = "rule-index-events"
	}
	return &RedisRuleIndexer{client: client, stream: stream}
}

// IndexAll publishes a full-reindex event
func (i *RedisRuleIndexer) IndexAll(ctx context.Context) error {
	msgID, err := i.client.PublishEvent(ctx, i.stream, map[string]interface{}{
		"scope":       "all",
		"requestedAt": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	slog.Info("Requested full rule reindex", "stream", i.stream, "messageId", msgID)
	return nil
}

// IndexKeys publishes a reindex event for specific rules
func (i *RedisRuleIndexer) IndexKeys(ctx context.Context, ruleIDs []string) error {
	if len(ruleIDs) == 0 {
		return nil
	}
	msgID, err := i.client.PublishEvent(ctx, i.stream, map[string]interface{}{
		"scope":       "keys",
		"ruleIds":     strings.Join(ruleIDs, ","),
		"requestedAt": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	slog.Info("Requested rule reindex", "stream", i.stream, "count", len(ruleIDs), "messageId", msgID)
	return nil
}

// NoopRuleIndexer is used when no Redis endpoint is configured
type NoopRuleIndexer struct{}

// IndexAll logs and drops the request
func (NoopRuleIndexer) IndexAll(ctx context.Context) error {
	slog.Debug("Rule indexing disabled, dropping full reindex request")
	return nil
}

// IndexKeys logs and drops the request
func (NoopRuleIndexer) IndexKeys(ctx context.Context, ruleIDs []string) error {
	slog.Debug("Rule indexing disabled, dropping reindex request", "count", len(ruleIDs))
	return nil
}
