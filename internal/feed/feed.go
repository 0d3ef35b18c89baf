// Package feed appends created notes to a Redis stream so other processes
// can follow new notes without polling the database.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rhettg/noteapi/internal/notes"
)

const StreamName = "noteapi:notes"

// PublishTimeout bounds one XADD so a stalled Redis cannot hold up the
// create response it follows.
const PublishTimeout = 100 * time.Millisecond

// Feed publishes notes to Redis. A Feed with a nil client is a no-op.
type Feed struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Feed {
	return &Feed{rdb: rdb}
}

// Connect returns a Feed for the Redis server at addr. If Redis cannot be
// reached the returned Feed is disabled rather than failing startup.
func Connect(ctx context.Context, addr string) *Feed {
	if addr == "" {
		return New(nil)
	}

	slog.Info("configuring redis", "url", addr)
	rdb := NewClient(addr)

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("failed connecting to redis, note feed disabled", "error", err)
		rdb.Close()
		return New(nil)
	}

	slog.Info("redis connected")
	return New(rdb)
}

// NewClient returns a Redis client whose socket timeouts follow the
// caller's context and never exceed PublishTimeout.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:                  addr,
		DialTimeout:           PublishTimeout,
		ReadTimeout:           PublishTimeout,
		WriteTimeout:          PublishTimeout,
		ContextTimeoutEnabled: true,
		MaxRetries:            -1,
	})
}

func (f *Feed) Enabled() bool {
	return f != nil && f.rdb != nil
}

// Publish appends n to the stream and returns the stream entry ID. It gives
// up after PublishTimeout and ignores cancellation of ctx, since the note
// it reports on is already committed.
func (f *Feed) Publish(ctx context.Context, n notes.Note) (string, error) {
	if !f.Enabled() {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()

	id, err := f.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		Values: map[string]interface{}{
			"id":      n.ID,
			"title":   n.Title,
			"content": n.Content,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to stream note: %w", err)
	}

	slog.Debug("streamed note", "stream", StreamName, "id", id, "note_id", n.ID)
	return id, nil
}

func (f *Feed) Close() error {
	if !f.Enabled() {
		return nil
	}
	return f.rdb.Close()
}
