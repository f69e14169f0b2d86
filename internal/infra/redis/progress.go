package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// ProgressTracker marks videos whose scene table was already produced, so a
// redelivered message can be skipped instead of recomputed. Segmentation is
// idempotent, so losing a marker only costs a recompute.
type ProgressTracker struct {
	client  *goredis.Client
	doneSet string
}

func NewProgressTracker(addr, doneSet string) (*ProgressTracker, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &ProgressTracker{client: client, doneSet: doneSet}, nil
}

func (p *ProgressTracker) IsDone(ctx context.Context, videoID string) (bool, error) {
	done, err := p.client.SIsMember(ctx, p.doneSet, videoID).Result()
	if err != nil {
		return false, fmt.Errorf("check done set: %w", err)
	}
	return done, nil
}

func (p *ProgressTracker) MarkDone(ctx context.Context, videoID string) error {
	if err := p.client.SAdd(ctx, p.doneSet, videoID).Err(); err != nil {
		return fmt.Errorf("add to done set: %w", err)
	}
	return nil
}

func (p *ProgressTracker) Close() error {
	return p.client.Close()
}
