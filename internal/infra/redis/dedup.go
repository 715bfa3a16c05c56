// File: internal/infra/redis/dedup.go
package redis

import (
	"context"
	"time"
)

// EventDeduper claims webhook event ids with SETNX so redelivered events are
// acknowledged without reprocessing. Claims expire after ttl; a failed event
// releases its claim so the provider's retry can be processed.
type EventDeduper struct {
	cli RedisClient
	ttl time.Duration
}

func NewEventDeduper(cli RedisClient, ttl time.Duration) *EventDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EventDeduper{cli: cli, ttl: ttl}
}

func (d *EventDeduper) key(eventID string) string { return "billing:event:" + eventID }

// Claim returns true when this delivery is the first one seen for eventID.
func (d *EventDeduper) Claim(ctx context.Context, eventID string) (bool, error) {
	return d.cli.SetNX(ctx, d.key(eventID), 1, d.ttl)
}

func (d *EventDeduper) Release(ctx context.Context, eventID string) error {
	return d.cli.Del(ctx, d.key(eventID))
}
