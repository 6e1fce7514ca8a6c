// Package events publishes score changes for downstream consumers such as
// a websocket gateway or a leaderboard cache.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

// ScoresUpdatedChannel is the Redis channel score events go to.
const ScoresUpdatedChannel = "scores-updated"

// ScoresUpdated announces that the scores of a race weekend were replaced.
type ScoresUpdated struct {
	ID            string    `json:"id"`
	RaceWeekendID int64     `json:"raceWeekendId"`
	PredictionIDs []int64   `json:"predictionIds"`
	At            time.Time `json:"at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishScoresUpdated(ctx context.Context, ev ScoresUpdated) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishScoresUpdated(context.Context, ScoresUpdated) error { return nil }
func (Nop) Close() error                                             { return nil }

type redisPublisher struct {
	client redis.UniversalClient
}

// NewRedisPublisher connects to redisURL and returns a Publisher writing
// JSON messages to ScoresUpdatedChannel.
func NewRedisPublisher(ctx context.Context, redisURL string) (Publisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.MaintNotificationsConfig = &maintnotifications.Config{
		Mode: maintnotifications.ModeDisabled,
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewPublisher(client), nil
}

// NewPublisher wraps an existing client.
func NewPublisher(client redis.UniversalClient) Publisher {
	return &redisPublisher{client: client}
}

func (p *redisPublisher) PublishScoresUpdated(ctx context.Context, ev ScoresUpdated) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, ScoresUpdatedChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ScoresUpdatedChannel, err)
	}
	return nil
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}
