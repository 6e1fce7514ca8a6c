package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishScoresUpdated(context.Background(), ScoresUpdated{RaceWeekendID: 1}))
	assert.NoError(t, p.Close())
}

func TestNewRedisPublisher_BadURL(t *testing.T) {
	_, err := NewRedisPublisher(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}

// redisClient returns a client for a local Redis, skipping the test when
// none is running.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available: %v", err)
	}
	return client
}

func TestRedisPublisher_PublishScoresUpdated(t *testing.T) {
	client := redisClient(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, ScoresUpdatedChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p := NewPublisher(client)
	require.NoError(t, p.PublishScoresUpdated(ctx, ScoresUpdated{RaceWeekendID: 12, PredictionIDs: []int64{3, 4}}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var ev ScoresUpdated
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
	assert.Equal(t, int64(12), ev.RaceWeekendID)
	assert.Equal(t, []int64{3, 4}, ev.PredictionIDs)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.At.IsZero())
}
