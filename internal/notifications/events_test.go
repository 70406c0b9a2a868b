package notifications

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"riddlery/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	// Must not panic and must not block.
	n.PublishRiddleSubmitted(context.Background(), &models.Riddle{PublicID: "x"})
	n.PublishRiddleDecided(context.Background(), &models.Riddle{PublicID: "x"})
	require.NoError(t, n.StartSubscriber(context.Background(), func(string, string) {}))
}

func TestNotifier_PublishRiddleDecided(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	sub := rdb.PSubscribe(context.Background(), ModerationChannel, "notifications:user:*")
	defer func() { _ = sub.Close() }()
	ch := sub.Channel()

	n := NewNotifier(rdb)
	n.PublishRiddleDecided(context.Background(), &models.Riddle{
		PublicID:        "r-1",
		AuthorUserID:    42,
		Status:          models.RiddleStatusRejected,
		RejectionReason: "off topic",
	})

	channels := map[string]Event{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-ch:
			var ev Event
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
			channels[msg.Channel] = ev
		case <-time.After(testEventuallyTimeout):
			t.Fatalf("timed out waiting for message %d", i+1)
		}
	}

	require.Contains(t, channels, ModerationChannel)
	require.Contains(t, channels, "notifications:user:42")

	ev := channels[ModerationChannel]
	assert.Equal(t, EventRiddleDecided, ev.Type)
	assert.Equal(t, "r-1", ev.RiddlePublicID)
	assert.Equal(t, "rejected", ev.Status)
	assert.Equal(t, "off topic", ev.RejectionReason)
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	require.NoError(t, n.StartSubscriber(ctx, func(_, _ string) {
		atomic.AddInt32(&received, 1)
	}))

	n.PublishRiddleSubmitted(context.Background(), &models.Riddle{PublicID: "before", Status: models.RiddleStatusPending})
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 1
	}, testEventuallyTimeout, testPollInterval)

	cancel()
	time.Sleep(20 * time.Millisecond)
	before := atomic.LoadInt32(&received)

	n.PublishRiddleSubmitted(context.Background(), &models.Riddle{PublicID: "after", Status: models.RiddleStatusPending})
	assert.Never(t, func() bool {
		return atomic.LoadInt32(&received) > before
	}, 20*testPollInterval, testPollInterval)
}
