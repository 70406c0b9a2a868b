// Package notifications provides real-time notification delivery for the
// moderation pipeline.
package notifications

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"riddlery/internal/models"
	"riddlery/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Redis channels carrying moderation traffic. ModerationChannel is the
// firehose every connected reviewer sees; user channels carry decisions back
// to the submitting author.
const (
	ModerationChannel = "moderation:events"

	userChannelPrefix  = "notifications:user:"
	userChannelPattern = "notifications:user:*"
)

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Event is the wire format for moderation notifications.
type Event struct {
	Type            string    `json:"type"`
	RiddlePublicID  string    `json:"riddle_public_id"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

const (
	// EventRiddleSubmitted announces a new pending riddle to reviewers.
	EventRiddleSubmitted = "riddle_submitted"
	// EventRiddleDecided announces an approval or rejection.
	EventRiddleDecided = "riddle_decided"
)

// Notifier publishes moderation events into Redis channels. A nil Redis
// client turns every publish into a no-op so single-node deployments work
// without Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishRiddleSubmitted announces a newly submitted riddle on the moderation
// channel.
func (n *Notifier) PublishRiddleSubmitted(ctx context.Context, riddle *models.Riddle) {
	n.publish(ctx, ModerationChannel, Event{
		Type:           EventRiddleSubmitted,
		RiddlePublicID: riddle.PublicID,
		Status:         string(riddle.Status),
		OccurredAt:     time.Now().UTC(),
	})
}

// PublishRiddleDecided announces a decision on the moderation channel and on
// the submitting author's channel.
func (n *Notifier) PublishRiddleDecided(ctx context.Context, riddle *models.Riddle) {
	event := Event{
		Type:            EventRiddleDecided,
		RiddlePublicID:  riddle.PublicID,
		Status:          string(riddle.Status),
		RejectionReason: riddle.RejectionReason,
		OccurredAt:      time.Now().UTC(),
	}
	n.publish(ctx, ModerationChannel, event)
	n.publish(ctx, UserChannel(riddle.AuthorUserID), event)
}

func (n *Notifier) publish(ctx context.Context, channel string, event Event) {
	if n.rdb == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		observability.GlobalLogger.Error("marshal moderation event", "error", err)
		return
	}
	if err := n.rdb.Publish(ctx, channel, string(payload)).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("publish").Inc()
		observability.GlobalLogger.Error("publish moderation event",
			"channel", channel, "error", err)
	}
}

// StartSubscriber subscribes to the moderation channel and all user channels
// and calls onMessage for each incoming message. The goroutine exits when the
// context is canceled.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, ModerationChannel, userChannelPattern)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				onMessage(msg.Channel, msg.Payload)
			}
		}
	}()

	return nil
}
