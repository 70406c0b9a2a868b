package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix       = "user:%d"
	RiddleKeyPrefix     = "riddle:%s"
	RiddleListKeyPrefix = "riddles:approved:%d:%d"
	TeamKeyPrefix       = "team:%s"
)

const (
	UserTTL       = 5 * time.Minute
	RiddleTTL     = 30 * time.Minute
	RiddleListTTL = 2 * time.Minute
	TeamTTL       = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func RiddleKey(publicID string) string {
	return fmt.Sprintf(RiddleKeyPrefix, publicID)
}

func RiddleListKey(limit, offset int) string {
	return fmt.Sprintf(RiddleListKeyPrefix, limit, offset)
}

func TeamKey(slug string) string {
	return fmt.Sprintf(TeamKeyPrefix, slug)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateRiddle(ctx context.Context, publicID string) {
	Invalidate(ctx, RiddleKey(publicID))
}

func InvalidateTeam(ctx context.Context, slug string) {
	Invalidate(ctx, TeamKey(slug))
}

// InvalidateRiddleLists clears cached approved-riddle pages. The pattern scan
// is bounded because list keys only vary by pagination window.
func InvalidateRiddleLists(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "riddles:approved:*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}
