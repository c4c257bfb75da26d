package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// JoinLimiter caps failed password attempts per (user, quiz) within a
// sliding window so quiz passwords cannot be brute forced.
type JoinLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewJoinLimiter(client *redis.Client, limit int, window time.Duration) *JoinLimiter {
	return &JoinLimiter{client: client, limit: limit, window: window}
}

func (l *JoinLimiter) enabled() bool {
	return l != nil && l.client != nil && l.limit > 0
}

// Allow fails with a TooManyRequests error once the attempt budget is spent.
func (l *JoinLimiter) Allow(ctx context.Context, userID, quizID uint) error {
	if !l.enabled() {
		return nil
	}
	count, err := l.client.Get(ctx, l.key(userID, quizID)).Int()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Uint("quiz_id", quizID).Msg("join limiter unavailable")
		return NewUnavailableError("quiz joining is temporarily unavailable")
	}
	if count >= l.limit {
		return NewTooManyRequestsError("too many failed attempts, try again later")
	}
	return nil
}

// Fail records one failed attempt.
func (l *JoinLimiter) Fail(ctx context.Context, userID, quizID uint) {
	if !l.enabled() {
		return
	}
	key := l.key(userID, quizID)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to record join attempt")
	}
}

// Reset clears the counter after a successful join.
func (l *JoinLimiter) Reset(ctx context.Context, userID, quizID uint) {
	if !l.enabled() {
		return
	}
	if err := l.client.Del(ctx, l.key(userID, quizID)).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to reset join attempts")
	}
}

func (l *JoinLimiter) key(userID, quizID uint) string {
	return fmt.Sprintf("quiz:join-attempts:%d:%d", quizID, userID)
}
