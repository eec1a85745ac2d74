package bot

import (
	"context"
	"time"
)

func (b *Bot) withRecovery(handler func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}

// allowMessage enforces the per-user inbound rate limit. On a store error
// the message passes: limiting is a convenience, not a security boundary.
func (b *Bot) allowMessage(ctx context.Context, userID int64) bool {
	window := time.Duration(b.config.Bot.RateLimitWindow) * time.Second
	allowed, err := b.sessions.CheckRateLimit(ctx, userID, b.config.Bot.RateLimitMessages, window)
	if err != nil {
		b.logger.Warn().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
		return true
	}
	return allowed
}
