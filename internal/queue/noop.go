package queue

import (
	"context"

	"github.com/rs/zerolog"
)

// NoopEnqueuer logs mail instead of queueing it. Used when redis is not configured.
type NoopEnqueuer struct {
	log zerolog.Logger
}

func NewNoopEnqueuer(log zerolog.Logger) *NoopEnqueuer {
	return &NoopEnqueuer{log: log}
}

func (q *NoopEnqueuer) EnqueueEmailVerification(ctx context.Context, email, name, verifyURL string) error {
	q.log.Debug().Str("email", email).Str("url", verifyURL).Msg("email verification not queued (no redis)")
	return nil
}

func (q *NoopEnqueuer) EnqueuePasswordReset(ctx context.Context, email, name, resetURL string) error {
	q.log.Debug().Str("email", email).Str("url", resetURL).Msg("password reset not queued (no redis)")
	return nil
}

var _ Mailer = (*NoopEnqueuer)(nil)
