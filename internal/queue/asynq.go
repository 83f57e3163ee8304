package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TaskEnqueuer pushes mail tasks to redis through an asynq client.
type TaskEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log zerolog.Logger) *TaskEnqueuer {
	return &TaskEnqueuer{client: asynq.NewClient(redisOpt), log: log}
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

func (q *TaskEnqueuer) EnqueueEmailVerification(ctx context.Context, email, name, verifyURL string) error {
	return q.enqueue(ctx, TypeSendEmailVerification, mailPayload{Email: email, Name: name, URL: verifyURL})
}

func (q *TaskEnqueuer) EnqueuePasswordReset(ctx context.Context, email, name, resetURL string) error {
	return q.enqueue(ctx, TypeSendPasswordReset, mailPayload{Email: email, Name: name, URL: resetURL})
}

func (q *TaskEnqueuer) enqueue(ctx context.Context, taskType string, p mailPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, asynq.NewTask(taskType, payload), asynq.MaxRetry(5)); err != nil {
		q.log.Warn().Err(err).Str("type", taskType).Str("email", p.Email).Msg("enqueue email failed")
		return err
	}
	return nil
}

var _ Mailer = (*TaskEnqueuer)(nil)
