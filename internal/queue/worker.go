package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Worker runs the asynq mail handlers. Messages are rendered and logged; no SMTP
// transport is wired.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
	log zerolog.Logger
}

// NewWorker creates an asynq server and registers handlers. Call Start to begin processing.
func NewWorker(redisOpt asynq.RedisClientOpt, log zerolog.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		LogLevel:    asynq.WarnLevel,
	})
	w := &Worker{srv: srv, mux: asynq.NewServeMux(), log: log}
	w.mux.HandleFunc(TypeSendEmailVerification, w.handleEmailVerification)
	w.mux.HandleFunc(TypeSendPasswordReset, w.handlePasswordReset)
	return w
}

func (w *Worker) handleEmailVerification(ctx context.Context, t *asynq.Task) error {
	return w.deliver(t, "Please verify your email",
		"Welcome to our app! We're very excited to have you on board.\nTo verify your email please open: %s")
}

func (w *Worker) handlePasswordReset(ctx context.Context, t *asynq.Task) error {
	return w.deliver(t, "Password reset request",
		"We got a request to reset the password of your account.\nTo reset your password open: %s")
}

func (w *Worker) deliver(t *asynq.Task, subject, bodyFormat string) error {
	var p mailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Str("type", t.Type()).Msg("mail task payload invalid")
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	w.log.Info().
		Str("to", p.Email).
		Str("name", p.Name).
		Str("subject", subject).
		Str("body", fmt.Sprintf(bodyFormat, p.URL)).
		Msg("mail delivered (log only)")
	return nil
}

// Start begins processing in the background.
func (w *Worker) Start() error {
	return w.srv.Start(w.mux)
}

// Shutdown stops the worker.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
