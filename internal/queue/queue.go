// Package queue delivers account mail through asynq. Delivery is fire-and-forget:
// enqueue failures are logged and never fail the calling request.
package queue

import (
	"context"
)

const (
	TypeSendEmailVerification = "email:email_verification"
	TypeSendPasswordReset     = "email:password_reset"
)

// Mailer is the mail collaborator used by the user services.
type Mailer interface {
	EnqueueEmailVerification(ctx context.Context, email, name, verifyURL string) error
	EnqueuePasswordReset(ctx context.Context, email, name, resetURL string) error
}

type mailPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}
