package workers

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/clickreserve/click/internal/sandbox"
	"github.com/clickreserve/click/internal/tasks"
)

// HandleSendMail delivers one queued message through mailer
func HandleSendMail(ctx context.Context, t *asynq.Task, mailer sandbox.Mailer, logger zerolog.Logger) error {
	payload, err := tasks.ParseMailPayload(t)
	if err != nil {
		// A malformed payload never becomes valid, so do not retry it
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	logger.Debug().Str("to", payload.To).Str("subject", payload.Subject).Msg("Delivering queued mail")

	err = mailer.Send(ctx, sandbox.Mail{
		To:      payload.To,
		Subject: payload.Subject,
		Link:    payload.Link,
		Token:   payload.Token,
	})
	if err != nil {
		return fmt.Errorf("failed to deliver mail to %s: %w", payload.To, err)
	}
	return nil
}

// NewMux registers every task handler
func NewMux(mailer sandbox.Mailer, logger zerolog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendMail, func(ctx context.Context, t *asynq.Task) error {
		return HandleSendMail(ctx, t, mailer, logger)
	})
	return mux
}
