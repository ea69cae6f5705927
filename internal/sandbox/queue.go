package sandbox

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/clickreserve/click/internal/tasks"
)

// Enqueuer is the part of *asynq.Client the queue mailer uses
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueMailer hands mail to the asynq worker
type QueueMailer struct {
	client Enqueuer
}

// NewQueueMailer creates a mailer that enqueues on client
func NewQueueMailer(client Enqueuer) *QueueMailer {
	return &QueueMailer{client: client}
}

func (m *QueueMailer) Send(ctx context.Context, mail Mail) error {
	task, err := tasks.NewSendMailTask(tasks.MailPayload{
		To:      mail.To,
		Subject: mail.Subject,
		Link:    mail.Link,
		Token:   mail.Token,
	})
	if err != nil {
		return err
	}
	if _, err := m.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue mail: %w", err)
	}
	return nil
}
