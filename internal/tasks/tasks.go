package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Outgoing mail produced by the sandbox API
	TypeSendMail = "mail:send"
)

// QueueMail is the queue mail tasks are enqueued on
const QueueMail = "default"

// MailPayload is the payload of a TypeSendMail task
type MailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Link    string `json:"link"`
	Token   string `json:"token"`
}

// NewSendMailTask creates a task that delivers one message
func NewSendMailTask(p MailPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeSendMail, payload, asynq.Queue(QueueMail), asynq.MaxRetry(5)), nil
}

// ParseMailPayload parses the payload of a TypeSendMail task
func ParseMailPayload(task *asynq.Task) (MailPayload, error) {
	var payload MailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.To == "" {
		return payload, fmt.Errorf("mail task without recipient")
	}
	return payload, nil
}
