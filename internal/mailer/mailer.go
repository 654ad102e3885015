package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is an outbound email
type Message struct {
	To       []string
	Subject  string
	HTMLBody string
}

// Result reports the outcome of a send attempt
type Result struct {
	Success   bool
	MessageID string
	Error     string
}

// Mailer delivers email messages
type Mailer interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

// LogMailer writes messages to the log instead of delivering them.
// Used in development and when MAIL_ENABLED is false.
type LogMailer struct {
	From   string
	logger *zap.Logger
}

// NewLogMailer creates a mailer that logs instead of sending
func NewLogMailer(from string, logger *zap.Logger) *LogMailer {
	return &LogMailer{From: from, logger: logger}
}

// Send logs the message and returns a synthetic message ID
func (m *LogMailer) Send(ctx context.Context, msg Message) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return &Result{Success: false, Error: err.Error()}, err
	}
	if len(msg.To) == 0 {
		err := fmt.Errorf("message has no recipients")
		return &Result{Success: false, Error: err.Error()}, err
	}

	id := fmt.Sprintf("log-%s", uuid.New().String())
	m.logger.Info("Email sent (log mailer)",
		zap.String("from", m.From),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTMLBody)),
		zap.String("message_id", id),
		zap.Time("sent_at", time.Now()))

	return &Result{Success: true, MessageID: id}, nil
}
