package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Sender hands one job to a mail transport.
type Sender interface {
	Deliver(ctx context.Context, job EmailJob) error
}

// JSONPublisher is satisfied by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueSender publishes jobs to the broker; cmd/email_worker performs the delivery.
type QueueSender struct {
	Pub JSONPublisher
}

func (s QueueSender) Deliver(ctx context.Context, job EmailJob) error {
	return s.Pub.PublishJSON(ctx, job)
}

// LogSender only logs the job. Used when MAIL_SEND_ENABLED=false.
type LogSender struct {
	Logger *logrus.Logger
}

func (s LogSender) Deliver(_ context.Context, job EmailJob) error {
	s.Logger.WithFields(job.LogFields()).Info("email sending disabled; job dropped")
	return nil
}
