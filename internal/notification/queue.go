package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/superdoll/tracker-api/internal/queue"
)

// JobPublisher enqueues SMS jobs for the worker
type JobPublisher interface {
	Publish(ctx context.Context, job *queue.SMSJob) error
}

// QueueSender hands messages to the SMS worker instead of sending inline.
// A successful result means the job was queued, not delivered.
type QueueSender struct {
	publisher JobPublisher
	now       func() time.Time
}

func NewQueueSender(publisher JobPublisher) *QueueSender {
	return &QueueSender{publisher: publisher, now: time.Now}
}

func (s *QueueSender) Send(ctx context.Context, phone, message string) (SendResult, error) {
	if err := checkRecipient(phone, message); err != nil {
		return failed(err)
	}
	job := &queue.SMSJob{Phone: phone, Message: message, QueuedAt: s.now().UTC()}
	if err := s.publisher.Publish(ctx, job); err != nil {
		return failed(fmt.Errorf("failed to queue sms: %w", err))
	}
	return SendResult{OK: true, Info: "queued"}, nil
}

// timeSince reports how long a job waited in the queue
func timeSince(job *queue.SMSJob) time.Duration {
	if job.QueuedAt.IsZero() {
		return 0
	}
	return time.Since(job.QueuedAt)
}
