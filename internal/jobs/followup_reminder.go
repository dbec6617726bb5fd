package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/notification"
	"go.uber.org/zap"
)

const FollowUpReminderJobName = "followup_reminder"

// FollowUpSource lists open consultations due for a reminder on or before day
// and records the reminders that were sent
type FollowUpSource interface {
	DueFollowUps(ctx context.Context, day time.Time) ([]domain.Order, error)
	MarkFollowUpReminded(ctx context.Context, id uuid.UUID, at time.Time) error
}

// FollowUpReminderJob texts customers whose inquiry follow-up date has come
type FollowUpReminderJob struct {
	orders  FollowUpSource
	sender  notification.Sender
	signOff string
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

func NewFollowUpReminderJob(orders FollowUpSource, sender notification.Sender, signOff string, loc *time.Location, logger *zap.Logger) *FollowUpReminderJob {
	return &FollowUpReminderJob{
		orders:  orders,
		sender:  sender,
		signOff: signOff,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

func (j *FollowUpReminderJob) Name() string { return FollowUpReminderJobName }

// Run sends one reminder per due inquiry and marks it so later runs skip it
// until the follow-up date changes. Individual send failures are logged and
// retried on the next run; the run only fails when the due list cannot be loaded.
func (j *FollowUpReminderJob) Run(ctx context.Context) error {
	now := j.now().In(j.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, j.loc)

	due, err := j.orders.DueFollowUps(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to list due follow-ups: %w", err)
	}

	var sent, failed int
	for i := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		order := &due[i]
		if order.Customer == nil || order.Customer.Phone == "" {
			failed++
			continue
		}
		if _, err := j.sender.Send(ctx, order.Customer.Phone, FollowUpReminderMessage(order, j.signOff)); err != nil {
			failed++
			j.logger.Warn("follow-up reminder not sent",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
			continue
		}
		sent++
		if err := j.orders.MarkFollowUpReminded(ctx, order.ID, j.now().UTC()); err != nil {
			j.logger.Warn("follow-up reminder sent but not recorded",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
		}
	}

	j.logger.Info("follow-up reminders processed",
		zap.Int("due", len(due)),
		zap.Int("sent", sent),
		zap.Int("failed", failed))
	return nil
}

// FollowUpReminderMessage is the SMS text for a due inquiry
func FollowUpReminderMessage(order *domain.Order, signOff string) string {
	kind := string(order.InquiryType)
	if kind == "" {
		kind = "General"
	}
	name := ""
	if order.Customer != nil {
		name = order.Customer.FullName
	}
	return fmt.Sprintf("Hello %s, we are following up on your inquiry (%s), ref %s. Reply or call us and we will be glad to help. - %s",
		name, kind, order.OrderNumber, signOff)
}
