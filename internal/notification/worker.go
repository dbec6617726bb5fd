package notification

import (
	"context"
	"errors"

	"github.com/superdoll/tracker-api/internal/queue"
	"go.uber.org/zap"
)

// DeliveryHandler sends queued jobs through sender. Jobs without a recipient
// are acknowledged and dropped since retrying cannot fix them.
func DeliveryHandler(sender Sender, logger *zap.Logger) queue.Handler {
	return func(ctx context.Context, job *queue.SMSJob) error {
		res, err := sender.Send(ctx, job.Phone, job.Message)
		if errors.Is(err, ErrMissingRecipient) {
			logger.Warn("dropping sms job without recipient", zap.String("reference", job.Reference))
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("sms delivered",
			zap.String("reference", job.Reference),
			zap.String("provider_ref", res.Info),
			zap.Duration("queued_for", timeSince(job)))
		return nil
	}
}
