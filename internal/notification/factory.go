package notification

import (
	"errors"
	"strings"

	"github.com/superdoll/tracker-api/internal/config"
	"go.uber.org/zap"
)

const (
	ProviderAuto    = "auto"
	ProviderWebhook = "webhook"
	ProviderTwilio  = "twilio"
	ProviderQueue   = "queue"
	ProviderLog     = "log"
)

// NewSender picks the sender for cfg.Provider. publisher is only needed for
// the queue provider.
func NewSender(cfg *config.SMSConfig, publisher JobPublisher, logger *zap.Logger) (Sender, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderAuto
	}

	switch provider {
	case ProviderWebhook:
		if cfg.WebhookURL == "" {
			return nil, errors.New("sms webhook url is not set")
		}
		return NewWebhookSender(cfg.WebhookURL, cfg.TimeoutDuration()), nil
	case ProviderTwilio:
		if !twilioConfigured(cfg) {
			return nil, errors.New("twilio credentials are not set")
		}
		return NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom), nil
	case ProviderQueue:
		if publisher == nil {
			return nil, errors.New("queue sms provider needs a publisher")
		}
		return NewQueueSender(publisher), nil
	case ProviderLog:
		return NewLogSender(logger), nil
	case ProviderAuto:
		return NewDirectSender(cfg, logger), nil
	default:
		return nil, errors.New("unknown sms provider: " + cfg.Provider)
	}
}

// NewDirectSender prefers the webhook, then Twilio. With neither configured
// every send fails with ErrNoProvider.
func NewDirectSender(cfg *config.SMSConfig, logger *zap.Logger) Sender {
	switch {
	case cfg.WebhookURL != "":
		logger.Info("SMS provider: webhook")
		return NewWebhookSender(cfg.WebhookURL, cfg.TimeoutDuration())
	case twilioConfigured(cfg):
		logger.Info("SMS provider: twilio")
		return NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
	default:
		logger.Warn("No SMS provider configured")
		return unconfigured{}
	}
}

func twilioConfigured(cfg *config.SMSConfig) bool {
	return cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFrom != ""
}
