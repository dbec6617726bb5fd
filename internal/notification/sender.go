// Package notification delivers SMS messages to customers
package notification

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrMissingRecipient = errors.New("missing phone or message")
	ErrNoProvider       = errors.New("no sms provider configured")
)

// staff-facing text reported in SendResult.Info
var infoText = map[error]string{
	ErrMissingRecipient: "Missing phone or message",
	ErrNoProvider:       "No SMS provider configured. Set ZAPIER_SMS_WEBHOOK_URL or Twilio env vars.",
}

// SendResult describes a delivery attempt. Info is the provider reference on
// success and the failure reason otherwise.
type SendResult struct {
	OK   bool
	Info string
}

// Sender delivers one text message
type Sender interface {
	Send(ctx context.Context, phone, message string) (SendResult, error)
}

func checkRecipient(phone, message string) error {
	if strings.TrimSpace(phone) == "" || strings.TrimSpace(message) == "" {
		return ErrMissingRecipient
	}
	return nil
}

func failed(err error) (SendResult, error) {
	for target, text := range infoText {
		if errors.Is(err, target) {
			return SendResult{OK: false, Info: text}, err
		}
	}
	return SendResult{OK: false, Info: err.Error()}, err
}

// unconfigured is used when no provider has credentials
type unconfigured struct{}

func (unconfigured) Send(_ context.Context, phone, message string) (SendResult, error) {
	if err := checkRecipient(phone, message); err != nil {
		return failed(err)
	}
	return failed(ErrNoProvider)
}

// LogSender only writes the message to the log
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, phone, message string) (SendResult, error) {
	if err := checkRecipient(phone, message); err != nil {
		return failed(err)
	}
	s.logger.Info("SMS (log only)", zap.String("phone", phone), zap.String("message", message))
	return SendResult{OK: true, Info: "logged"}, nil
}
