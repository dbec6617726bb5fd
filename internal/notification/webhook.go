package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookSender posts {phone, message} as JSON to an automation webhook
type WebhookSender struct {
	url    string
	client *http.Client
}

func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{url: url, client: &http.Client{Timeout: timeout}}
}

type webhookPayload struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (s *WebhookSender) Send(ctx context.Context, phone, message string) (SendResult, error) {
	if err := checkRecipient(phone, message); err != nil {
		return failed(err)
	}

	body, err := json.Marshal(webhookPayload{Phone: phone, Message: message})
	if err != nil {
		return failed(fmt.Errorf("failed to encode webhook payload: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return failed(fmt.Errorf("failed to build webhook request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return failed(fmt.Errorf("webhook request failed: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failed(fmt.Errorf("webhook returned status %d", resp.StatusCode))
	}
	return SendResult{OK: true, Info: "webhook"}, nil
}
