package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SMSJob is one outbound text message
type SMSJob struct {
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	Reference string    `json:"reference,omitempty"`
	QueuedAt  time.Time `json:"queued_at"`
}

func (j *SMSJob) Validate() error {
	if strings.TrimSpace(j.Phone) == "" || strings.TrimSpace(j.Message) == "" {
		return errors.New("sms job needs a phone and a message")
	}
	return nil
}

func encodeJob(job *SMSJob) ([]byte, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sms job: %w", err)
	}
	return body, nil
}

func decodeJob(body []byte) (*SMSJob, error) {
	var job SMSJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sms job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}
