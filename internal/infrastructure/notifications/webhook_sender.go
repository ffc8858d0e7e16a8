// Package notifications delivers booking notices to an external webhook.
// The receiving side (mail gateway, chat bridge) is someone else's problem;
// this package only guarantees the POST and reports the outcome.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/docpoint/docpoint-backend/internal/domain/providers"
	"github.com/docpoint/docpoint-backend/pkg/config"
	"github.com/docpoint/docpoint-backend/pkg/retry"
)

// WebhookSender sends notifications as JSON POSTs to a configured endpoint
type WebhookSender struct {
	webhookURL string
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewWebhookSender creates a new webhook sender
func NewWebhookSender(cfg *config.NotificationConfig) (*WebhookSender, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("NOTIFICATION_WEBHOOK_URL must be set")
	}

	return &WebhookSender{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryCfg: retry.DefaultConfig(),
	}, nil
}

// webhookMessage is the payload posted to the webhook
type webhookMessage struct {
	MessageID string `json:"message_id"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	SentAt    string `json:"sent_at"`
}

// Send delivers the message and returns its ID. Transient HTTP failures are
// retried with exponential backoff; a 4xx response is not retried.
func (w *WebhookSender) Send(ctx context.Context, recipient, subject, body string) (string, error) {
	message := webhookMessage{
		MessageID: uuid.New().String(),
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = retry.Do(ctx, w.retryCfg, func() error {
		return w.post(ctx, payload)
	})
	if err != nil {
		return "", err
	}

	return message.MessageID, nil
}

func (w *WebhookSender) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	httpErr := fmt.Errorf("webhook returned %d: %s", resp.StatusCode, respBody)

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return retry.Unrecoverable(httpErr)
	}
	return httpErr
}

var _ providers.NotificationSender = (*WebhookSender)(nil)
