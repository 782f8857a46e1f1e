package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dochub-service/internal/config"
)

// Mailer sends transactional HTML email. Callers treat delivery as
// fire-and-forget: a failure is logged and never rolls back the flow that
// triggered the send.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

type brevoRecipient struct {
	Email string `json:"email"`
}

type brevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type brevoPayload struct {
	Sender      brevoSender      `json:"sender"`
	To          []brevoRecipient `json:"to"`
	Subject     string           `json:"subject"`
	HTMLContent string           `json:"htmlContent"`
}

// BrevoMailer delivers mail through the Brevo transactional API.
type BrevoMailer struct {
	cfg    config.EmailConfig
	client *http.Client
	logger *zap.Logger
}

// NewBrevoMailer constructs the mailer.
func NewBrevoMailer(cfg config.EmailConfig, logger *zap.Logger) *BrevoMailer {
	return &BrevoMailer{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Send posts a single transactional message.
func (m *BrevoMailer) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	recipients := make([]brevoRecipient, 0, len(to))
	for _, addr := range to {
		recipients = append(recipients, brevoRecipient{Email: addr})
	}

	payload := brevoPayload{
		Sender:      brevoSender{Email: m.cfg.SenderEmail, Name: m.cfg.SenderName},
		To:          recipients,
		Subject:     subject,
		HTMLContent: htmlBody,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("brevo responded %d", resp.StatusCode)
	}

	var result struct {
		MessageID string `json:"messageId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("brevo response decode: %w", err)
	}
	if result.MessageID == "" {
		return fmt.Errorf("brevo accepted request without message id")
	}

	m.logger.Debug("email dispatched", zap.String("message_id", result.MessageID), zap.String("subject", subject))
	return nil
}
