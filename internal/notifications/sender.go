package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/config"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
)

// ErrNotConfigured signals the email provider API key is missing.
var ErrNotConfigured = errors.New("email provider not configured")

// Email is one transactional message to a single recipient. Bulk sends loop
// over recipients; the provider is called once per address.
type Email struct {
	ToName  string
	ToEmail string
	Subject string
	Body    string
}

// Sender delivers transactional email through the provider's REST API.
// Transient provider failures are retried with exponential backoff.
type Sender struct {
	httpClient *http.Client
	cfg        config.EmailConfig
	logg       *logger.Logger
}

func NewSender(cfg config.EmailConfig, logg *logger.Logger) *Sender {
	return &Sender{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logg:       logg,
	}
}

// Configured reports whether a provider API key is present.
func (s *Sender) Configured() bool {
	return s != nil && s.cfg.APIKey != ""
}

type sendRequest struct {
	Sender      emailAddress   `json:"sender"`
	To          []emailAddress `json:"to"`
	Subject     string         `json:"subject"`
	TextContent string         `json:"textContent"`
}

type emailAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Send delivers one email, retrying transient failures. A 4xx response is
// terminal; network errors and 5xx responses back off and retry.
func (s *Sender) Send(ctx context.Context, email Email) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(email.ToEmail) == "" {
		return errors.New("recipient email is required")
	}
	if strings.TrimSpace(email.Subject) == "" || strings.TrimSpace(email.Body) == "" {
		return errors.New("subject and body are required")
	}

	backoff := retry.WithMaxRetries(uint64(s.cfg.MaxRetries), retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		return s.sendOnce(ctx, email)
	})
}

func (s *Sender) sendOnce(ctx context.Context, email Email) error {
	body, err := json.Marshal(sendRequest{
		Sender:      emailAddress{Name: s.cfg.SenderName, Email: s.cfg.SenderEmail},
		To:          []emailAddress{{Name: email.ToName, Email: email.ToEmail}},
		Subject:     email.Subject,
		TextContent: email.Body,
	})
	if err != nil {
		return fmt.Errorf("encoding email request: %w", err)
	}

	endpoint := strings.TrimSuffix(s.cfg.APIBaseURL, "/") + "/smtp/email"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.cfg.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("calling email provider: %w", err))
	}
	defer s.closeBody(ctx, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	sendErr := fmt.Errorf("email send failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return retry.RetryableError(sendErr)
	}
	return sendErr
}

func (s *Sender) closeBody(ctx context.Context, body io.Closer) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "closing email provider response body")
	}
}
