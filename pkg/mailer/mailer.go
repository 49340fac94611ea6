package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/config"
)

// Client posts event payloads to the email/webhook bridge. Delivery and
// retry are the bridge's responsibility; this side is fire-and-forget.
type Client struct {
	webhookURL string
	secret     string
	http       *http.Client
	logger     *zap.Logger
}

type eventRequest struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
	Secret  string                 `json:"secret,omitempty"`
}

func NewClient(cfg config.EmailConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if cfg.WebhookURL == "" {
		logger.Warn("email bridge disabled: webhook url not configured")
	}

	return &Client{
		webhookURL: cfg.WebhookURL,
		secret:     cfg.Secret,
		http:       &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SendEvent forwards one event to the bridge. The bridge authenticates with
// the configured shared secret; any secret field smuggled in through the
// payload is stripped before the request goes out.
func (c *Client) SendEvent(ctx context.Context, eventType string, payload map[string]interface{}) error {
	if c.webhookURL == "" {
		return nil
	}

	sanitized := make(map[string]interface{}, len(payload))
	for key, value := range payload {
		if key == "secret" {
			continue
		}
		sanitized[key] = value
	}

	body, err := json.Marshal(eventRequest{
		Type:    eventType,
		Payload: sanitized,
		Secret:  c.secret,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("email bridge returned status %d", resp.StatusCode)
	}

	c.logger.Debug("email event sent", zap.String("type", eventType))
	return nil
}
