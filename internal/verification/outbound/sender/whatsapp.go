package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WhatsAppConfig configures the WhatsApp Business Cloud API client.
type WhatsAppConfig struct {
	BaseURL       string
	Token         string
	PhoneNumberID string
	Timeout       time.Duration
}

// WhatsApp sends codes through the Graph messages endpoint with bearer auth.
type WhatsApp struct {
	cfg    WhatsAppConfig
	client *http.Client
}

func NewWhatsApp(cfg WhatsAppConfig) *WhatsApp {
	return &WhatsApp{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

func (w *WhatsApp) Send(ctx context.Context, destination, code string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                destination,
		"type":              "text",
		"text": map[string]any{
			"body": fmt.Sprintf("Your verification code is %s. It expires shortly.", code),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", w.cfg.BaseURL, w.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.cfg.Token)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, detail)
	}

	return nil
}
