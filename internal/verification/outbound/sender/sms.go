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

// SMSConfig configures the ClickSend-style SMS gateway.
type SMSConfig struct {
	BaseURL  string
	Username string
	APIKey   string
	From     string
	Timeout  time.Duration
}

// SMS sends codes as text messages through a JSON REST gateway with basic
// auth, following the ClickSend v3 message envelope.
type SMS struct {
	cfg    SMSConfig
	client *http.Client
}

func NewSMS(cfg SMSConfig) *SMS {
	return &SMS{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

func (s *SMS) Send(ctx context.Context, destination, code string) error {
	payload := map[string]any{
		"messages": []map[string]any{{
			"source": "sdk",
			"from":   s.cfg.From,
			"to":     destination,
			"body":   fmt.Sprintf("Your verification code is %s. It expires shortly.", code),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v3/sms/send",
		bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.cfg.Username, s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, detail)
	}

	return nil
}
