package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// VoiceConfig configures the outbound-call provider.
type VoiceConfig struct {
	BaseURL     string
	Token       string
	AssistantID string
	PhoneID     string
	Timeout     time.Duration
}

// Voice reads codes over an automated phone call via a Vapi-style calling
// API with bearer auth.
type Voice struct {
	cfg    VoiceConfig
	client *http.Client
}

func NewVoice(cfg VoiceConfig) *Voice {
	return &Voice{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

// spellOut spaces the digits so text-to-speech reads them one by one.
func spellOut(code string) string {
	return strings.Join(strings.Split(code, ""), " ")
}

func (v *Voice) Send(ctx context.Context, destination, code string) error {
	payload := map[string]any{
		"assistantId":   v.cfg.AssistantID,
		"phoneNumberId": v.cfg.PhoneID,
		"customer":      map[string]any{"number": destination},
		"assistantOverrides": map[string]any{
			"firstMessage": fmt.Sprintf("Your verification code is %s. "+
				"I repeat, %s.", spellOut(code), spellOut(code)),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.BaseURL+"/call",
		bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.cfg.Token)

	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return fmt.Errorf("voice provider returned %d: %s", resp.StatusCode, detail)
	}

	return nil
}
