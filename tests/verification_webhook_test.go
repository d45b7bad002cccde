package tests

import (
	"net/http"
	"testing"
)

func TestWebhook(t *testing.T) {

	t.Run("InitiateVerification", func(t *testing.T) {

		// Act
		status, body := doJSON(t, http.MethodPost, "/api/webhook/n8n", map[string]string{
			"action":  "initiate_verification",
			"channel": "sms",
			"phone":   uniquePhone(),
		}, "")

		// Assert
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("webhook initiate failed: status=%d message=%q", status, errEnv.Message)
		}

		var data generateOTPData
		decodeSuccess(t, body, &data)
		if data.UserID == "" || !data.Queued {
			t.Fatalf("expected queued code via webhook, got %+v", data)
		}
	})

	t.Run("CheckStatus", func(t *testing.T) {

		// Arrange
		initiated := generateOTP(t, map[string]string{
			"channel": "sms",
			"phone":   uniquePhone(),
		})

		// Act
		status, body := doJSON(t, http.MethodPost, "/api/webhook/n8n", map[string]string{
			"action":  "check_verification_status",
			"user_id": initiated.UserID,
		}, "")

		// Assert
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("webhook status failed: status=%d message=%q", status, errEnv.Message)
		}

		var data struct {
			UserID        string `json:"user_id"`
			FullyVerified bool   `json:"fully_verified"`
		}
		decodeSuccess(t, body, &data)
		if data.UserID != initiated.UserID || data.FullyVerified {
			t.Fatalf("unexpected status payload %+v", data)
		}
	})

	t.Run("UnknownAction", func(t *testing.T) {

		// Act
		status, _ := doJSON(t, http.MethodPost, "/api/webhook/n8n", map[string]string{
			"action": "launch_missiles",
		}, "")

		// Assert
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown action, got %d", status)
		}
	})
}

func TestWebhookURL(t *testing.T) {

	// Act
	status, body := doJSON(t, http.MethodGet, "/api/webhook-url", nil, "")

	// Assert
	if status != http.StatusOK {
		t.Fatalf("webhook-url failed: status=%d", status)
	}

	var data struct {
		URL string `json:"url"`
	}
	decodeSuccess(t, body, &data)
	if data.URL == "" {
		t.Fatal("expected a configured webhook url")
	}
}
