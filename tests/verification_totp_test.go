package tests

import (
	"net/http"
	"strings"
	"testing"
)

func TestTOTPLifecycle(t *testing.T) {

	// Arrange
	data := generateOTP(t, map[string]string{
		"channel": "email",
		"email":   uniqueEmail("totp-user"),
	})

	t.Run("Setup", func(t *testing.T) {

		// Act
		setup := setupTOTP(t, data.UserID)

		// Assert
		if !strings.HasPrefix(setup.ProvisioningURI, "otpauth://totp/") {
			t.Fatalf("unexpected provisioning uri %q", setup.ProvisioningURI)
		}

		// Repeat setup returns the same secret until enabled.
		again := setupTOTP(t, data.UserID)
		if again.Secret != setup.Secret {
			t.Fatal("expected repeated setup to keep the secret")
		}
	})

	t.Run("EnableWithWrongCode", func(t *testing.T) {

		// Act
		status, _ := doJSON(t, http.MethodPost, "/api/totp/enable", map[string]string{
			"user_id": data.UserID,
			"code":    "000000",
		}, "")

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected 401 for wrong code, got %d", status)
		}
	})

	t.Run("EnableThenDisable", func(t *testing.T) {

		// Arrange
		setup := setupTOTP(t, data.UserID)
		enableTOTP(t, data.UserID, setup.Secret)

		// Act
		status, body := doJSON(t, http.MethodPost, "/api/totp/disable", map[string]string{
			"user_id": data.UserID,
			"code":    totpCode(t, setup.Secret),
		}, "")

		// Assert
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("totp disable failed: status=%d message=%q", status, errEnv.Message)
		}

		// The enrollment is gone, so disabling again is rejected.
		status, _ = doJSON(t, http.MethodPost, "/api/totp/disable", map[string]string{
			"user_id": data.UserID,
			"code":    totpCode(t, setup.Secret),
		}, "")
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400 after enrollment cleared, got %d", status)
		}
	})
}
