package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	libotp "github.com/pquerna/otp"
	"github.com/shandysiswandi/goverify/internal/pkg/otp"
)

func uniquePhone() string {
	return fmt.Sprintf("+1555%07d", time.Now().UnixNano()%10000000)
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

type generateOTPData struct {
	UserID  string `json:"user_id"`
	Channel string `json:"channel"`
	Queued  bool   `json:"queued"`
}

func generateOTP(t *testing.T, payload map[string]string) generateOTPData {
	t.Helper()

	status, body := doJSON(t, http.MethodPost, "/api/generate-otp", payload, "")
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("generate otp failed: status=%d message=%q", status, errEnv.Message)
	}

	var data generateOTPData
	decodeSuccess(t, body, &data)

	return data
}

type totpSetupData struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

func setupTOTP(t *testing.T, userID string) totpSetupData {
	t.Helper()

	status, body := doJSON(t, http.MethodPost, "/api/totp/setup", map[string]string{
		"user_id": userID,
	}, "")
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("totp setup failed: status=%d message=%q", status, errEnv.Message)
	}

	var data totpSetupData
	decodeSuccess(t, body, &data)
	if data.Secret == "" || data.ProvisioningURI == "" {
		t.Fatal("totp setup response missing fields")
	}

	return data
}

func enableTOTP(t *testing.T, userID, secret string) {
	t.Helper()

	status, body := doJSON(t, http.MethodPost, "/api/totp/enable", map[string]string{
		"user_id": userID,
		"code":    totpCode(t, secret),
	}, "")
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("totp enable failed: status=%d message=%q", status, errEnv.Message)
	}
}

func totpCode(t *testing.T, key string) string {
	t.Helper()

	generator := otp.NewTOTP("GoVerify", 30, 1, libotp.DigitsSix)
	code, err := generator.GenerateCode(key, time.Now())
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}

	return code
}
