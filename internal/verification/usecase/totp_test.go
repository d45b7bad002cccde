package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

func enrollTOTP(t *testing.T, env *testEnv, userID string) string {
	t.Helper()

	setup, err := env.uc.SetupTOTP(context.Background(), SetupTOTPInput{UserID: userID})
	if err != nil {
		t.Fatalf("SetupTOTP returned error: %v", err)
	}

	code, err := env.totp.GenerateCode(setup.Secret, env.clock.Now())
	if err != nil {
		t.Fatalf("failed to generate totp code: %v", err)
	}

	if _, err := env.uc.EnableTOTP(context.Background(), EnableTOTPInput{
		UserID: userID, Code: code,
	}); err != nil {
		t.Fatalf("EnableTOTP returned error: %v", err)
	}

	return setup.Secret
}

func TestSetupTOTPIsIdempotentBeforeEnable(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551260001", Email: "d@example.com"})

	first, err := env.uc.SetupTOTP(context.Background(), SetupTOTPInput{UserID: user.ID})
	if err != nil {
		t.Fatalf("first SetupTOTP returned error: %v", err)
	}
	if first.Secret == "" {
		t.Fatal("expected a secret")
	}
	if !strings.HasPrefix(first.ProvisioningURI, "otpauth://totp/") {
		t.Fatalf("unexpected provisioning uri %q", first.ProvisioningURI)
	}
	if !strings.Contains(first.ProvisioningURI, "d%40example.com") &&
		!strings.Contains(first.ProvisioningURI, "d@example.com") {
		t.Fatalf("expected account label in uri, got %q", first.ProvisioningURI)
	}

	second, err := env.uc.SetupTOTP(context.Background(), SetupTOTPInput{UserID: user.ID})
	if err != nil {
		t.Fatalf("second SetupTOTP returned error: %v", err)
	}
	if second.Secret != first.Secret {
		t.Fatal("repeated setup must not rotate the secret")
	}
}

func TestEnableTOTPRejectsWrongCode(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551260002"})

	setup, err := env.uc.SetupTOTP(context.Background(), SetupTOTPInput{UserID: user.ID})
	if err != nil {
		t.Fatalf("SetupTOTP returned error: %v", err)
	}

	code, err := env.totp.GenerateCode(setup.Secret, env.clock.Now())
	if err != nil {
		t.Fatalf("failed to generate totp code: %v", err)
	}
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err = env.uc.EnableTOTP(context.Background(), EnableTOTPInput{UserID: user.ID, Code: wrong})
	assertErrorCode(t, err, goerror.CodeUnauthorized)

	stored, err := env.repo.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if stored.FailedAttempts != 1 {
		t.Fatalf("expected mismatch to feed the failure counter, got %d", stored.FailedAttempts)
	}
	if stored.TOTPEnabled {
		t.Fatal("totp must stay disabled after a wrong code")
	}
}

func TestEnableTOTPRequiresSetup(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551260003"})

	_, err := env.uc.EnableTOTP(context.Background(), EnableTOTPInput{UserID: user.ID, Code: "123456"})
	assertErrorCode(t, err, goerror.CodeInvalidFormat)
}

func TestVerifyTOTPAcceptsAdjacentWindow(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551260004"})
	secret := enrollTOTP(t, env, user.ID)

	// One period of drift is within the accepted skew.
	code, err := env.totp.GenerateCode(secret, env.clock.Now().Add(-30*time.Second))
	if err != nil {
		t.Fatalf("failed to generate totp code: %v", err)
	}

	out, err := env.uc.VerifyCode(context.Background(), VerifyCodeInput{
		UserID: user.ID, Channel: "totp", Code: code,
	})
	if err != nil {
		t.Fatalf("VerifyCode returned error: %v", err)
	}
	if !out.Verified {
		t.Fatal("expected drifted code to verify")
	}

	status, err := env.repo.GetStatus(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetStatus returned error: %v", err)
	}
	if !status.TOTP {
		t.Fatal("expected totp channel to be marked verified")
	}
}

func TestVerifyTOTPRejectsStaleWindow(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551260005"})
	secret := enrollTOTP(t, env, user.ID)

	code, err := env.totp.GenerateCode(secret, env.clock.Now().Add(-90*time.Second))
	if err != nil {
		t.Fatalf("failed to generate totp code: %v", err)
	}

	_, err = env.uc.VerifyCode(context.Background(), VerifyCodeInput{
		UserID: user.ID, Channel: "totp", Code: code,
	})
	assertErrorCode(t, err, goerror.CodeUnauthorized)
}

func TestVerifyTOTPRequiresEnabled(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551260006"})

	if _, err := env.uc.SetupTOTP(context.Background(), SetupTOTPInput{UserID: user.ID}); err != nil {
		t.Fatalf("SetupTOTP returned error: %v", err)
	}

	_, err := env.uc.VerifyCode(context.Background(), VerifyCodeInput{
		UserID: user.ID, Channel: "totp", Code: "123456",
	})
	assertErrorCode(t, err, goerror.CodeInvalidFormat)
}

func TestDisableTOTPClearsEnrollment(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551260007"})
	secret := enrollTOTP(t, env, user.ID)

	code, err := env.totp.GenerateCode(secret, env.clock.Now())
	if err != nil {
		t.Fatalf("failed to generate totp code: %v", err)
	}

	verified, err := env.uc.VerifyCode(context.Background(), VerifyCodeInput{
		UserID: user.ID, Channel: "totp", Code: code,
	})
	if err != nil {
		t.Fatalf("VerifyCode returned error: %v", err)
	}
	if !verified.Verified {
		t.Fatal("expected totp channel to verify")
	}

	out, err := env.uc.DisableTOTP(context.Background(), DisableTOTPInput{UserID: user.ID, Code: code})
	if err != nil {
		t.Fatalf("DisableTOTP returned error: %v", err)
	}
	if !out.Disabled {
		t.Fatal("expected disabled output")
	}

	stored, err := env.repo.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if stored.TOTPEnabled || len(stored.TOTPSecret) != 0 {
		t.Fatal("expected enrollment to be cleared")
	}

	status, err := env.repo.GetStatus(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetStatus returned error: %v", err)
	}
	if status.TOTP {
		t.Fatal("expected totp verification mark to be cleared")
	}
}

func TestDisableTOTPRequiresEnabled(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551260008"})

	_, err := env.uc.DisableTOTP(context.Background(), DisableTOTPInput{UserID: user.ID, Code: "123456"})
	assertErrorCode(t, err, goerror.CodeInvalidFormat)
}
