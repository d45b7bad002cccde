package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

func failTimes(t *testing.T, env *testEnv, userID string, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		code := issueCode(t, env, userID, "sms")

		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}

		_, err := env.uc.VerifyCode(context.Background(), VerifyCodeInput{
			UserID: userID, Channel: "sms", Code: wrong,
		})
		assertErrorCode(t, err, goerror.CodeUnauthorized)
	}
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551250001"})

	failTimes(t, env, user.ID, 5)

	// Both issuance and verification are refused while locked.
	_, err := env.uc.RequestCode(context.Background(), RequestCodeInput{
		UserID: user.ID, Channel: "sms",
	})
	assertErrorCode(t, err, goerror.CodeTooManyRequest)

	_, err = env.uc.VerifyCode(context.Background(), VerifyCodeInput{
		UserID: user.ID, Channel: "sms", Code: "123456",
	})
	assertErrorCode(t, err, goerror.CodeTooManyRequest)
}

func TestLockoutWindowSelfClears(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551250002"})

	failTimes(t, env, user.ID, 5)

	env.clock.Advance(15*time.Minute + time.Second)

	out, err := env.uc.RequestCode(context.Background(), RequestCodeInput{
		UserID: user.ID, Channel: "sms",
	})
	if err != nil {
		t.Fatalf("RequestCode after elapsed window returned error: %v", err)
	}
	if !out.Queued {
		t.Fatal("expected code to be queued after the window elapsed")
	}

	stored, err := env.repo.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if stored.FailedAttempts != 0 {
		t.Fatalf("expected counter reset, got %d", stored.FailedAttempts)
	}
}

func TestVerifySuccessResetsCounter(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551250003"})

	failTimes(t, env, user.ID, 3)

	code := issueCode(t, env, user.ID, "sms")
	if _, err := env.uc.VerifyCode(context.Background(), VerifyCodeInput{
		UserID: user.ID, Channel: "sms", Code: code,
	}); err != nil {
		t.Fatalf("VerifyCode returned error: %v", err)
	}

	stored, err := env.repo.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if stored.FailedAttempts != 0 {
		t.Fatalf("expected counter reset after success, got %d", stored.FailedAttempts)
	}
}

func TestResetStaleCounters(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551250004"})

	failTimes(t, env, user.ID, 2)

	env.clock.Advance(25 * time.Hour)

	count, err := env.uc.ResetStaleCounters(context.Background())
	if err != nil {
		t.Fatalf("ResetStaleCounters returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one stale counter reset, got %d", count)
	}

	stored, err := env.repo.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if stored.FailedAttempts != 0 {
		t.Fatalf("expected counter reset, got %d", stored.FailedAttempts)
	}
}
