package usecase

import (
	"context"
	"testing"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

func TestRequestCodeCreatesUserAndQueuesJob(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.uc.RequestCode(context.Background(), RequestCodeInput{
		Name:    "Alice",
		Channel: "sms",
		Phone:   "+6281234567890",
	})
	if err != nil {
		t.Fatalf("RequestCode returned error: %v", err)
	}

	if !out.Queued {
		t.Fatal("expected code to be queued")
	}
	if out.UserID == "" {
		t.Fatal("expected a user id")
	}
	if out.Channel != "sms" {
		t.Fatalf("expected channel sms, got %q", out.Channel)
	}

	job := env.repo.lastJob(t)
	if job.Destination != "+6281234567890" {
		t.Fatalf("expected job destination to be the phone, got %q", job.Destination)
	}
	if len(job.Code) != codeLength {
		t.Fatalf("expected %d-digit code in job, got %q", codeLength, job.Code)
	}

	if _, ok := env.repo.codes[codeKey(out.UserID, entity.ChannelSMS)]; !ok {
		t.Fatal("expected a stored code for the sms channel")
	}
}

func TestRequestCodeReusesExistingUserByContact(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Name: "Bob", Phone: "+15551230001", Email: "bob@example.com"})

	out, err := env.uc.RequestCode(context.Background(), RequestCodeInput{
		Channel: "email",
		Email:   "bob@example.com",
	})
	if err != nil {
		t.Fatalf("RequestCode returned error: %v", err)
	}

	if out.UserID != user.ID {
		t.Fatalf("expected existing user %s, got %s", user.ID, out.UserID)
	}

	job := env.repo.lastJob(t)
	if job.Destination != "bob@example.com" {
		t.Fatalf("expected job destination to be the email, got %q", job.Destination)
	}
}

func TestRequestCodeSupersedesPreviousCode(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551230002"})

	in := RequestCodeInput{UserID: user.ID, Channel: "sms"}
	if _, err := env.uc.RequestCode(context.Background(), in); err != nil {
		t.Fatalf("first RequestCode returned error: %v", err)
	}
	firstCode := env.repo.lastJob(t).Code

	if _, err := env.uc.RequestCode(context.Background(), in); err != nil {
		t.Fatalf("second RequestCode returned error: %v", err)
	}
	secondCode := env.repo.lastJob(t).Code

	if firstCode != secondCode {
		_, err := env.uc.VerifyCode(context.Background(), VerifyCodeInput{
			UserID:  user.ID,
			Channel: "sms",
			Code:    firstCode,
		})
		if err == nil {
			t.Fatal("expected superseded code to be rejected")
		}
	}

	out, err := env.uc.VerifyCode(context.Background(), VerifyCodeInput{
		UserID:  user.ID,
		Channel: "sms",
		Code:    secondCode,
	})
	if err != nil {
		t.Fatalf("VerifyCode with the latest code returned error: %v", err)
	}
	if !out.Verified {
		t.Fatal("expected latest code to verify")
	}
}

func TestRequestCodeChannelUnavailable(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551230003"})

	_, err := env.uc.RequestCode(context.Background(), RequestCodeInput{
		UserID:  user.ID,
		Channel: "email",
	})
	assertErrorCode(t, err, goerror.CodeInvalidFormat)
}

func TestRequestCodeTOTPRequiresEnabled(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, entity.User{Phone: "+15551230004"})

	_, err := env.uc.RequestCode(context.Background(), RequestCodeInput{
		UserID:  user.ID,
		Channel: "totp",
	})
	assertErrorCode(t, err, goerror.CodeInvalidFormat)

	setup, err := env.uc.SetupTOTP(context.Background(), SetupTOTPInput{UserID: user.ID})
	if err != nil {
		t.Fatalf("SetupTOTP returned error: %v", err)
	}

	code, err := env.totp.GenerateCode(setup.Secret, env.clock.Now())
	if err != nil {
		t.Fatalf("failed to generate totp code: %v", err)
	}
	if _, err := env.uc.EnableTOTP(context.Background(), EnableTOTPInput{UserID: user.ID, Code: code}); err != nil {
		t.Fatalf("EnableTOTP returned error: %v", err)
	}

	jobsBefore := len(env.repo.jobs)
	out, err := env.uc.RequestCode(context.Background(), RequestCodeInput{
		UserID:  user.ID,
		Channel: "totp",
	})
	if err != nil {
		t.Fatalf("RequestCode for totp returned error: %v", err)
	}

	if out.Queued {
		t.Fatal("totp channel must not queue a delivery")
	}
	if len(env.repo.jobs) != jobsBefore {
		t.Fatal("totp channel must not enqueue a dispatch job")
	}
}

func TestRequestCodeRejectsUnknownChannel(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.RequestCode(context.Background(), RequestCodeInput{
		Channel: "pigeon",
		Phone:   "+15551230005",
	})
	if err == nil {
		t.Fatal("expected validation error for unknown channel")
	}
}

func TestRequestCodeRequiresContactForNewUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.RequestCode(context.Background(), RequestCodeInput{Channel: "sms"})
	assertErrorCode(t, err, goerror.CodeInvalidInput)
}
