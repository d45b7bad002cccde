package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/mfa"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

type EnableTOTPInput struct {
	UserID string `validate:"required,uuid"`
	Code   string `validate:"required,numeric,min=6,max=8"`
}

type EnableTOTPOutput struct {
	Enabled bool
}

// EnableTOTP activates the enrolled authenticator once the user proves they
// hold the secret.
func (s *Usecase) EnableTOTP(ctx context.Context, in EnableTOTPInput) (*EnableTOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "EnableTOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.getUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNotLocked(ctx, user); err != nil {
		return nil, err
	}

	if len(user.TOTPSecret) == 0 {
		slog.WarnContext(ctx, "no authenticator enrolled", "user_id", user.ID)
		return nil, goerror.NewBusiness("no authenticator enrolled, run setup first", goerror.CodeInvalidFormat)
	}

	if err := s.checkAuthenticatorCode(ctx, user, in.Code); err != nil {
		return nil, err
	}

	if err := s.repoDB.SetTOTPEnabled(ctx, user.ID, true); err != nil {
		slog.ErrorContext(ctx, "failed to repo enable totp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.onSuccess(ctx, user.ID)

	return &EnableTOTPOutput{Enabled: true}, nil
}

// checkAuthenticatorCode validates a code against the stored secret and
// feeds the failure counter on mismatch.
func (s *Usecase) checkAuthenticatorCode(ctx context.Context, user *entity.User, code string) error {
	secret, err := s.mfaEncryptor.Decrypt(user.TOTPSecret, mfa.Scope{
		UserID:  user.ID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if !s.totp.Validate(code, string(secret), s.clock.Now()) {
		s.onFailure(ctx, user.ID)
		slog.WarnContext(ctx, "totp code mismatch", "user_id", user.ID)

		return goerror.NewBusiness("invalid verification code", goerror.CodeUnauthorized)
	}

	return nil
}
