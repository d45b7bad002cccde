package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
)

type DisableTOTPInput struct {
	UserID string `validate:"required,uuid"`
	Code   string `validate:"required,numeric,min=6,max=8"`
}

type DisableTOTPOutput struct {
	Disabled bool
}

// DisableTOTP turns the authenticator channel off. It demands a valid code
// so a borrowed session cannot silently weaken the account.
func (s *Usecase) DisableTOTP(ctx context.Context, in DisableTOTPInput) (*DisableTOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "DisableTOTP")
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

	if !user.TOTPEnabled || len(user.TOTPSecret) == 0 {
		slog.WarnContext(ctx, "totp not enabled for user", "user_id", user.ID)
		return nil, goerror.NewBusiness("authenticator app is not enabled", goerror.CodeInvalidFormat)
	}

	if err := s.checkAuthenticatorCode(ctx, user, in.Code); err != nil {
		return nil, err
	}

	if err := s.repoDB.SetTOTPEnabled(ctx, user.ID, false); err != nil {
		slog.ErrorContext(ctx, "failed to repo disable totp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.onSuccess(ctx, user.ID)

	return &DisableTOTPOutput{Disabled: true}, nil
}
