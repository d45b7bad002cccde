package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/mfa"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

type SetupTOTPInput struct {
	UserID string `validate:"required,uuid"`
}

type SetupTOTPOutput struct {
	Secret          string
	ProvisioningURI string
}

// SetupTOTP enrolls the user's authenticator app. Calling it again before
// enabling returns the existing secret instead of rotating it.
func (s *Usecase) SetupTOTP(ctx context.Context, in SetupTOTPInput) (*SetupTOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "SetupTOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.getUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if len(user.TOTPSecret) > 0 {
		secret, err := s.mfaEncryptor.Decrypt(user.TOTPSecret, mfa.Scope{
			UserID:  user.ID,
			Purpose: mfa.PurposeOTPSeed,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", user.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		return &SetupTOTPOutput{
			Secret:          string(secret),
			ProvisioningURI: s.totp.URI(string(secret), totpAccountName(user)),
		}, nil
	}

	secret, uri, err := s.totp.Generate(totpAccountName(user))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	encrypted, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.Scope{
		UserID:  user.ID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.SetTOTPSecret(ctx, user.ID, encrypted); err != nil {
		slog.ErrorContext(ctx, "failed to repo set totp secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SetupTOTPOutput{Secret: secret, ProvisioningURI: uri}, nil
}

// totpAccountName labels the secret in the authenticator app.
func totpAccountName(user *entity.User) string {
	if user.Email != "" {
		return user.Email
	}
	if user.Phone != "" {
		return user.Phone
	}

	return user.ID
}

// getUser fetches a user by id, mapping a miss to a business error.
func (s *Usecase) getUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.repoDB.GetUserByID(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user not found", "user_id", id)
		return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	return user, nil
}
