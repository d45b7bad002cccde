package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/jwt"
)

type UserDetailInput struct {
	UserID string `validate:"required,uuid"`
}

type UserDetailOutput struct {
	ID               string
	Name             string
	Phone            string
	Email            string
	TOTPEnabled      bool
	FullyVerified    bool
	VerifiedChannels []string
	Channels         map[string]bool
	CreatedAt        time.Time
	LastLogin        *time.Time
}

// UserDetail returns a user's profile and verification map. It requires a
// fully verified session credential since the payload carries contact PII.
func (s *Usecase) UserDetail(ctx context.Context, in UserDetailInput) (*UserDetailOutput, error) {
	ctx, span := s.startSpan(ctx, "UserDetail")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil || !clm.Verified {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.getUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	status, err := s.repoDB.GetStatus(ctx, user.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "status row missing", "user_id", user.ID)
		return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get status", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	verified := verifiedChannelList(status)

	flags := make(map[string]bool, len(status.Channels()))
	for ch, ok := range status.Channels() {
		flags[ch.String()] = ok
	}

	return &UserDetailOutput{
		ID:               user.ID,
		Name:             user.Name,
		Phone:            user.Phone,
		Email:            user.Email,
		TOTPEnabled:      user.TOTPEnabled,
		FullyVerified:    len(verified) >= fullVerificationThreshold,
		VerifiedChannels: verified,
		Channels:         flags,
		CreatedAt:        user.CreatedAt,
		LastLogin:        user.LastLogin,
	}, nil
}
