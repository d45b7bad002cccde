package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

type StatusInput struct {
	UserID string `validate:"required,uuid"`
}

type StatusOutput struct {
	UserID           string
	FullyVerified    bool
	VerifiedChannels []string
	Channels         map[string]bool
}

// Status reports the per-channel verification state for a user.
func (s *Usecase) Status(ctx context.Context, in StatusInput) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	status, err := s.repoDB.GetStatus(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user not found", "user_id", in.UserID)
		return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get status", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	verified := verifiedChannelList(status)

	flags := make(map[string]bool, len(entity.Channels()))
	for ch, ok := range status.Channels() {
		flags[ch.String()] = ok
	}

	return &StatusOutput{
		UserID:           in.UserID,
		FullyVerified:    len(verified) >= fullVerificationThreshold,
		VerifiedChannels: verified,
		Channels:         flags,
	}, nil
}

// verifiedChannelList lists the verified channel names in stable order.
func verifiedChannelList(status *entity.Status) []string {
	flags := status.Channels()

	return lo.FilterMap(entity.Channels(), func(ch entity.Channel, _ int) (string, bool) {
		return ch.String(), flags[ch]
	})
}
