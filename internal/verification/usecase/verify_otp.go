package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/jwt"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

// fullVerificationThreshold is how many distinct channels must be verified
// before a session credential is minted.
const fullVerificationThreshold = 2

type VerifyCodeInput struct {
	UserID  string `validate:"required,uuid"`
	Channel string `validate:"required,oneof=sms email call whatsapp totp"`
	Code    string `validate:"required,numeric,min=6,max=8"`
}

type VerifyCodeOutput struct {
	Verified         bool
	FullyVerified    bool
	VerifiedChannels []string
	Credential       string
}

// VerifyCode consumes a submitted code for one channel and, once enough
// channels are verified, mints the session credential.
func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) (*VerifyCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyCode")
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

	channel := entity.Channel(in.Channel)
	if channel == entity.ChannelTOTP {
		if err := s.verifyAuthenticator(ctx, user, in.Code); err != nil {
			return nil, err
		}
	} else if err := s.consumeStoredCode(ctx, user, channel, in.Code); err != nil {
		return nil, err
	}

	s.onSuccess(ctx, user.ID)

	if err := s.repoDB.MarkChannelVerified(ctx, user.ID, channel, s.clock.Now()); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark channel verified", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	status, err := s.repoDB.GetStatus(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get status", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	verifiedChannels := verifiedChannelList(status)

	out := &VerifyCodeOutput{
		Verified:         true,
		FullyVerified:    len(verifiedChannels) >= fullVerificationThreshold,
		VerifiedChannels: verifiedChannels,
	}

	if !out.FullyVerified {
		return out, nil
	}

	credential, err := s.jwt.Generate(jwt.SessionInput{
		UserID:           user.ID,
		Name:             user.Name,
		Phone:            user.Phone,
		Email:            user.Email,
		VerifiedChannels: verifiedChannels,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate session credential", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	out.Credential = credential

	if err := s.repoMessaging.PublishUserVerified(ctx, UserVerifiedEvent{
		UserID:           user.ID,
		VerifiedChannels: verifiedChannels,
	}); err != nil {
		slog.WarnContext(ctx, "failed to publish user verified", "user_id", user.ID, "error", err)
	}

	return out, nil
}

// verifyAuthenticator validates a code against the user's TOTP secret.
func (s *Usecase) verifyAuthenticator(ctx context.Context, user *entity.User, code string) error {
	if len(user.TOTPSecret) == 0 || !user.TOTPEnabled {
		slog.WarnContext(ctx, "totp not enabled for user", "user_id", user.ID)
		return goerror.NewBusiness("authenticator app is not enabled", goerror.CodeInvalidFormat)
	}

	return s.checkAuthenticatorCode(ctx, user, code)
}

// consumeStoredCode checks the submitted code against the stored hash and
// maps every non-valid outcome to its error. Only mismatches and exhausted
// budgets feed the failure counter.
func (s *Usecase) consumeStoredCode(ctx context.Context, user *entity.User, ch entity.Channel, code string) error {
	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash code", "error", err)
		return goerror.NewServer(err)
	}

	outcome, err := s.repoDB.ConsumeCode(ctx, user.ID, ch, string(codeHash), s.clock.Now(), s.maxCodeAttempts())
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no active code", "user_id", user.ID, "channel", ch.String())
		return goerror.NewBusiness("no active code for this channel", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume code", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	switch outcome {
	case entity.VerifyOutcomeValid:
		return nil

	case entity.VerifyOutcomeExpired:
		slog.WarnContext(ctx, "code expired", "user_id", user.ID, "channel", ch.String())
		return goerror.NewBusiness("verification code has expired", goerror.CodeInvalidFormat)

	case entity.VerifyOutcomeExhausted:
		s.onFailure(ctx, user.ID)
		slog.WarnContext(ctx, "code attempts exhausted", "user_id", user.ID, "channel", ch.String())

		return goerror.NewBusiness("too many wrong attempts for this code", goerror.CodeUnauthorized)

	default:
		s.onFailure(ctx, user.ID)
		slog.WarnContext(ctx, "code mismatch", "user_id", user.ID, "channel", ch.String())

		return goerror.NewBusiness("invalid verification code", goerror.CodeUnauthorized)
	}
}
