package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/otp"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

const codeLength = 6

type RequestCodeInput struct {
	UserID  string `validate:"omitempty,uuid"`
	Name    string `validate:"omitempty,max=100"`
	Channel string `validate:"required,oneof=sms email call whatsapp totp"`
	Phone   string `validate:"omitempty,e164"`
	Email   string `validate:"omitempty,email"`
}

type RequestCodeOutput struct {
	UserID  string
	Channel string
	Queued  bool
}

// RequestCode issues a fresh code for the (user, channel) pair and queues
// its delivery. The totp channel has nothing to deliver; it only confirms
// the authenticator is ready to be used for verification.
func (s *Usecase) RequestCode(ctx context.Context, in RequestCodeInput) (*RequestCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	channel := entity.Channel(in.Channel)
	user, err := s.resolveUser(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNotLocked(ctx, user); err != nil {
		return nil, err
	}

	if channel == entity.ChannelTOTP {
		if len(user.TOTPSecret) == 0 || !user.TOTPEnabled {
			slog.WarnContext(ctx, "totp not enabled for user", "user_id", user.ID)
			return nil, goerror.NewBusiness("authenticator app is not enabled", goerror.CodeInvalidFormat)
		}

		return &RequestCodeOutput{UserID: user.ID, Channel: in.Channel}, nil
	}

	destination := user.Destination(channel)
	if destination == "" {
		slog.WarnContext(ctx, "no destination for channel", "user_id", user.ID, "channel", in.Channel)
		return nil, goerror.NewBusiness("channel is unavailable for this user", goerror.CodeInvalidFormat)
	}

	code, err := otp.NumericCode(codeLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate code", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash code", "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.IssueCode(ctx, entity.OtpCode{
		UserID:    user.ID,
		Channel:   channel,
		CodeHash:  string(codeHash),
		ExpiresAt: s.clock.Now().Add(s.codeTTL()),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo issue code", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.EnqueueDispatch(ctx, entity.DispatchJob{
		ID:          s.numID.Generate(),
		UserID:      user.ID,
		Channel:     channel,
		Code:        code,
		Destination: destination,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo enqueue dispatch", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RequestCodeOutput{UserID: user.ID, Channel: in.Channel, Queued: true}, nil
}

// resolveUser finds the user by id, falls back to contact lookup, and
// creates a new account when neither matches. Provided contact fields
// refresh an existing account.
func (s *Usecase) resolveUser(ctx context.Context, in RequestCodeInput) (*entity.User, error) {
	phone := strings.TrimSpace(in.Phone)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	name := strings.TrimSpace(in.Name)

	if in.UserID != "" {
		user, err := s.getUser(ctx, in.UserID)
		if err != nil {
			return nil, err
		}

		return s.refreshContact(ctx, user, name, phone, email)
	}

	if phone == "" && email == "" {
		return nil, goerror.NewBusiness("phone or email is required", goerror.CodeInvalidInput)
	}

	user, err := s.repoDB.GetUserByContact(ctx, phone, email)
	if err == nil {
		return s.refreshContact(ctx, user, name, phone, email)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by contact", "error", err)
		return nil, goerror.NewServer(err)
	}

	created := entity.User{
		ID:    s.uuid.Generate(),
		Name:  name,
		Phone: phone,
		Email: email,
	}
	if err := s.repoDB.CreateUser(ctx, created); err != nil {
		slog.ErrorContext(ctx, "failed to repo create user", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &created, nil
}

func (s *Usecase) refreshContact(ctx context.Context, user *entity.User, name, phone, email string) (*entity.User, error) {
	if name == "" && phone == "" && email == "" {
		return user, nil
	}

	if err := s.repoDB.UpdateUserContact(ctx, user.ID, name, phone, email); err != nil {
		slog.ErrorContext(ctx, "failed to repo update user contact", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if name != "" {
		user.Name = name
	}
	if phone != "" {
		user.Phone = phone
	}
	if email != "" {
		user.Email = email
	}

	return user, nil
}
