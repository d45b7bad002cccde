package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/clock"
	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/hash"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/jwt"
	"github.com/shandysiswandi/goverify/internal/pkg/mfa"
	"github.com/shandysiswandi/goverify/internal/pkg/otp"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/pkg/validator"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
	"go.opentelemetry.io/otel/trace"
)

// CodeDispatchedEvent reports the final delivery outcome of a queued code.
type CodeDispatchedEvent struct {
	JobID       int64
	UserID      string
	Channel     string
	Destination string
	Success     bool
	Error       string
}

// UserVerifiedEvent announces a user reaching full verification.
type UserVerifiedEvent struct {
	UserID           string
	VerifiedChannels []string
}

type repoMessaging interface {
	PublishUserVerified(ctx context.Context, msg UserVerifiedEvent) error
}

type repoDB interface {
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
	GetUserByContact(ctx context.Context, phone, email string) (*entity.User, error)
	CreateUser(ctx context.Context, user entity.User) error
	UpdateUserContact(ctx context.Context, id, name, phone, email string) error
	SetTOTPSecret(ctx context.Context, userID string, secret []byte) error
	SetTOTPEnabled(ctx context.Context, userID string, enabled bool) error

	RecordFailure(ctx context.Context, userID string, at time.Time) (int32, error)
	ResetFailures(ctx context.Context, userID string) error
	ResetStaleFailures(ctx context.Context, cutoff time.Time) (int64, error)

	IssueCode(ctx context.Context, code entity.OtpCode) error
	ConsumeCode(ctx context.Context, userID string, ch entity.Channel, codeHash string, now time.Time, maxAttempts int32) (entity.VerifyOutcome, error)

	GetStatus(ctx context.Context, userID string) (*entity.Status, error)
	MarkChannelVerified(ctx context.Context, userID string, ch entity.Channel, at time.Time) error

	EnqueueDispatch(ctx context.Context, job entity.DispatchJob) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	mfaEncryptor  mfa.Encryptor
	uuid          uid.StringID
	numID         uid.NumberID
	totp          otp.OTP
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	MFAEncryptor  mfa.Encryptor
	UUID          uid.StringID
	NumberID      uid.NumberID
	Totp          otp.OTP
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		mfaEncryptor:  dep.MFAEncryptor,
		uuid:          dep.UUID,
		numID:         dep.NumberID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func (s *Usecase) codeTTL() time.Duration {
	return s.cfg.GetSecond("modules.verification.otp_ttl_seconds")
}

func (s *Usecase) maxCodeAttempts() int32 {
	return s.cfg.GetInt32("modules.verification.otp_max_attempts")
}
