package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	libOTP "github.com/pquerna/otp"
	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/hash"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/jwt"
	"github.com/shandysiswandi/goverify/internal/pkg/mfa"
	"github.com/shandysiswandi/goverify/internal/pkg/otp"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/pkg/validator"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

const testConfigYAML = `
modules:
  verification:
    otp_ttl_seconds: 30
    otp_max_attempts: 3
    lockout_max_failures: 5
    lockout_window_minutes: 15
    lockout_stale_hours: 24
    webhook_url: "http://localhost:8080/api/webhook/n8n"
    channels:
      sms:
        enabled: true
        provider: "clicksend"
      email:
        enabled: true
        provider: "smtp"
      call:
        enabled: false
        provider: "vapi"
      whatsapp:
        enabled: false
        provider: "whatsapp-cloud"
      totp:
        enabled: true
        provider: "authenticator"
`

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// fakeRepo is an in-memory repoDB mirroring the SQL semantics.
type fakeRepo struct {
	mu       sync.Mutex
	users    map[string]*entity.User
	codes    map[string]*entity.OtpCode
	statuses map[string]*entity.Status
	jobs     []entity.DispatchJob
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[string]*entity.User),
		codes:    make(map[string]*entity.OtpCode),
		statuses: make(map[string]*entity.Status),
	}
}

func codeKey(userID string, ch entity.Channel) string {
	return userID + "/" + ch.String()
}

func (r *fakeRepo) GetUserByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	cp := *user

	return &cp, nil
}

func (r *fakeRepo) GetUserByContact(_ context.Context, phone, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if (phone != "" && user.Phone == phone) || (email != "" && user.Email == email) {
			cp := *user
			return &cp, nil
		}
	}

	return nil, goerror.ErrNotFound
}

func (r *fakeRepo) CreateUser(_ context.Context, user entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return goerror.ErrConflict
	}

	cp := user
	r.users[user.ID] = &cp
	r.statuses[user.ID] = &entity.Status{UserID: user.ID}

	return nil
}

func (r *fakeRepo) UpdateUserContact(_ context.Context, id, name, phone, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return goerror.ErrNotFound
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

	return nil
}

func (r *fakeRepo) SetTOTPSecret(_ context.Context, userID string, secret []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}

	user.TOTPSecret = secret
	user.TOTPEnabled = false

	return nil
}

func (r *fakeRepo) SetTOTPEnabled(_ context.Context, userID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}

	user.TOTPEnabled = enabled
	if !enabled {
		user.TOTPSecret = nil
		if status, ok := r.statuses[userID]; ok {
			status.TOTP = false
		}
	}

	return nil
}

func (r *fakeRepo) RecordFailure(_ context.Context, userID string, at time.Time) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return 0, goerror.ErrNotFound
	}

	user.FailedAttempts++
	user.LastFailedAt = &at

	return user.FailedAttempts, nil
}

func (r *fakeRepo) ResetFailures(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}

	user.FailedAttempts = 0
	user.LastFailedAt = nil

	return nil
}

func (r *fakeRepo) ResetStaleFailures(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, user := range r.users {
		if user.FailedAttempts > 0 && user.LastFailedAt != nil && user.LastFailedAt.Before(cutoff) {
			user.FailedAttempts = 0
			user.LastFailedAt = nil
			count++
		}
	}

	return count, nil
}

func (r *fakeRepo) IssueCode(_ context.Context, code entity.OtpCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := code
	r.codes[codeKey(code.UserID, code.Channel)] = &cp

	return nil
}

func (r *fakeRepo) ConsumeCode(_ context.Context, userID string, ch entity.Channel, codeHash string, now time.Time, maxAttempts int32) (entity.VerifyOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := codeKey(userID, ch)
	stored, ok := r.codes[key]
	if !ok {
		return 0, goerror.ErrNotFound
	}

	if !now.Before(stored.ExpiresAt) {
		delete(r.codes, key)
		return entity.VerifyOutcomeExpired, nil
	}

	if stored.Attempts+1 > maxAttempts {
		delete(r.codes, key)
		return entity.VerifyOutcomeExhausted, nil
	}

	if stored.CodeHash == codeHash {
		delete(r.codes, key)
		return entity.VerifyOutcomeValid, nil
	}

	stored.Attempts++

	return entity.VerifyOutcomeMismatch, nil
}

func (r *fakeRepo) DeleteExpiredCodes(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for key, code := range r.codes {
		if !now.Before(code.ExpiresAt) {
			delete(r.codes, key)
			count++
		}
	}

	return count, nil
}

func (r *fakeRepo) GetStatus(_ context.Context, userID string) (*entity.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.statuses[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	cp := *status

	return &cp, nil
}

func (r *fakeRepo) MarkChannelVerified(_ context.Context, userID string, ch entity.Channel, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.statuses[userID]
	if !ok {
		return goerror.ErrNotFound
	}

	switch ch {
	case entity.ChannelSMS:
		status.SMS = true
	case entity.ChannelEmail:
		status.Email = true
	case entity.ChannelVoice:
		status.Voice = true
	case entity.ChannelWhatsApp:
		status.WhatsApp = true
	case entity.ChannelTOTP:
		status.TOTP = true
	}

	if user, ok := r.users[userID]; ok {
		user.LastLogin = &at
	}

	return nil
}

func (r *fakeRepo) EnqueueDispatch(_ context.Context, job entity.DispatchJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job.Status = entity.JobStatusPending
	r.jobs = append(r.jobs, job)

	return nil
}

func (r *fakeRepo) lastJob(t *testing.T) entity.DispatchJob {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.jobs) == 0 {
		t.Fatal("expected at least one dispatch job")
	}

	return r.jobs[len(r.jobs)-1]
}

type fakeMessaging struct {
	mu       sync.Mutex
	verified []UserVerifiedEvent
}

func (m *fakeMessaging) PublishUserVerified(_ context.Context, msg UserVerifiedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.verified = append(m.verified, msg)

	return nil
}

type testEnv struct {
	uc    *Usecase
	repo  *fakeRepo
	msg   *fakeMessaging
	clock *fakeClock
	hmac  hash.Hash
	totp  otp.OTP
	jwt   jwt.JWT
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}
	t.Cleanup(func() { cfg.Close() })

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	clk := newFakeClock()
	hmac := hash.NewHMACSHA256("test-hmac-secret")
	totp := otp.NewTOTP("GoVerify", 30, 1, libOTP.DigitsSix)
	uuid := uid.NewUUID()

	snow, err := uid.NewSnowflake()
	if err != nil {
		t.Fatalf("failed to build snowflake: %v", err)
	}

	key := make([]byte, 32)
	copy(key, []byte("0123456789abcdef0123456789abcdef"))
	encryptor := mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: key})

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte("test-jwt-secret-that-is-at-least-sixty-four-bytes-long-0123456789abc"),
		Issuer:    "goverify",
		Audiences: []string{"goverify-clients"},
		TTL:       7 * 24 * time.Hour,
		Clock:     clk,
		UUID:      uuid,
	})
	if err != nil {
		t.Fatalf("failed to build jwt: %v", err)
	}

	repo := newFakeRepo()
	msg := &fakeMessaging{}

	uc := New(Dependency{
		RepoDB:        repo,
		RepoMessaging: msg,
		Validator:     v10,
		Config:        cfg,
		HMAC:          hmac,
		MFAEncryptor:  encryptor,
		UUID:          uuid,
		NumberID:      snow,
		Totp:          totp,
		Clock:         clk,
		JWT:           signer,
		Instrument:    instrument.NewNoop(),
	})

	return &testEnv{
		uc:    uc,
		repo:  repo,
		msg:   msg,
		clock: clk,
		hmac:  hmac,
		totp:  totp,
		jwt:   signer,
	}
}

func (e *testEnv) seedUser(t *testing.T, user entity.User) entity.User {
	t.Helper()

	if user.ID == "" {
		user.ID = uid.NewUUID().Generate()
	}
	if err := e.repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return user
}

func assertErrorCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %v, got nil", code)
	}

	gerr, ok := err.(*goerror.Error)
	if !ok {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}

	if gerr.Code() != code {
		t.Fatalf("expected code %v, got %v (message %q)", code, gerr.Code(), gerr.Msg())
	}
}
