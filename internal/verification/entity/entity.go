package entity

import "time"

// User is an account enrolled in multi-channel verification.
type User struct {
	ID             string
	Name           string
	Phone          string
	Email          string
	TOTPSecret     []byte // AES-GCM ciphertext, empty until enrolled
	TOTPEnabled    bool
	FailedAttempts int32
	LastFailedAt   *time.Time
	CreatedAt      time.Time
	LastLogin      *time.Time
}

// Destination returns the delivery address for a channel, or empty when the
// user has no usable contact for it.
func (u User) Destination(ch Channel) string {
	switch ch {
	case ChannelSMS, ChannelVoice, ChannelWhatsApp:
		return u.Phone
	case ChannelEmail:
		return u.Email
	default:
		return ""
	}
}

// OtpCode is a live one-time code for a (user, channel) pair.
//
// Only the hash of the code is persisted; the plaintext exists in the
// dispatch job until delivered.
type OtpCode struct {
	ID        int64
	UserID    string
	Channel   Channel
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int32
}

// Status holds the per-channel verification flags for a user. Flags only
// ever move from false to true.
type Status struct {
	UserID   string
	SMS      bool
	Email    bool
	Voice    bool
	WhatsApp bool
	TOTP     bool
}

// Channels returns the per-channel flags keyed by channel.
func (s Status) Channels() map[Channel]bool {
	return map[Channel]bool{
		ChannelSMS:      s.SMS,
		ChannelEmail:    s.Email,
		ChannelVoice:    s.Voice,
		ChannelWhatsApp: s.WhatsApp,
		ChannelTOTP:     s.TOTP,
	}
}

// DispatchJob is a queued code delivery.
type DispatchJob struct {
	ID          int64
	UserID      string
	Channel     Channel
	Code        string
	Destination string
	Status      JobStatus
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
