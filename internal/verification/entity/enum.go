package entity

// Channel identifies a verification delivery channel.
type Channel string

const (
	// ChannelSMS delivers codes as text messages.
	ChannelSMS Channel = "sms"

	// ChannelEmail delivers codes by email.
	ChannelEmail Channel = "email"

	// ChannelVoice delivers codes with an automated phone call.
	ChannelVoice Channel = "call"

	// ChannelWhatsApp delivers codes as WhatsApp messages.
	ChannelWhatsApp Channel = "whatsapp"

	// ChannelTOTP verifies against an authenticator app; nothing is delivered.
	ChannelTOTP Channel = "totp"
)

// Channels lists every supported channel in stable order.
func Channels() []Channel {
	return []Channel{ChannelSMS, ChannelEmail, ChannelVoice, ChannelWhatsApp, ChannelTOTP}
}

// IsValid reports whether ch is a known channel.
func (ch Channel) IsValid() bool {
	switch ch {
	case ChannelSMS, ChannelEmail, ChannelVoice, ChannelWhatsApp, ChannelTOTP:
		return true
	default:
		return false
	}
}

// Deliverable reports whether codes for ch are sent out-of-band.
func (ch Channel) Deliverable() bool {
	return ch.IsValid() && ch != ChannelTOTP
}

func (ch Channel) String() string {
	return string(ch)
}

// VerifyOutcome is the result of consuming a stored code.
type VerifyOutcome int

const (
	// VerifyOutcomeValid means the code matched and was consumed.
	VerifyOutcomeValid VerifyOutcome = iota

	// VerifyOutcomeMismatch means the code did not match; the stored code survives.
	VerifyOutcomeMismatch

	// VerifyOutcomeExpired means the code was past its expiry and has been removed.
	VerifyOutcomeExpired

	// VerifyOutcomeExhausted means the attempt budget ran out; the code has been removed.
	VerifyOutcomeExhausted
)

// JobStatus is the lifecycle state of a dispatch job. Transitions only move
// forward: pending -> processing -> completed | failed.
type JobStatus string

const (
	// JobStatusPending means the job awaits a dispatcher.
	JobStatusPending JobStatus = "pending"

	// JobStatusProcessing means a dispatcher has claimed the job.
	JobStatusProcessing JobStatus = "processing"

	// JobStatusCompleted means delivery succeeded.
	JobStatusCompleted JobStatus = "completed"

	// JobStatusFailed means delivery failed after retries.
	JobStatusFailed JobStatus = "failed"
)
