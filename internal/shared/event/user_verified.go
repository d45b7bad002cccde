package event

// UserVerifiedDestination is the subject emitted when a user reaches full
// multi-channel verification.
const UserVerifiedDestination string = "verification.user.verified"

// UserVerifiedMessage announces a fully verified user.
type UserVerifiedMessage struct {
	UserID           string   `json:"user_id"`
	VerifiedChannels []string `json:"verified_channels"`
}
