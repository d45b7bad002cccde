package inbound

import "time"

type HealthResponse struct {
	Status string `json:"status"`
}

func (HealthResponse) Message() string {
	return "service is healthy"
}

type GenerateOTPRequest struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Channel string `json:"channel"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type GenerateOTPResponse struct {
	UserID  string `json:"user_id"`
	Channel string `json:"channel"`
	Queued  bool   `json:"queued"`
}

func (r GenerateOTPResponse) Message() string {
	if !r.Queued {
		return "Use your authenticator app to verify."
	}

	return "Verification code has been queued for delivery."
}

type VerifyOTPRequest struct {
	UserID  string `json:"user_id"`
	Channel string `json:"channel"`
	Code    string `json:"code"`
}

type VerifyOTPResponse struct {
	Verified         bool     `json:"verified"`
	FullyVerified    bool     `json:"fully_verified"`
	VerifiedChannels []string `json:"verified_channels"`
	Token            string   `json:"token,omitempty"`
}

func (r VerifyOTPResponse) Message() string {
	if r.FullyVerified {
		return "Verification complete. You are fully verified."
	}

	return "Channel verified."
}

type TOTPSetupRequest struct {
	UserID string `json:"user_id"`
}

type TOTPSetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

type TOTPEnableRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

type TOTPEnableResponse struct {
	Enabled bool `json:"enabled"`
}

func (TOTPEnableResponse) Message() string {
	return "Authenticator app enabled."
}

type TOTPDisableRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

type TOTPDisableResponse struct {
	Disabled bool `json:"disabled"`
}

func (TOTPDisableResponse) Message() string {
	return "Authenticator app disabled."
}

type ChannelItem struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Enabled  bool   `json:"enabled"`
}

type ChannelsResponse struct {
	Channels []ChannelItem `json:"channels"`
}

type UserDetailResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	Email            string          `json:"email"`
	TOTPEnabled      bool            `json:"totp_enabled"`
	FullyVerified    bool            `json:"fully_verified"`
	VerifiedChannels []string        `json:"verified_channels"`
	Channels         map[string]bool `json:"channels"`
	CreatedAt        time.Time       `json:"created_at"`
	LastLogin        *time.Time      `json:"last_login,omitempty"`
}

// WebhookRequest is the workflow-automation envelope. Action selects the
// operation; the remaining fields feed it.
type WebhookRequest struct {
	Action  string `json:"action"`
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Channel string `json:"channel"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type WebhookStatusResponse struct {
	UserID           string          `json:"user_id"`
	FullyVerified    bool            `json:"fully_verified"`
	VerifiedChannels []string        `json:"verified_channels"`
	Channels         map[string]bool `json:"channels"`
}

type WebhookURLResponse struct {
	URL string `json:"url"`
}
