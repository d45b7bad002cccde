package inbound

import (
	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/router"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

// HTTPEndpoint exposes HTTP handlers for the verification workflows.
type HTTPEndpoint struct {
	uc  uc
	cfg config.Config
}

// Health reports service liveness.
// @Summary Health check
// @Tags Verification
// @Produce json
// @Success 200 {object} router.successResponse{data=HealthResponse} "Service is healthy"
// @Router /health [get]
func (h *HTTPEndpoint) Health(r *router.Request) (any, error) {
	return HealthResponse{Status: "ok"}, nil
}

// GenerateOTP issues a verification code and queues its delivery.
// @Summary Request a verification code
// @Description Resolves or creates the user, issues a fresh 6-digit code for the channel and queues delivery. The totp channel delivers nothing; it only confirms the authenticator is usable.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body GenerateOTPRequest true "Code request payload"
// @Success 200 {object} router.successResponse{data=GenerateOTPResponse} "Code queued"
// @Failure 400 {object} router.errorResponse "Channel unavailable or code expired"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/generate-otp [post]
func (h *HTTPEndpoint) GenerateOTP(r *router.Request) (any, error) {
	var req GenerateOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestCode(r.Context(), usecase.RequestCodeInput{
		UserID:  req.UserID,
		Name:    req.Name,
		Channel: req.Channel,
		Phone:   req.Phone,
		Email:   req.Email,
	})
	if err != nil {
		return nil, err
	}

	return GenerateOTPResponse{
		UserID:  resp.UserID,
		Channel: resp.Channel,
		Queued:  resp.Queued,
	}, nil
}

// VerifyOTP consumes a submitted code for one channel.
// @Summary Verify a code
// @Description Checks the submitted code. At two or more verified channels the response carries a session credential.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verification payload"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "Verification result"
// @Failure 400 {object} router.errorResponse "Code expired"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 404 {object} router.errorResponse "User or code not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{
		UserID:  req.UserID,
		Channel: req.Channel,
		Code:    req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		Verified:         resp.Verified,
		FullyVerified:    resp.FullyVerified,
		VerifiedChannels: resp.VerifiedChannels,
		Token:            resp.Credential,
	}, nil
}

// TOTPSetup enrolls the user's authenticator app.
// @Summary Enroll authenticator app
// @Description Returns the shared secret and provisioning URI. Repeat calls before enabling return the existing secret.
// @Tags Verification, TOTP
// @Accept json
// @Produce json
// @Param request body TOTPSetupRequest true "Setup payload"
// @Success 200 {object} router.successResponse{data=TOTPSetupResponse} "Enrollment material"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/totp/setup [post]
func (h *HTTPEndpoint) TOTPSetup(r *router.Request) (any, error) {
	var req TOTPSetupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SetupTOTP(r.Context(), usecase.SetupTOTPInput{UserID: req.UserID})
	if err != nil {
		return nil, err
	}

	return TOTPSetupResponse{
		Secret:          resp.Secret,
		ProvisioningURI: resp.ProvisioningURI,
	}, nil
}

// TOTPEnable activates the enrolled authenticator.
// @Summary Enable authenticator app
// @Tags Verification, TOTP
// @Accept json
// @Produce json
// @Param request body TOTPEnableRequest true "Enable payload"
// @Success 200 {object} router.successResponse{data=TOTPEnableResponse} "Authenticator enabled"
// @Failure 400 {object} router.errorResponse "No authenticator enrolled"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/totp/enable [post]
func (h *HTTPEndpoint) TOTPEnable(r *router.Request) (any, error) {
	var req TOTPEnableRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EnableTOTP(r.Context(), usecase.EnableTOTPInput{
		UserID: req.UserID,
		Code:   req.Code,
	})
	if err != nil {
		return nil, err
	}

	return TOTPEnableResponse{Enabled: resp.Enabled}, nil
}

// TOTPDisable turns the authenticator channel off.
// @Summary Disable authenticator app
// @Tags Verification, TOTP
// @Accept json
// @Produce json
// @Param request body TOTPDisableRequest true "Disable payload"
// @Success 200 {object} router.successResponse{data=TOTPDisableResponse} "Authenticator disabled"
// @Failure 400 {object} router.errorResponse "Authenticator not enabled"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/totp/disable [post]
func (h *HTTPEndpoint) TOTPDisable(r *router.Request) (any, error) {
	var req TOTPDisableRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.DisableTOTP(r.Context(), usecase.DisableTOTPInput{
		UserID: req.UserID,
		Code:   req.Code,
	})
	if err != nil {
		return nil, err
	}

	return TOTPDisableResponse{Disabled: resp.Disabled}, nil
}

// Channels lists the delivery-channel catalogue.
// @Summary List verification channels
// @Tags Verification
// @Produce json
// @Success 200 {object} router.successResponse{data=ChannelsResponse} "Channel catalogue"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/channels [get]
func (h *HTTPEndpoint) Channels(r *router.Request) (any, error) {
	resp, err := h.uc.Channels(r.Context())
	if err != nil {
		return nil, err
	}

	channels := make([]ChannelItem, 0, len(resp.Channels))
	for _, ch := range resp.Channels {
		channels = append(channels, ChannelItem{
			Name:     ch.Name,
			Provider: ch.Provider,
			Enabled:  ch.Enabled,
		})
	}

	return ChannelsResponse{Channels: channels}, nil
}

// UserDetail returns a user's profile and verification map.
// @Summary Get user detail
// @Description Requires a fully verified session credential.
// @Tags Verification
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} router.successResponse{data=UserDetailResponse} "User detail"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/users/{id} [get]
func (h *HTTPEndpoint) UserDetail(r *router.Request) (any, error) {
	resp, err := h.uc.UserDetail(r.Context(), usecase.UserDetailInput{UserID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return UserDetailResponse{
		ID:               resp.ID,
		Name:             resp.Name,
		Phone:            resp.Phone,
		Email:            resp.Email,
		TOTPEnabled:      resp.TOTPEnabled,
		FullyVerified:    resp.FullyVerified,
		VerifiedChannels: resp.VerifiedChannels,
		Channels:         resp.Channels,
		CreatedAt:        resp.CreatedAt,
		LastLogin:        resp.LastLogin,
	}, nil
}
