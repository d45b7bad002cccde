package inbound

import (
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/router"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

const (
	webhookActionInitiate    = "initiate_verification"
	webhookActionCheckStatus = "check_verification_status"
)

// Webhook dispatches workflow-automation actions.
// @Summary Workflow automation webhook
// @Description Envelope endpoint for automation tools. Supported actions: initiate_verification, check_verification_status.
// @Tags Verification, Webhook
// @Accept json
// @Produce json
// @Param request body WebhookRequest true "Action envelope"
// @Success 200 {object} router.successResponse "Action result"
// @Failure 400 {object} router.errorResponse "Unknown action"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/webhook/n8n [post]
func (h *HTTPEndpoint) Webhook(r *router.Request) (any, error) {
	var req WebhookRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	switch req.Action {
	case webhookActionInitiate:
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

	case webhookActionCheckStatus:
		resp, err := h.uc.Status(r.Context(), usecase.StatusInput{UserID: req.UserID})
		if err != nil {
			return nil, err
		}

		return WebhookStatusResponse{
			UserID:           resp.UserID,
			FullyVerified:    resp.FullyVerified,
			VerifiedChannels: resp.VerifiedChannels,
			Channels:         resp.Channels,
		}, nil

	default:
		return nil, goerror.NewBusiness("unknown webhook action", goerror.CodeInvalidFormat)
	}
}

// WebhookURL returns the externally reachable webhook address.
// @Summary Get webhook URL
// @Tags Verification, Webhook
// @Produce json
// @Success 200 {object} router.successResponse{data=WebhookURLResponse} "Webhook URL"
// @Router /api/webhook-url [get]
func (h *HTTPEndpoint) WebhookURL(r *router.Request) (any, error) {
	return WebhookURLResponse{URL: h.cfg.GetString("modules.verification.webhook_url")}, nil
}
