package inbound

import (
	"context"

	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/router"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

type uc interface {
	RequestCode(ctx context.Context, in usecase.RequestCodeInput) (*usecase.RequestCodeOutput, error)
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) (*usecase.VerifyCodeOutput, error)

	SetupTOTP(ctx context.Context, in usecase.SetupTOTPInput) (*usecase.SetupTOTPOutput, error)
	EnableTOTP(ctx context.Context, in usecase.EnableTOTPInput) (*usecase.EnableTOTPOutput, error)
	DisableTOTP(ctx context.Context, in usecase.DisableTOTPInput) (*usecase.DisableTOTPOutput, error)

	Channels(ctx context.Context) (*usecase.ChannelsOutput, error)
	Status(ctx context.Context, in usecase.StatusInput) (*usecase.StatusOutput, error)
	UserDetail(ctx context.Context, in usecase.UserDetailInput) (*usecase.UserDetailOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, cfg config.Config) {
	end := &HTTPEndpoint{uc: uc, cfg: cfg}

	r.GET("/health", end.Health)

	// Code issuance & verification
	r.POST("/api/generate-otp", end.GenerateOTP)
	r.POST("/api/verify-otp", end.VerifyOTP)

	// Authenticator app (TOTP)
	r.POST("/api/totp/setup", end.TOTPSetup)
	r.POST("/api/totp/enable", end.TOTPEnable)
	r.POST("/api/totp/disable", end.TOTPDisable)

	// Catalogue & user lookup
	r.GET("/api/channels", end.Channels)
	r.GET("/api/users/:id", end.UserDetail) // need authenticated

	// Workflow automation
	r.POST("/api/webhook/n8n", end.Webhook)
	r.GET("/api/webhook-url", end.WebhookURL)
}
