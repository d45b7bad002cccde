package verification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/goverify/internal/pkg/clock"
	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/goroutine"
	"github.com/shandysiswandi/goverify/internal/pkg/hash"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/jwt"
	"github.com/shandysiswandi/goverify/internal/pkg/mail"
	"github.com/shandysiswandi/goverify/internal/pkg/messaging"
	"github.com/shandysiswandi/goverify/internal/pkg/mfa"
	"github.com/shandysiswandi/goverify/internal/pkg/otp"
	"github.com/shandysiswandi/goverify/internal/pkg/router"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/pkg/validator"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
	"github.com/shandysiswandi/goverify/internal/verification/inbound"
	"github.com/shandysiswandi/goverify/internal/verification/outbound/db"
	"github.com/shandysiswandi/goverify/internal/verification/outbound/mq"
	"github.com/shandysiswandi/goverify/internal/verification/outbound/sender"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
	"github.com/shandysiswandi/goverify/internal/verification/worker"
)

type Dependency struct {
	Ctx          context.Context
	DBConn       *pgxpool.Pool              `validate:"required"`
	Goroutine    *goroutine.Manager         `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Messaging    messaging.Messaging        `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UUID         uid.StringID               `validate:"required"`
	NumberID     uid.NumberID               `validate:"required"`
	HMAC         hash.Hash                  `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Totp         otp.OTP                    `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
	JWT          jwt.JWT                    `validate:"required"`
	Mail         mail.Mail                  `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbVerif := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbVerif,
		RepoMessaging: repoMsg,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		MFAEncryptor:  dep.MFAEncryptor,
		UUID:          dep.UUID,
		NumberID:      dep.NumberID,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Config)

	if dep.Ctx != nil {
		dispatcher := worker.NewDispatcher(worker.DispatcherDependency{
			RepoDB:        dbVerif,
			RepoMessaging: repoMsg,
			Senders:       buildSenders(dep.Config, dep.Mail),
			Config:        dep.Config,
			UUID:          dep.UUID,
			Instrument:    dep.Instrument,
		})
		dep.Goroutine.Go(dep.Ctx, dispatcher.Run)

		reaper := worker.NewReaper(worker.ReaperDependency{
			RepoDB:     dbVerif,
			Guard:      uc,
			Config:     dep.Config,
			Clock:      dep.Clock,
			UUID:       dep.UUID,
			Instrument: dep.Instrument,
		})
		dep.Goroutine.Go(dep.Ctx, reaper.Run)
	}

	return nil
}

// buildSenders wires one delivery adapter per out-of-band channel from
// config.
func buildSenders(cfg config.Config, mailer mail.Mail) *sender.Registry {
	registry := sender.NewRegistry()

	smsPrefix := "modules.verification.channels.sms."
	registry.Register(entity.ChannelSMS, sender.NewSMS(sender.SMSConfig{
		BaseURL:  cfg.GetString(smsPrefix + "base_url"),
		Username: cfg.GetString(smsPrefix + "username"),
		APIKey:   cfg.GetString(smsPrefix + "api_key"),
		From:     cfg.GetString(smsPrefix + "from"),
		Timeout:  cfg.GetSecond(smsPrefix + "timeout_seconds"),
	}))

	registry.Register(entity.ChannelEmail, sender.NewEmail(mailer,
		cfg.GetString("modules.verification.channels.email.from")))

	voicePrefix := "modules.verification.channels.call."
	registry.Register(entity.ChannelVoice, sender.NewVoice(sender.VoiceConfig{
		BaseURL:     cfg.GetString(voicePrefix + "base_url"),
		Token:       cfg.GetString(voicePrefix + "token"),
		AssistantID: cfg.GetString(voicePrefix + "assistant_id"),
		PhoneID:     cfg.GetString(voicePrefix + "phone_id"),
		Timeout:     cfg.GetSecond(voicePrefix + "timeout_seconds"),
	}))

	waPrefix := "modules.verification.channels.whatsapp."
	registry.Register(entity.ChannelWhatsApp, sender.NewWhatsApp(sender.WhatsAppConfig{
		BaseURL:       cfg.GetString(waPrefix + "base_url"),
		Token:         cfg.GetString(waPrefix + "token"),
		PhoneNumberID: cfg.GetString(waPrefix + "phone_number_id"),
		Timeout:       cfg.GetSecond(waPrefix + "timeout_seconds"),
	}))

	return registry
}
