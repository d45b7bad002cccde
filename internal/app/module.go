package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/goverify/internal/verification"
)

func (a *App) initModules() {
	if err := verification.New(verification.Dependency{
		Ctx:          a.ctx,
		DBConn:       a.dbConn,
		Goroutine:    a.goroutine,
		Router:       a.router,
		Messaging:    a.messaging,
		Config:       a.config,
		Instrument:   a.ins,
		UUID:         a.uuid,
		NumberID:     a.uid,
		HMAC:         a.hmac,
		MFAEncryptor: a.mfaEncryptor,
		Clock:        a.clock,
		Totp:         a.totp,
		Validator:    a.validator,
		JWT:          a.jwt,
		Mail:         a.mail,
	}); err != nil {
		slog.Error("failed to init module verification", "error", err)
		os.Exit(1)
	}
}
