package sender

import (
	"context"
	"fmt"

	"github.com/shandysiswandi/goverify/internal/pkg/mail"
)

// Email sends codes by email through the shared mail provider.
type Email struct {
	mailer mail.Mail
	from   string
}

func NewEmail(mailer mail.Mail, from string) *Email {
	return &Email{mailer: mailer, from: from}
}

func (e *Email) Send(ctx context.Context, destination, code string) error {
	return e.mailer.Send(ctx, mail.Message{
		From:    e.from,
		To:      []string{destination},
		Subject: "Your verification code",
		TextBody: fmt.Sprintf("Your verification code is %s.\n\n"+
			"It expires shortly. If you did not request it, ignore this email.", code),
	})
}
