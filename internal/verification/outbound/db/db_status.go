package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

// statusColumn maps a channel to its flag column. Channels are a closed set;
// the SQL below only ever interpolates these literals.
func statusColumn(ch entity.Channel) (string, error) {
	switch ch {
	case entity.ChannelSMS:
		return "sms", nil
	case entity.ChannelEmail:
		return "email", nil
	case entity.ChannelVoice:
		return "voice", nil
	case entity.ChannelWhatsApp:
		return "whatsapp", nil
	case entity.ChannelTOTP:
		return "totp", nil
	default:
		return "", fmt.Errorf("no status column for channel %q", ch)
	}
}

func (s *DB) GetStatus(ctx context.Context, userID string) (_ *entity.Status, err error) {
	ctx, span := s.startSpan(ctx, "GetStatus")
	defer func() { s.endSpan(span, err) }()

	status := entity.Status{UserID: userID}
	err = s.conn.QueryRow(ctx, `SELECT sms, email, voice, whatsapp, totp
		FROM verification_status WHERE user_id = $1`, userID).
		Scan(&status.SMS, &status.Email, &status.Voice, &status.WhatsApp, &status.TOTP)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &status, nil
}

// MarkChannelVerified flips the channel flag on and stamps the user's
// last_login. Flipping an already-set flag is a no-op.
func (s *DB) MarkChannelVerified(ctx context.Context, userID string, ch entity.Channel, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkChannelVerified")
	defer func() { s.endSpan(span, err) }()

	column, err := statusColumn(ch)
	if err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return s.mapError(err)
	}
	defer s.rollback(ctx, tx)

	query := fmt.Sprintf(`UPDATE verification_status SET %s = TRUE WHERE user_id = $1`, column)
	if _, err = tx.Exec(ctx, query, userID); err != nil {
		return s.mapError(err)
	}

	_, err = tx.Exec(ctx, `UPDATE verification_users SET last_login = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return s.mapError(err)
	}

	return s.mapError(tx.Commit(ctx))
}
