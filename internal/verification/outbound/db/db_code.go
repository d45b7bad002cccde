package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

// IssueCode stores a fresh code hash for the (user, channel) pair, replacing
// any live code so only the newest one can be consumed.
func (s *DB) IssueCode(ctx context.Context, code entity.OtpCode) (err error) {
	ctx, span := s.startSpan(ctx, "IssueCode")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return s.mapError(err)
	}
	defer s.rollback(ctx, tx)

	_, err = tx.Exec(ctx, `DELETE FROM verification_codes WHERE user_id = $1 AND channel = $2`,
		code.UserID, code.Channel)
	if err != nil {
		return s.mapError(err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO verification_codes (user_id, channel, code_hash, expires_at)
		VALUES ($1, $2, $3, $4)`, code.UserID, code.Channel, code.CodeHash, code.ExpiresAt)
	if err != nil {
		return s.mapError(err)
	}

	return s.mapError(tx.Commit(ctx))
}

// ConsumeCode atomically checks a submitted code hash against the stored one.
//
// The stored row is locked for the duration so concurrent attempts against
// the same code serialize. Valid, expired and exhausted codes are removed;
// a mismatch only burns an attempt. No stored code maps to ErrNotFound.
func (s *DB) ConsumeCode(ctx context.Context, userID string, ch entity.Channel, codeHash string, now time.Time, maxAttempts int32) (_ entity.VerifyOutcome, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeCode")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, s.mapError(err)
	}
	defer s.rollback(ctx, tx)

	var (
		id        int64
		stored    string
		expiresAt time.Time
		attempts  int32
	)
	err = tx.QueryRow(ctx, `SELECT id, code_hash, expires_at, attempts FROM verification_codes
		WHERE user_id = $1 AND channel = $2 FOR UPDATE`, userID, ch).
		Scan(&id, &stored, &expiresAt, &attempts)
	if err != nil {
		return 0, s.mapError(err)
	}

	if !now.Before(expiresAt) {
		if _, err = tx.Exec(ctx, `DELETE FROM verification_codes WHERE id = $1`, id); err != nil {
			return 0, s.mapError(err)
		}
		if err = s.mapError(tx.Commit(ctx)); err != nil {
			return 0, err
		}

		return entity.VerifyOutcomeExpired, nil
	}

	if attempts+1 > maxAttempts {
		if _, err = tx.Exec(ctx, `DELETE FROM verification_codes WHERE id = $1`, id); err != nil {
			return 0, s.mapError(err)
		}
		if err = s.mapError(tx.Commit(ctx)); err != nil {
			return 0, err
		}

		return entity.VerifyOutcomeExhausted, nil
	}

	if stored == codeHash {
		if _, err = tx.Exec(ctx, `DELETE FROM verification_codes WHERE id = $1`, id); err != nil {
			return 0, s.mapError(err)
		}
		if err = s.mapError(tx.Commit(ctx)); err != nil {
			return 0, err
		}

		return entity.VerifyOutcomeValid, nil
	}

	_, err = tx.Exec(ctx, `UPDATE verification_codes SET attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return 0, s.mapError(err)
	}
	if err = s.mapError(tx.Commit(ctx)); err != nil {
		return 0, err
	}

	return entity.VerifyOutcomeMismatch, nil
}

// DeleteExpiredCodes purges codes past their expiry, returning how many were
// removed.
func (s *DB) DeleteExpiredCodes(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredCodes")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM verification_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
