package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

const userColumns = `id, name, phone, email, totp_secret, totp_enabled,
	failed_attempts, last_failed_at, created_at, last_login`

func (s *DB) scanUser(row pgx.Row) (*entity.User, error) {
	var (
		user         entity.User
		lastFailedAt pgtype.Timestamptz
		lastLogin    pgtype.Timestamptz
	)

	err := row.Scan(&user.ID, &user.Name, &user.Phone, &user.Email, &user.TOTPSecret,
		&user.TOTPEnabled, &user.FailedAttempts, &lastFailedAt, &user.CreatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}

	if lastFailedAt.Valid {
		user.LastFailedAt = &lastFailedAt.Time
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return &user, nil
}

func (s *DB) GetUserByID(ctx context.Context, id string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM verification_users WHERE id = $1`, id)

	user, err := s.scanUser(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserByContact(ctx context.Context, phone, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByContact")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM verification_users
		WHERE (phone = $1 AND $1 <> '') OR (email = $2 AND $2 <> '')
		ORDER BY created_at LIMIT 1`, phone, email)

	user, err := s.scanUser(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

// CreateUser inserts the user and its zeroed status row in one transaction.
func (s *DB) CreateUser(ctx context.Context, user entity.User) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return s.mapError(err)
	}
	defer s.rollback(ctx, tx)

	_, err = tx.Exec(ctx, `INSERT INTO verification_users (id, name, phone, email)
		VALUES ($1, $2, $3, $4)`, user.ID, user.Name, user.Phone, user.Email)
	if err != nil {
		return s.mapError(err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO verification_status (user_id) VALUES ($1)`, user.ID)
	if err != nil {
		return s.mapError(err)
	}

	return s.mapError(tx.Commit(ctx))
}

func (s *DB) UpdateUserContact(ctx context.Context, id, name, phone, email string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserContact")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `UPDATE verification_users SET
		name = CASE WHEN $2 <> '' THEN $2 ELSE name END,
		phone = CASE WHEN $3 <> '' THEN $3 ELSE phone END,
		email = CASE WHEN $4 <> '' THEN $4 ELSE email END
		WHERE id = $1`, id, name, phone, email)

	return s.mapError(err)
}

func (s *DB) SetTOTPSecret(ctx context.Context, userID string, secret []byte) (err error) {
	ctx, span := s.startSpan(ctx, "SetTOTPSecret")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `UPDATE verification_users SET totp_secret = $2, totp_enabled = FALSE
		WHERE id = $1`, userID, secret)

	return s.mapError(err)
}

func (s *DB) SetTOTPEnabled(ctx context.Context, userID string, enabled bool) (err error) {
	ctx, span := s.startSpan(ctx, "SetTOTPEnabled")
	defer func() { s.endSpan(span, err) }()

	if enabled {
		_, err = s.conn.Exec(ctx, `UPDATE verification_users SET totp_enabled = TRUE
			WHERE id = $1`, userID)

		return s.mapError(err)
	}

	// Disabling drops the secret and un-verifies the authenticator channel.
	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return s.mapError(err)
	}
	defer s.rollback(ctx, tx)

	_, err = tx.Exec(ctx, `UPDATE verification_users SET totp_enabled = FALSE,
		totp_secret = NULL WHERE id = $1`, userID)
	if err != nil {
		return s.mapError(err)
	}

	_, err = tx.Exec(ctx, `UPDATE verification_status SET totp = FALSE WHERE user_id = $1`, userID)
	if err != nil {
		return s.mapError(err)
	}

	return s.mapError(tx.Commit(ctx))
}

// RecordFailure bumps the failure counter and stamps the failure time,
// returning the new counter value.
func (s *DB) RecordFailure(ctx context.Context, userID string, at time.Time) (_ int32, err error) {
	ctx, span := s.startSpan(ctx, "RecordFailure")
	defer func() { s.endSpan(span, err) }()

	var count int32
	err = s.conn.QueryRow(ctx, `UPDATE verification_users SET
		failed_attempts = failed_attempts + 1, last_failed_at = $2
		WHERE id = $1 RETURNING failed_attempts`, userID, at).Scan(&count)
	if err != nil {
		return 0, s.mapError(err)
	}

	return count, nil
}

func (s *DB) ResetFailures(ctx context.Context, userID string) (err error) {
	ctx, span := s.startSpan(ctx, "ResetFailures")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `UPDATE verification_users SET
		failed_attempts = 0, last_failed_at = NULL WHERE id = $1`, userID)

	return s.mapError(err)
}

// ResetStaleFailures clears counters whose last failure predates the cutoff,
// returning the number of users affected.
func (s *DB) ResetStaleFailures(ctx context.Context, cutoff time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "ResetStaleFailures")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE verification_users SET
		failed_attempts = 0, last_failed_at = NULL
		WHERE failed_attempts > 0 AND last_failed_at < $1`, cutoff)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
