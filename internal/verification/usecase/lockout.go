package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

// The guard owns the failure-counter lifecycle: requests feed it through
// onFailure/onSuccess, ensureNotLocked self-clears elapsed windows, and the
// reaper's daily sweep goes through ResetStaleCounters.

func (s *Usecase) lockoutMaxFailures() int32 {
	return s.cfg.GetInt32("modules.verification.lockout_max_failures")
}

// ensureNotLocked rejects the request while the user is inside an active
// lockout window. An elapsed window resets the counter on the spot.
func (s *Usecase) ensureNotLocked(ctx context.Context, user *entity.User) error {
	if user.FailedAttempts < s.lockoutMaxFailures() || user.LastFailedAt == nil {
		return nil
	}

	window := s.cfg.GetMinute("modules.verification.lockout_window_minutes")
	elapsed := s.clock.Now().Sub(*user.LastFailedAt)
	if elapsed >= window {
		if err := s.repoDB.ResetFailures(ctx, user.ID); err != nil {
			slog.ErrorContext(ctx, "failed to repo reset failures", "user_id", user.ID, "error", err)
			return goerror.NewServer(err)
		}

		return nil
	}

	remaining := int64(math.Ceil((window - elapsed).Seconds()))
	slog.WarnContext(ctx, "user is locked out", "user_id", user.ID, "remaining_seconds", remaining)

	msg := fmt.Sprintf("too many failed attempts, retry in %d seconds", remaining)

	return goerror.NewBusiness(msg, goerror.CodeTooManyRequest)
}

// onFailure records one failed verification toward the lockout threshold.
func (s *Usecase) onFailure(ctx context.Context, userID string) {
	count, err := s.repoDB.RecordFailure(ctx, userID, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo record failure", "user_id", userID, "error", err)
		return
	}

	if count >= s.lockoutMaxFailures() {
		slog.WarnContext(ctx, "user reached lockout threshold", "user_id", userID, "failures", count)
	}
}

// onSuccess clears the failure counter after a valid verification.
func (s *Usecase) onSuccess(ctx context.Context, userID string) {
	if err := s.repoDB.ResetFailures(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "failed to repo reset failures", "user_id", userID, "error", err)
	}
}

// ResetStaleCounters clears counters whose last failure is older than the
// stale bound. The reaper calls this on its daily tick.
func (s *Usecase) ResetStaleCounters(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "ResetStaleCounters")
	defer span.End()

	stale := s.cfg.GetHour("modules.verification.lockout_stale_hours")
	cutoff := s.clock.Now().Add(-stale)

	count, err := s.repoDB.ResetStaleFailures(ctx, cutoff)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reset stale failures", "error", err)
		return 0, goerror.NewServer(err)
	}

	return count, nil
}
