package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/clock"
	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
)

type reaperRepoDB interface {
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

// lockoutGuard is the counter-lifecycle owner; the reaper only triggers its
// stale sweep instead of re-implementing the rule.
type lockoutGuard interface {
	ResetStaleCounters(ctx context.Context) (int64, error)
}

// Reaper purges expired codes on a short tick and clears stale failure
// counters on a daily one.
type Reaper struct {
	repoDB reaperRepoDB
	guard  lockoutGuard
	cfg    config.Config
	clock  clock.Clocker
	uuid   uid.StringID
	ins    instrument.Instrumentation
}

type ReaperDependency struct {
	RepoDB     reaperRepoDB
	Guard      lockoutGuard
	Config     config.Config
	Clock      clock.Clocker
	UUID       uid.StringID
	Instrument instrument.Instrumentation
}

func NewReaper(dep ReaperDependency) *Reaper {
	return &Reaper{
		repoDB: dep.RepoDB,
		guard:  dep.Guard,
		cfg:    dep.Config,
		clock:  dep.Clock,
		uuid:   dep.UUID,
		ins:    dep.Instrument,
	}
}

// Run ticks until the context is canceled. Sweep errors are logged and the
// schedule continues.
func (r *Reaper) Run(ctx context.Context) error {
	purgeEvery := r.cfg.GetMinute("modules.verification.reaper_purge_minutes")
	sweepEvery := r.cfg.GetHour("modules.verification.reaper_stale_sweep_hours")

	purgeTicker := time.NewTicker(purgeEvery)
	defer purgeTicker.Stop()

	sweepTicker := time.NewTicker(sweepEvery)
	defer sweepTicker.Stop()

	slog.InfoContext(ctx, "reaper started",
		"purge_every", purgeEvery.String(), "sweep_every", sweepEvery.String())

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "reaper stopped", "because", ctx.Err())
			return nil

		case <-purgeTicker.C:
			r.purgeExpired(ctx)

		case <-sweepTicker.C:
			r.sweepStaleCounters(ctx)
		}
	}
}

func (r *Reaper) purgeExpired(pCtx context.Context) {
	ctx := instrument.SetCorrelationID(pCtx, r.uuid.Generate())
	ctx, span := r.ins.Tracer("verification.worker").Start(ctx, "PurgeExpiredCodes")
	defer span.End()

	count, err := r.repoDB.DeleteExpiredCodes(ctx, r.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to purge expired codes", "error", err)
		return
	}

	if count > 0 {
		slog.InfoContext(ctx, "purged expired codes", "count", count)
	}
}

func (r *Reaper) sweepStaleCounters(pCtx context.Context) {
	ctx := instrument.SetCorrelationID(pCtx, r.uuid.Generate())
	ctx, span := r.ins.Tracer("verification.worker").Start(ctx, "SweepStaleCounters")
	defer span.End()

	count, err := r.guard.ResetStaleCounters(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sweep stale counters", "error", err)
		return
	}

	if count > 0 {
		slog.InfoContext(ctx, "reset stale failure counters", "count", count)
	}
}
