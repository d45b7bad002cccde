package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
)

type fakeCodeRepo struct {
	mu      sync.Mutex
	purged  []time.Time
	deleted int64
}

func (r *fakeCodeRepo) DeleteExpiredCodes(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.purged = append(r.purged, now)

	return r.deleted, nil
}

type fakeGuard struct {
	mu     sync.Mutex
	sweeps int
	reset  int64
}

func (g *fakeGuard) ResetStaleCounters(_ context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweeps++

	return g.reset, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestReaper(t *testing.T, repo *fakeCodeRepo, guard *fakeGuard, now time.Time) *Reaper {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(workerConfigYAML))
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}
	t.Cleanup(func() { cfg.Close() })

	return NewReaper(ReaperDependency{
		RepoDB:     repo,
		Guard:      guard,
		Config:     cfg,
		Clock:      fixedClock{now: now},
		UUID:       uid.NewUUID(),
		Instrument: instrument.NewNoop(),
	})
}

func TestReaperPurgeUsesClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeCodeRepo{deleted: 3}
	guard := &fakeGuard{}
	r := newTestReaper(t, repo, guard, now)

	r.purgeExpired(context.Background())

	if len(repo.purged) != 1 {
		t.Fatalf("expected one purge call, got %d", len(repo.purged))
	}
	if !repo.purged[0].Equal(now) {
		t.Fatalf("expected purge at %v, got %v", now, repo.purged[0])
	}
	if guard.sweeps != 0 {
		t.Fatal("purge must not trigger the stale sweep")
	}
}

func TestReaperSweepDelegatesToGuard(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeCodeRepo{}
	guard := &fakeGuard{reset: 2}
	r := newTestReaper(t, repo, guard, now)

	r.sweepStaleCounters(context.Background())

	if guard.sweeps != 1 {
		t.Fatalf("expected one sweep, got %d", guard.sweeps)
	}
	if len(repo.purged) != 0 {
		t.Fatal("sweep must not purge codes")
	}
}
