package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
	"github.com/shandysiswandi/goverify/internal/verification/outbound/sender"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

const workerConfigYAML = `
modules:
  verification:
    dispatch_poll_seconds: 5
    dispatch_batch_size: 10
    dispatch_backoff_seconds: 1
    reaper_purge_minutes: 5
    reaper_stale_sweep_hours: 24
`

type fakeJobRepo struct {
	mu        sync.Mutex
	pending   []entity.DispatchJob
	completed []int64
	failed    map[int64]string
	claimErr  error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{failed: make(map[int64]string)}
}

func (r *fakeJobRepo) ClaimDispatchJobs(_ context.Context, limit int32) ([]entity.DispatchJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.claimErr != nil {
		return nil, r.claimErr
	}

	n := int(limit)
	if n > len(r.pending) {
		n = len(r.pending)
	}

	claimed := r.pending[:n]
	r.pending = r.pending[n:]

	return claimed, nil
}

func (r *fakeJobRepo) CompleteDispatchJob(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed = append(r.completed, id)

	return nil
}

func (r *fakeJobRepo) FailDispatchJob(_ context.Context, id int64, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failed[id] = detail

	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []usecase.CodeDispatchedEvent
}

func (p *fakePublisher) PublishCodeDispatched(_ context.Context, msg usecase.CodeDispatchedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, msg)

	return nil
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []string
	failHits int
}

func (s *fakeSender) Send(_ context.Context, destination, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failHits > 0 {
		s.failHits--
		return errors.New("provider unavailable")
	}

	s.sent = append(s.sent, destination+":"+code)

	return nil
}

func newTestDispatcher(t *testing.T, repo *fakeJobRepo, pub *fakePublisher, reg *sender.Registry) *Dispatcher {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(workerConfigYAML))
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}
	t.Cleanup(func() { cfg.Close() })

	return NewDispatcher(DispatcherDependency{
		RepoDB:        repo,
		RepoMessaging: pub,
		Senders:       reg,
		Config:        cfg,
		UUID:          uid.NewUUID(),
		Instrument:    instrument.NewNoop(),
	})
}

func TestDispatcherDeliversClaimedJobs(t *testing.T) {
	repo := newFakeJobRepo()
	repo.pending = []entity.DispatchJob{
		{ID: 1, UserID: "u1", Channel: entity.ChannelSMS, Code: "123456", Destination: "+6281234567890"},
		{ID: 2, UserID: "u2", Channel: entity.ChannelSMS, Code: "654321", Destination: "+6289876543210"},
	}

	snd := &fakeSender{}
	reg := sender.NewRegistry()
	reg.Register(entity.ChannelSMS, snd)

	pub := &fakePublisher{}
	d := newTestDispatcher(t, repo, pub, reg)

	d.tick(context.Background())

	if len(snd.sent) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(snd.sent))
	}
	if len(repo.completed) != 2 {
		t.Fatalf("expected 2 completed jobs, got %v", repo.completed)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("expected no failed jobs, got %v", repo.failed)
	}
	if len(repo.pending) != 0 {
		t.Fatalf("expected queue drained, got %d pending", len(repo.pending))
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 dispatched events, got %d", len(pub.events))
	}
	if ev := pub.events[0]; !ev.Success || ev.JobID != 1 || ev.Channel != "sms" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestDispatcherRetriesTransientFailure(t *testing.T) {
	repo := newFakeJobRepo()
	repo.pending = []entity.DispatchJob{
		{ID: 7, UserID: "u1", Channel: entity.ChannelSMS, Code: "111111", Destination: "+15550001111"},
	}

	// Two failures are within the retry budget of three attempts.
	snd := &fakeSender{failHits: 2}
	reg := sender.NewRegistry()
	reg.Register(entity.ChannelSMS, snd)

	pub := &fakePublisher{}
	d := newTestDispatcher(t, repo, pub, reg)

	d.tick(context.Background())

	if len(snd.sent) != 1 {
		t.Fatalf("expected delivery after retries, got %d", len(snd.sent))
	}
	if len(repo.completed) != 1 || repo.completed[0] != 7 {
		t.Fatalf("expected job 7 completed, got %v", repo.completed)
	}
}

func TestDispatcherMarksJobFailedAfterRetries(t *testing.T) {
	repo := newFakeJobRepo()
	repo.pending = []entity.DispatchJob{
		{ID: 9, UserID: "u1", Channel: entity.ChannelSMS, Code: "222222", Destination: "+15550002222"},
	}

	snd := &fakeSender{failHits: 3}
	reg := sender.NewRegistry()
	reg.Register(entity.ChannelSMS, snd)

	pub := &fakePublisher{}
	d := newTestDispatcher(t, repo, pub, reg)

	d.tick(context.Background())

	if len(repo.completed) != 0 {
		t.Fatalf("expected no completed jobs, got %v", repo.completed)
	}
	if detail, ok := repo.failed[9]; !ok || detail == "" {
		t.Fatalf("expected job 9 failed with detail, got %v", repo.failed)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 dispatched event, got %d", len(pub.events))
	}
	if ev := pub.events[0]; ev.Success || ev.Error == "" {
		t.Fatalf("expected failure event with detail, got %+v", ev)
	}
}

func TestDispatcherFailsJobWithoutSender(t *testing.T) {
	repo := newFakeJobRepo()
	repo.pending = []entity.DispatchJob{
		{ID: 3, UserID: "u1", Channel: entity.ChannelEmail, Code: "333333", Destination: "a@example.com"},
	}

	pub := &fakePublisher{}
	d := newTestDispatcher(t, repo, pub, sender.NewRegistry())

	d.tick(context.Background())

	if _, ok := repo.failed[3]; !ok {
		t.Fatalf("expected job 3 failed, got %v", repo.failed)
	}
}

func TestDispatcherHonorsBatchSize(t *testing.T) {
	repo := newFakeJobRepo()
	for i := int64(1); i <= 15; i++ {
		repo.pending = append(repo.pending, entity.DispatchJob{
			ID: i, UserID: "u1", Channel: entity.ChannelSMS, Code: "444444", Destination: "+15550003333",
		})
	}

	snd := &fakeSender{}
	reg := sender.NewRegistry()
	reg.Register(entity.ChannelSMS, snd)

	pub := &fakePublisher{}
	d := newTestDispatcher(t, repo, pub, reg)

	d.tick(context.Background())

	if len(repo.completed) != 10 {
		t.Fatalf("expected batch of 10, got %d", len(repo.completed))
	}
	if len(repo.pending) != 5 {
		t.Fatalf("expected 5 jobs left, got %d", len(repo.pending))
	}
}
