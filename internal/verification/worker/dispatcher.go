// Package worker holds the background loops of the verification module: the
// dispatch queue consumer and the reaper.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
	"github.com/shandysiswandi/goverify/internal/verification/outbound/sender"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

type dispatcherRepoDB interface {
	ClaimDispatchJobs(ctx context.Context, limit int32) ([]entity.DispatchJob, error)
	CompleteDispatchJob(ctx context.Context, id int64) error
	FailDispatchJob(ctx context.Context, id int64, detail string) error
}

type dispatcherRepoMessaging interface {
	PublishCodeDispatched(ctx context.Context, msg usecase.CodeDispatchedEvent) error
}

// Dispatcher polls the queue and pushes claimed codes through the channel
// senders. Multiple instances can run side by side; claiming skips locked
// rows so no job is delivered twice.
type Dispatcher struct {
	repoDB        dispatcherRepoDB
	repoMessaging dispatcherRepoMessaging
	senders       *sender.Registry
	cfg           config.Config
	uuid          uid.StringID
	ins           instrument.Instrumentation
}

type DispatcherDependency struct {
	RepoDB        dispatcherRepoDB
	RepoMessaging dispatcherRepoMessaging
	Senders       *sender.Registry
	Config        config.Config
	UUID          uid.StringID
	Instrument    instrument.Instrumentation
}

func NewDispatcher(dep DispatcherDependency) *Dispatcher {
	return &Dispatcher{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		senders:       dep.Senders,
		cfg:           dep.Config,
		uuid:          dep.UUID,
		ins:           dep.Instrument,
	}
}

// Run ticks until the context is canceled. Tick errors are logged and the
// schedule continues.
func (d *Dispatcher) Run(ctx context.Context) error {
	interval := d.cfg.GetSecond("modules.verification.dispatch_poll_seconds")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "dispatch worker started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "dispatch worker stopped", "because", ctx.Err())
			return nil

		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Dispatcher) tick(pCtx context.Context) {
	ctx := instrument.SetCorrelationID(pCtx, d.uuid.Generate())
	ctx, span := d.ins.Tracer("verification.worker").Start(ctx, "DispatchTick")
	defer span.End()

	jobs, err := d.repoDB.ClaimDispatchJobs(ctx, d.cfg.GetInt32("modules.verification.dispatch_batch_size"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to claim dispatch jobs", "error", err)
		return
	}

	for _, job := range jobs {
		d.deliver(ctx, job)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job entity.DispatchJob) {
	sendErr := d.send(ctx, job)

	if sendErr != nil {
		slog.WarnContext(ctx, "code delivery failed", "job_id", job.ID,
			"channel", job.Channel.String(), "error", sendErr)

		if err := d.repoDB.FailDispatchJob(ctx, job.ID, sendErr.Error()); err != nil {
			slog.ErrorContext(ctx, "failed to mark job failed", "job_id", job.ID, "error", err)
		}
	} else if err := d.repoDB.CompleteDispatchJob(ctx, job.ID); err != nil {
		slog.ErrorContext(ctx, "failed to mark job completed", "job_id", job.ID, "error", err)
	}

	msg := usecase.CodeDispatchedEvent{
		JobID:       job.ID,
		UserID:      job.UserID,
		Channel:     job.Channel.String(),
		Destination: job.Destination,
		Success:     sendErr == nil,
	}
	if sendErr != nil {
		msg.Error = sendErr.Error()
	}

	if err := d.repoMessaging.PublishCodeDispatched(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to publish code dispatched", "job_id", job.ID, "error", err)
	}
}

// send resolves the channel sender and tries the delivery three times with
// fibonacci backoff.
func (d *Dispatcher) send(ctx context.Context, job entity.DispatchJob) error {
	snd, err := d.senders.Resolve(job.Channel)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(
		d.cfg.GetSecond("modules.verification.dispatch_backoff_seconds")))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := snd.Send(ctx, job.Destination, job.Code); err != nil {
			return retry.RetryableError(err)
		}

		return nil
	})
}
