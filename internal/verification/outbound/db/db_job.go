package db

import (
	"context"

	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

func (s *DB) EnqueueDispatch(ctx context.Context, job entity.DispatchJob) (err error) {
	ctx, span := s.startSpan(ctx, "EnqueueDispatch")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `INSERT INTO verification_dispatch_jobs
		(id, user_id, channel, code, destination, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, job.UserID, job.Channel, job.Code, job.Destination, entity.JobStatusPending)

	return s.mapError(err)
}

// ClaimDispatchJobs moves up to limit pending jobs to processing and returns
// them. SKIP LOCKED keeps concurrent dispatchers from claiming the same row.
func (s *DB) ClaimDispatchJobs(ctx context.Context, limit int32) (_ []entity.DispatchJob, err error) {
	ctx, span := s.startSpan(ctx, "ClaimDispatchJobs")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `UPDATE verification_dispatch_jobs SET
		status = $2, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM verification_dispatch_jobs
			WHERE status = $3
			ORDER BY id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, user_id, channel, code, destination, status, created_at, updated_at`,
		limit, entity.JobStatusProcessing, entity.JobStatusPending)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	jobs := make([]entity.DispatchJob, 0, limit)
	for rows.Next() {
		var job entity.DispatchJob
		err = rows.Scan(&job.ID, &job.UserID, &job.Channel, &job.Code, &job.Destination,
			&job.Status, &job.CreatedAt, &job.UpdatedAt)
		if err != nil {
			return nil, s.mapError(err)
		}

		jobs = append(jobs, job)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return jobs, nil
}

func (s *DB) CompleteDispatchJob(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "CompleteDispatchJob")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `UPDATE verification_dispatch_jobs SET
		status = $2, error_detail = '', updated_at = NOW()
		WHERE id = $1 AND status = $3`, id, entity.JobStatusCompleted, entity.JobStatusProcessing)

	return s.mapError(err)
}

func (s *DB) FailDispatchJob(ctx context.Context, id int64, detail string) (err error) {
	ctx, span := s.startSpan(ctx, "FailDispatchJob")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `UPDATE verification_dispatch_jobs SET
		status = $2, error_detail = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		id, entity.JobStatusFailed, detail, entity.JobStatusProcessing)

	return s.mapError(err)
}
