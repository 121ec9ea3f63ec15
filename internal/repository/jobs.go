package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job statuses in the queue table.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is one row in the jobs queue table.
type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      json.RawMessage
	Status       string
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ErrorMessage sql.NullString
	ScheduledAt  time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EnqueueJobParams holds column values for a new job row.
type EnqueueJobParams struct {
	JobType     string
	Payload     json.RawMessage
	Priority    int32
	MaxAttempts int32
	ScheduledAt time.Time
}

const enqueueJob = `
INSERT INTO jobs (job_type, payload, priority, max_attempts, scheduled_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, job_type, payload, status, priority, attempts, max_attempts, error_message,
          scheduled_at, started_at, completed_at, created_at, updated_at
`

// EnqueueJob inserts a pending job and returns it.
func (q *Queries) EnqueueJob(ctx context.Context, arg EnqueueJobParams) (Job, error) {
	row := q.db.QueryRowContext(ctx, enqueueJob,
		arg.JobType, arg.Payload, arg.Priority, arg.MaxAttempts, arg.ScheduledAt)
	return scanJob(row)
}

const dequeueJob = `
SELECT id, job_type, payload, status, priority, attempts, max_attempts, error_message,
       scheduled_at, started_at, completed_at, created_at, updated_at
FROM jobs
WHERE status = 'pending' AND scheduled_at <= now()
ORDER BY priority DESC, scheduled_at
LIMIT 1
FOR UPDATE SKIP LOCKED
`

// DequeueJob claims the next runnable job. Must run inside a transaction so
// SKIP LOCKED prevents two workers claiming the same row. Returns
// sql.ErrNoRows when the queue is empty.
func (q *Queries) DequeueJob(ctx context.Context) (Job, error) {
	return scanJob(q.db.QueryRowContext(ctx, dequeueJob))
}

const updateJobStarted = `
UPDATE jobs
SET status = 'running', started_at = now(), updated_at = now()
WHERE id = $1
`

// UpdateJobStarted marks a claimed job as running.
func (q *Queries) UpdateJobStarted(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, updateJobStarted, id)
	return err
}

const updateJobCompleted = `
UPDATE jobs
SET status = 'completed', completed_at = now(), updated_at = now()
WHERE id = $1
`

// UpdateJobCompleted marks a job as successfully completed.
func (q *Queries) UpdateJobCompleted(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, updateJobCompleted, id)
	return err
}

// UpdateJobFailedParams records the outcome of a failed execution.
type UpdateJobFailedParams struct {
	ID           uuid.UUID
	ErrorMessage sql.NullString
	Permanent    bool
}

const updateJobFailed = `
UPDATE jobs
SET attempts = attempts + 1,
    error_message = $2,
    status = CASE WHEN $3 OR attempts + 1 >= max_attempts THEN 'failed' ELSE 'pending' END,
    completed_at = CASE WHEN $3 OR attempts + 1 >= max_attempts THEN now() ELSE NULL END,
    scheduled_at = CASE WHEN $3 OR attempts + 1 >= max_attempts
                        THEN scheduled_at
                        ELSE now() + (interval '30 seconds' * power(2, attempts)) END,
    started_at = NULL,
    updated_at = now()
WHERE id = $1
`

// UpdateJobFailed records a failed attempt. Permanent failures (or exhausted
// attempts) are marked failed; anything else is rescheduled with exponential
// backoff.
func (q *Queries) UpdateJobFailed(ctx context.Context, arg UpdateJobFailedParams) error {
	_, err := q.db.ExecContext(ctx, updateJobFailed, arg.ID, arg.ErrorMessage, arg.Permanent)
	return err
}

const recoverStaleJobs = `
UPDATE jobs
SET status = 'pending', started_at = NULL, updated_at = now()
WHERE status = 'running' AND started_at < now() - ($1 * interval '1 second')
`

// RecoverStaleJobs resets jobs stuck in 'running' longer than the threshold,
// typically left behind by a crashed worker. Returns the number recovered.
func (q *Queries) RecoverStaleJobs(ctx context.Context, thresholdSeconds float64) (int64, error) {
	res, err := q.db.ExecContext(ctx, recoverStaleJobs, thresholdSeconds)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanJob(row *sql.Row) (Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.JobType, &j.Payload, &j.Status, &j.Priority, &j.Attempts, &j.MaxAttempts,
		&j.ErrorMessage, &j.ScheduledAt, &j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}
