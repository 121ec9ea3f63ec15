package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/safesight/safesight/internal/repository"
)

// Job type constants. These must match JobHandler.Type() values.
const (
	JobTypeAnalyzePhotos = "analyze_photos"
)

// Priority constants for job scheduling.
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// AnalyzePhotosPayload is the payload for photo analysis jobs.
type AnalyzePhotosPayload struct {
	InspectionID uuid.UUID   `json:"inspection_id"`
	PhotoIDs     []uuid.UUID `json:"photo_ids"`
	ActingUserID uuid.UUID   `json:"acting_user_id"`
}

// EnqueueOption customizes job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of delivery attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob marshals the payload and inserts a pending job.
func EnqueueJob(
	ctx context.Context,
	queries *repository.Queries,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&params)
	}

	job, err := queries.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}

// EnqueueAnalyzePhotos enqueues analysis of an inspection's photos. Called
// when the inspector submits captured photos for analysis.
func EnqueueAnalyzePhotos(
	ctx context.Context,
	queries *repository.Queries,
	inspectionID uuid.UUID,
	photoIDs []uuid.UUID,
	actingUserID uuid.UUID,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := AnalyzePhotosPayload{
		InspectionID: inspectionID,
		PhotoIDs:     photoIDs,
		ActingUserID: actingUserID,
	}

	return EnqueueJob(ctx, queries, JobTypeAnalyzePhotos, payload, opts...)
}
