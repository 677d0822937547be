package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskExtractionRun processes one extraction job page by page.
	TaskExtractionRun = "extraction:run"
	// TaskIdempotencyCleanup prunes aged idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// ExtractionRunPayload identifies the job to run.
type ExtractionRunPayload struct {
	JobID string `json:"job_id"`
}

// NewExtractionRunTask constructs an Asynq task for one extraction job.
// The task ID pins the job so a double enqueue collapses into one run.
func NewExtractionRunTask(jobID string) (*asynq.Task, error) {
	data, err := json.Marshal(ExtractionRunPayload{JobID: jobID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExtractionRun, data, asynq.Queue(QueueDefault), asynq.TaskID("extraction:"+jobID)), nil
}

// ExtractionRunner runs an extraction job to completion.
type ExtractionRunner interface {
	RunJob(ctx context.Context, jobID string) error
}

// NewExtractionRunHandler returns the handler for TaskExtractionRun.
func NewExtractionRunHandler(runner ExtractionRunner, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ExtractionRunPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.JobID == "" {
			return asynq.SkipRetry
		}
		if err := runner.RunJob(ctx, payload.JobID); err != nil {
			logger.Error("extraction run", slog.Any("error", err), slog.String("job_id", payload.JobID))
			return err
		}
		return nil
	}
}

// IdempotencyCleanupPayload carries the retention window.
type IdempotencyCleanupPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewIdempotencyCleanupTask constructs the nightly cleanup task.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleaner prunes idempotency keys older than the window.
type IdempotencyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// NewIdempotencyCleanupHandler returns the handler for TaskIdempotencyCleanup.
func NewIdempotencyCleanupHandler(cleaner IdempotencyCleaner, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload IdempotencyCleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.OlderThan <= 0 {
			payload.OlderThan = 7 * 24 * time.Hour
		}
		if err := cleaner.Cleanup(ctx, payload.OlderThan); err != nil {
			logger.Error("idempotency cleanup", slog.Any("error", err))
			return err
		}
		return nil
	}
}
