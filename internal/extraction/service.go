package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	CreateJob(ctx context.Context, job ExtractionJob) error
	GetJob(ctx context.Context, id string) (ExtractionJob, error)
	UpdateJobStatus(ctx context.Context, id string, status JobStatus, errMsg string) error
	SavePageResult(ctx context.Context, result PageExtractResult) error
	ListPageResults(ctx context.Context, jobID string) ([]PageExtractResult, error)
	SaveDrafts(ctx context.Context, jobID string, orders []PurchaseOrderExtract) error
	GetDrafts(ctx context.Context, jobID string) ([]PurchaseOrderExtract, error)
}

// ExtractorPort abstracts the per-page extraction API.
type ExtractorPort interface {
	ExtractPage(ctx context.Context, jobID string, pageNum int) (PageExtractResult, error)
}

// QueuePort enqueues extraction runs for background processing.
type QueuePort interface {
	EnqueueExtractionRun(ctx context.Context, jobID string) error
}

// MetricsPort counts extraction outcomes.
type MetricsPort interface {
	PageExtracted(outcome string)
}

// Service orchestrates extraction jobs.
type Service struct {
	repo      RepositoryPort
	extractor ExtractorPort
	queue     QueuePort
	resolver  *Resolver
	metrics   MetricsPort
	logger    *slog.Logger
}

// NewService constructs the extraction service.
func NewService(repo RepositoryPort, extractor ExtractorPort, queue QueuePort, resolver *Resolver, metrics MetricsPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, extractor: extractor, queue: queue, resolver: resolver, metrics: metrics, logger: logger}
}

// CreateJobInput describes an uploaded document to extract.
type CreateJobInput struct {
	Filename    string
	DocumentRef string
	TotalPages  int
	ActorID     string
}

// CreateJob registers a job and enqueues its background run.
func (s *Service) CreateJob(ctx context.Context, input CreateJobInput) (ExtractionJob, error) {
	if input.Filename == "" || input.DocumentRef == "" {
		return ExtractionJob{}, fmt.Errorf("%w: filename and document_ref required", ErrValidation)
	}
	if input.TotalPages <= 0 {
		return ExtractionJob{}, fmt.Errorf("%w: total_pages must be positive", ErrValidation)
	}
	now := time.Now().UTC()
	job := ExtractionJob{
		ID:          uuid.NewString(),
		Filename:    input.Filename,
		DocumentRef: input.DocumentRef,
		TotalPages:  input.TotalPages,
		Status:      JobStatusPending,
		CreatedBy:   input.ActorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return ExtractionJob{}, err
	}
	if s.queue != nil {
		if err := s.queue.EnqueueExtractionRun(ctx, job.ID); err != nil {
			_ = s.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "enqueue failed")
			return ExtractionJob{}, err
		}
	}
	return job, nil
}

// PageStatus summarises one processed page for progress reporting.
type PageStatus struct {
	PageNum        int    `json:"page_num"`
	Outcome        string `json:"outcome"`
	PurchaseOrders int    `json:"purchase_orders"`
}

// JobDetail couples a job with the outcome of every page processed so far.
type JobDetail struct {
	Job   ExtractionJob
	Pages []PageStatus
}

// JobDetail returns a job together with its per-page outcomes. Pages not
// yet processed have no entry, so a running job reports a growing list.
func (s *Service) JobDetail(ctx context.Context, id string) (JobDetail, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return JobDetail{}, err
	}
	pages, err := s.repo.ListPageResults(ctx, id)
	if err != nil {
		return JobDetail{}, err
	}
	statuses := make([]PageStatus, 0, len(pages))
	for _, page := range pages {
		statuses = append(statuses, PageStatus{
			PageNum:        page.PageNum,
			Outcome:        page.Outcome,
			PurchaseOrders: len(page.PurchaseOrders),
		})
	}
	return JobDetail{Job: job, Pages: statuses}, nil
}

// RunJob extracts every page of a job sequentially, merges the results and
// stores the merged drafts. Pages are requested one at a time: the next
// request goes out only after the previous response (or its failure)
// resolved, so at most one extraction call is in flight per job. A failed
// page is recorded as an empty result and never aborts the run.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == JobStatusDone {
		return nil
	}
	if err := s.repo.UpdateJobStatus(ctx, jobID, JobStatusRunning, ""); err != nil {
		return err
	}

	pages := make([]PageExtractResult, 0, job.TotalPages)
	for pageNum := 1; pageNum <= job.TotalPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := s.extractor.ExtractPage(ctx, jobID, pageNum)
		if err != nil {
			s.logger.Warn("page extraction failed, substituting empty result",
				slog.String("job_id", jobID),
				slog.Int("page", pageNum),
				slog.Any("error", err))
			result = PageExtractResult{JobID: jobID, PageNum: pageNum, Outcome: PageOutcomeFailed}
		} else if len(result.PurchaseOrders) == 0 {
			result.Outcome = PageOutcomeEmpty
		} else {
			result.Outcome = PageOutcomeOK
		}
		s.countPage(result.Outcome)
		result.TotalPages = job.TotalPages
		if err := s.repo.SavePageResult(ctx, result); err != nil {
			_ = s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, "persist page result")
			return err
		}
		pages = append(pages, result)
	}

	merged := Merge(pages)
	if err := s.repo.SaveDrafts(ctx, jobID, merged); err != nil {
		_ = s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, "persist drafts")
		return err
	}
	return s.repo.UpdateJobStatus(ctx, jobID, JobStatusDone, "")
}

// MergedResult is the reviewed output of a finished job.
type MergedResult struct {
	JobID          string                 `json:"job_id"`
	Route          string                 `json:"route"`
	PurchaseOrders []PurchaseOrderExtract `json:"purchase_orders"`
}

// Result returns the merged purchase orders of a finished job together with
// the review routing hint: exactly one order goes to the single-transaction
// edit flow, more than one to the batch review flow.
func (s *Service) Result(ctx context.Context, jobID string) (MergedResult, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return MergedResult{}, err
	}
	if job.Status != JobStatusDone {
		return MergedResult{}, ErrJobNotDone
	}
	drafts, err := s.repo.GetDrafts(ctx, jobID)
	if err != nil {
		return MergedResult{}, err
	}
	route := RouteBatch
	switch len(drafts) {
	case 0:
		route = RouteEmpty
	case 1:
		route = RouteSingle
	}
	return MergedResult{JobID: jobID, Route: route, PurchaseOrders: drafts}, nil
}

// ResolveSKUs resolves catalogue identities for every article of every
// draft and stores the updated drafts.
func (s *Service) ResolveSKUs(ctx context.Context, jobID string) (MergedResult, error) {
	result, err := s.Result(ctx, jobID)
	if err != nil {
		return MergedResult{}, err
	}
	if s.resolver == nil {
		return result, nil
	}
	for i := range result.PurchaseOrders {
		result.PurchaseOrders[i].Articles = s.resolver.ResolveAll(ctx, result.PurchaseOrders[i].Articles)
	}
	if err := ctx.Err(); err != nil {
		return MergedResult{}, err
	}
	if err := s.repo.SaveDrafts(ctx, jobID, result.PurchaseOrders); err != nil {
		return MergedResult{}, err
	}
	return result, nil
}

func (s *Service) countPage(outcome string) {
	if s.metrics != nil {
		s.metrics.PageExtracted(outcome)
	}
}
