package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	jobs   map[string]ExtractionJob
	pages  map[string][]PageExtractResult
	drafts map[string][]PurchaseOrderExtract
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		jobs:   make(map[string]ExtractionJob),
		pages:  make(map[string][]PageExtractResult),
		drafts: make(map[string][]PurchaseOrderExtract),
	}
}

func (r *memoryRepo) CreateJob(ctx context.Context, job ExtractionJob) error {
	r.jobs[job.ID] = job
	return nil
}

func (r *memoryRepo) GetJob(ctx context.Context, id string) (ExtractionJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return ExtractionJob{}, ErrNotFound
	}
	return job, nil
}

func (r *memoryRepo) UpdateJobStatus(ctx context.Context, id string, status JobStatus, errMsg string) error {
	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	job.Status = status
	job.Error = errMsg
	r.jobs[id] = job
	return nil
}

func (r *memoryRepo) SavePageResult(ctx context.Context, result PageExtractResult) error {
	r.pages[result.JobID] = append(r.pages[result.JobID], result)
	return nil
}

func (r *memoryRepo) ListPageResults(ctx context.Context, jobID string) ([]PageExtractResult, error) {
	return r.pages[jobID], nil
}

func (r *memoryRepo) SaveDrafts(ctx context.Context, jobID string, orders []PurchaseOrderExtract) error {
	r.drafts[jobID] = orders
	return nil
}

func (r *memoryRepo) GetDrafts(ctx context.Context, jobID string) ([]PurchaseOrderExtract, error) {
	drafts, ok := r.drafts[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return drafts, nil
}

type fakeExtractor struct {
	results map[int]PageExtractResult
	fail    map[int]bool
	calls   []int
}

func (e *fakeExtractor) ExtractPage(ctx context.Context, jobID string, pageNum int) (PageExtractResult, error) {
	e.calls = append(e.calls, pageNum)
	if e.fail[pageNum] {
		return PageExtractResult{}, errors.New("extractor unavailable")
	}
	result := e.results[pageNum]
	result.JobID = jobID
	result.PageNum = pageNum
	return result, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func seedJob(t *testing.T, repo *memoryRepo, totalPages int) string {
	t.Helper()
	job := ExtractionJob{ID: "job-1", Filename: "po.pdf", DocumentRef: "doc-1", TotalPages: totalPages, Status: JobStatusPending}
	require.NoError(t, repo.CreateJob(context.Background(), job))
	return job.ID
}

func TestCreateJobValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), &fakeExtractor{}, nil, nil, nil, discardLogger())

	_, err := svc.CreateJob(context.Background(), CreateJobInput{Filename: "po.pdf"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateJob(context.Background(), CreateJobInput{Filename: "po.pdf", DocumentRef: "doc", TotalPages: 0})
	require.ErrorIs(t, err, ErrValidation)

	job, err := svc.CreateJob(context.Background(), CreateJobInput{Filename: "po.pdf", DocumentRef: "doc", TotalPages: 3})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	require.Equal(t, JobStatusPending, job.Status)
}

func TestRunJobSequentialWithFailedPage(t *testing.T) {
	repo := newMemoryRepo()
	jobID := seedJob(t, repo, 3)
	extractor := &fakeExtractor{
		results: map[int]PageExtractResult{
			1: {PurchaseOrders: []PurchaseOrderExtract{{PONumber: "PO1", SupplierName: "Acme", Articles: []ArticleExtract{{ItemDescription: "Bolts"}}}}},
			3: {PurchaseOrders: []PurchaseOrderExtract{{PONumber: "PO1", Articles: []ArticleExtract{{ItemDescription: "Nuts"}}}}},
		},
		fail: map[int]bool{2: true},
	}
	svc := NewService(repo, extractor, nil, nil, nil, discardLogger())

	require.NoError(t, svc.RunJob(context.Background(), jobID))

	// Pages requested strictly in order despite the failure.
	require.Equal(t, []int{1, 2, 3}, extractor.calls)

	job, err := repo.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	require.Equal(t, JobStatusDone, job.Status)

	pages, err := repo.ListPageResults(context.Background(), jobID)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	require.Empty(t, pages[1].PurchaseOrders)

	drafts, err := repo.GetDrafts(context.Background(), jobID)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	require.Equal(t, "Acme", drafts[0].SupplierName)
	require.Len(t, drafts[0].Articles, 2)
}

func TestJobDetailReportsPageOutcomes(t *testing.T) {
	repo := newMemoryRepo()
	jobID := seedJob(t, repo, 3)
	extractor := &fakeExtractor{
		results: map[int]PageExtractResult{
			1: {PurchaseOrders: []PurchaseOrderExtract{{PONumber: "PO1"}}},
		},
		fail: map[int]bool{2: true},
	}
	svc := NewService(repo, extractor, nil, nil, nil, discardLogger())

	require.NoError(t, svc.RunJob(context.Background(), jobID))

	detail, err := svc.JobDetail(context.Background(), jobID)
	require.NoError(t, err)
	require.Equal(t, JobStatusDone, detail.Job.Status)
	require.Equal(t, []PageStatus{
		{PageNum: 1, Outcome: PageOutcomeOK, PurchaseOrders: 1},
		{PageNum: 2, Outcome: PageOutcomeFailed},
		{PageNum: 3, Outcome: PageOutcomeEmpty},
	}, detail.Pages)
}

func TestResultRouting(t *testing.T) {
	repo := newMemoryRepo()
	jobID := seedJob(t, repo, 1)
	svc := NewService(repo, &fakeExtractor{}, nil, nil, nil, discardLogger())

	_, err := svc.Result(context.Background(), jobID)
	require.ErrorIs(t, err, ErrJobNotDone)

	require.NoError(t, repo.UpdateJobStatus(context.Background(), jobID, JobStatusDone, ""))

	require.NoError(t, repo.SaveDrafts(context.Background(), jobID, []PurchaseOrderExtract{}))
	result, err := svc.Result(context.Background(), jobID)
	require.NoError(t, err)
	require.Equal(t, RouteEmpty, result.Route)

	require.NoError(t, repo.SaveDrafts(context.Background(), jobID, []PurchaseOrderExtract{{PONumber: "PO1"}}))
	result, err = svc.Result(context.Background(), jobID)
	require.NoError(t, err)
	require.Equal(t, RouteSingle, result.Route)

	require.NoError(t, repo.SaveDrafts(context.Background(), jobID, []PurchaseOrderExtract{{PONumber: "PO1"}, {PONumber: "PO2"}}))
	result, err = svc.Result(context.Background(), jobID)
	require.NoError(t, err)
	require.Equal(t, RouteBatch, result.Route)
}

func TestRunJobAlreadyDoneIsNoop(t *testing.T) {
	repo := newMemoryRepo()
	jobID := seedJob(t, repo, 2)
	require.NoError(t, repo.UpdateJobStatus(context.Background(), jobID, JobStatusDone, ""))
	extractor := &fakeExtractor{}
	svc := NewService(repo, extractor, nil, nil, nil, discardLogger())

	require.NoError(t, svc.RunJob(context.Background(), jobID))
	require.Empty(t, extractor.calls)
}

func TestResolveSKUsUpdatesDrafts(t *testing.T) {
	repo := newMemoryRepo()
	jobID := seedJob(t, repo, 1)
	require.NoError(t, repo.UpdateJobStatus(context.Background(), jobID, JobStatusDone, ""))
	require.NoError(t, repo.SaveDrafts(context.Background(), jobID, []PurchaseOrderExtract{
		{PONumber: "PO1", Articles: []ArticleExtract{{ItemDescription: "Steel Bolts"}}},
	}))

	lookup := &fakeSKUClient{matches: map[string]SKUMatch{"steel bolts": {SKUCode: "SKU-1", Category: "fasteners"}}}
	resolver := NewResolver(lookup, nil, 2)
	svc := NewService(repo, &fakeExtractor{}, nil, resolver, nil, discardLogger())

	result, err := svc.ResolveSKUs(context.Background(), jobID)
	require.NoError(t, err)
	require.Equal(t, SKUStatusResolved, result.PurchaseOrders[0].Articles[0].SKUStatus)
	require.Equal(t, "SKU-1", result.PurchaseOrders[0].Articles[0].SKUCode)

	drafts, err := repo.GetDrafts(context.Background(), jobID)
	require.NoError(t, err)
	require.Equal(t, "SKU-1", drafts[0].Articles[0].SKUCode)
}

type fakeQueue struct {
	enqueued []string
	fail     bool
}

func (q *fakeQueue) EnqueueExtractionRun(ctx context.Context, jobID string) error {
	if q.fail {
		return fmt.Errorf("queue down")
	}
	q.enqueued = append(q.enqueued, jobID)
	return nil
}

func TestCreateJobEnqueuesRun(t *testing.T) {
	repo := newMemoryRepo()
	queue := &fakeQueue{}
	svc := NewService(repo, &fakeExtractor{}, queue, nil, nil, discardLogger())

	job, err := svc.CreateJob(context.Background(), CreateJobInput{Filename: "po.pdf", DocumentRef: "doc", TotalPages: 2})
	require.NoError(t, err)
	require.Equal(t, []string{job.ID}, queue.enqueued)
}

func TestCreateJobEnqueueFailureMarksJobFailed(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &fakeExtractor{}, &fakeQueue{fail: true}, nil, nil, discardLogger())

	_, err := svc.CreateJob(context.Background(), CreateJobInput{Filename: "po.pdf", DocumentRef: "doc", TotalPages: 2})
	require.Error(t, err)
	for _, job := range repo.jobs {
		require.Equal(t, JobStatusFailed, job.Status)
	}
}
