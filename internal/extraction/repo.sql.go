package extraction

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists extraction data in PostgreSQL. Page payloads and
// merged drafts are stored as JSONB documents since they are read back
// whole and never queried field-by-field.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateJob(ctx context.Context, job ExtractionJob) error {
	if r == nil {
		return errors.New("extraction repository not initialised")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO extraction_jobs (id, filename, document_ref, total_pages, status, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, job.ID, job.Filename, job.DocumentRef, job.TotalPages, string(job.Status), job.CreatedBy, job.CreatedAt, job.UpdatedAt)
	return err
}

func (r *Repository) GetJob(ctx context.Context, id string) (ExtractionJob, error) {
	if r == nil {
		return ExtractionJob{}, errors.New("extraction repository not initialised")
	}
	var job ExtractionJob
	var status string
	err := r.pool.QueryRow(ctx, `SELECT id, filename, document_ref, total_pages, status, COALESCE(error, ''), created_by, created_at, updated_at
FROM extraction_jobs WHERE id=$1`, id).
		Scan(&job.ID, &job.Filename, &job.DocumentRef, &job.TotalPages, &status, &job.Error, &job.CreatedBy, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ExtractionJob{}, ErrNotFound
		}
		return ExtractionJob{}, err
	}
	job.Status = JobStatus(status)
	return job, nil
}

func (r *Repository) UpdateJobStatus(ctx context.Context, id string, status JobStatus, errMsg string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE extraction_jobs SET status=$2, error=NULLIF($3,''), updated_at=NOW() WHERE id=$1`, id, string(status), errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SavePageResult(ctx context.Context, result PageExtractResult) error {
	payload, err := json.Marshal(result.PurchaseOrders)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO extraction_pages (job_id, page_num, total_pages, outcome, purchase_orders, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (job_id, page_num) DO UPDATE SET purchase_orders=EXCLUDED.purchase_orders, total_pages=EXCLUDED.total_pages, outcome=EXCLUDED.outcome`, result.JobID, result.PageNum, result.TotalPages, result.Outcome, payload)
	return err
}

func (r *Repository) ListPageResults(ctx context.Context, jobID string) ([]PageExtractResult, error) {
	rows, err := r.pool.Query(ctx, `SELECT job_id, page_num, total_pages, outcome, purchase_orders
FROM extraction_pages WHERE job_id=$1 ORDER BY page_num ASC`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := []PageExtractResult{}
	for rows.Next() {
		var result PageExtractResult
		var payload []byte
		if err := rows.Scan(&result.JobID, &result.PageNum, &result.TotalPages, &result.Outcome, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &result.PurchaseOrders); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Repository) SaveDrafts(ctx context.Context, jobID string, orders []PurchaseOrderExtract) error {
	payload, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO extraction_drafts (job_id, purchase_orders, updated_at)
VALUES ($1,$2,NOW())
ON CONFLICT (job_id) DO UPDATE SET purchase_orders=EXCLUDED.purchase_orders, updated_at=NOW()`, jobID, payload)
	return err
}

func (r *Repository) GetDrafts(ctx context.Context, jobID string) ([]PurchaseOrderExtract, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT purchase_orders FROM extraction_drafts WHERE job_id=$1`, jobID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	orders := []PurchaseOrderExtract{}
	if err := json.Unmarshal(payload, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
