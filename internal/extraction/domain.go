package extraction

import (
	"errors"
	"time"
)

// Extraction job lifecycle statuses.
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusFailed  JobStatus = "FAILED"
)

// SKUStatus tracks per-article catalogue resolution.
type SKUStatus string

const (
	SKUStatusIdle     SKUStatus = "idle"
	SKUStatusLoading  SKUStatus = "loading"
	SKUStatusResolved SKUStatus = "resolved"
	SKUStatusError    SKUStatus = "error"
)

// ArticleExtract is one extracted line item of a purchase order.
type ArticleExtract struct {
	ItemDescription string  `json:"item_description"`
	Weight          float64 `json:"weight,omitempty"`
	UnitRate        float64 `json:"unit_rate,omitempty"`
	TotalAmount     float64 `json:"total_amount,omitempty"`

	// Catalogue resolution is layered on after extraction; it is not part
	// of the extractor contract.
	SKUStatus   SKUStatus `json:"sku_status,omitempty"`
	SKUCode     string    `json:"sku_code,omitempty"`
	SKUCategory string    `json:"sku_category,omitempty"`
}

// PurchaseOrderExtract is one extracted purchase order, possibly assembled
// from several document pages.
type PurchaseOrderExtract struct {
	PONumber            string `json:"po_number,omitempty"`
	SupplierName        string `json:"supplier_name,omitempty"`
	CustomerName        string `json:"customer_name,omitempty"`
	SourceLocation      string `json:"source_location,omitempty"`
	DestinationLocation string `json:"destination_location,omitempty"`
	PurchasedBy         string `json:"purchased_by,omitempty"`
	Currency            string `json:"currency,omitempty"`

	TotalAmount    float64 `json:"total_amount,omitempty"`
	TaxAmount      float64 `json:"tax_amount,omitempty"`
	DiscountAmount float64 `json:"discount_amount,omitempty"`
	POQuantity     float64 `json:"po_quantity,omitempty"`

	Articles []ArticleExtract `json:"articles"`
}

// Per-page outcomes recorded during a run, reported back on job status.
const (
	PageOutcomeOK     = "ok"
	PageOutcomeEmpty  = "empty"
	PageOutcomeFailed = "failed"
)

// PageExtractResult is the extraction outcome for a single document page.
// An empty PurchaseOrders list models boilerplate pages and failed pages
// alike; a page never surfaces as an error to the merge step. Outcome
// keeps the distinction for progress reporting.
type PageExtractResult struct {
	JobID          string                 `json:"job_id"`
	PageNum        int                    `json:"page_num"`
	TotalPages     int                    `json:"total_pages"`
	Outcome        string                 `json:"outcome,omitempty"`
	PurchaseOrders []PurchaseOrderExtract `json:"purchase_orders"`
}

// ExtractionJob tracks a document through per-page extraction.
type ExtractionJob struct {
	ID          string
	Filename    string
	DocumentRef string
	TotalPages  int
	Status      JobStatus
	Error       string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Routing hints for the review flow based on merged result cardinality.
const (
	RouteEmpty  = "empty"
	RouteSingle = "single"
	RouteBatch  = "batch"
)

var (
	// ErrNotFound indicates a missing job or draft.
	ErrNotFound = errors.New("extraction: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("extraction: invalid input")
	// ErrJobNotDone occurs when results are requested before the job finished.
	ErrJobNotDone = errors.New("extraction: job not finished")
	// ErrSKUNotFound is the catalogue's explicit miss signal, distinct from
	// a transport failure.
	ErrSKUNotFound = errors.New("extraction: sku not found")
)
