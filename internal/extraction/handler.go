package extraction

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockgate/stockgate/internal/platform/httpx"
	"github.com/stockgate/stockgate/internal/shared"
)

// CommitPort hands reviewed drafts over to the inward module. It returns
// the generated transaction numbers, one per committed purchase order.
type CommitPort interface {
	CommitExtracts(ctx context.Context, actorID, jobID string, orders []PurchaseOrderExtract) ([]string, error)
}

// Handler manages extraction endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	committer CommitPort
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, committer CommitPort) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		committer: committer,
		validator: validator.New(),
	}
}

// MountRoutes registers extraction routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/jobs", h.createJob)
	r.Get("/jobs/{id}", h.getJob)
	r.Get("/jobs/{id}/result", h.getResult)
	r.Post("/jobs/{id}/resolve-skus", h.resolveSKUs)
	r.Post("/jobs/{id}/commit", h.commit)
}

type createJobRequest struct {
	Filename    string `json:"filename" validate:"required"`
	DocumentRef string `json:"document_ref" validate:"required"`
	TotalPages  int    `json:"total_pages" validate:"required,min=1,max=500"`
}

type jobResponse struct {
	ID         string       `json:"id"`
	Filename   string       `json:"filename"`
	TotalPages int          `json:"total_pages"`
	Status     string       `json:"status"`
	Error      string       `json:"error,omitempty"`
	Pages      []PageStatus `json:"pages,omitempty"`
}

func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	job, err := h.service.CreateJob(r.Context(), CreateJobInput{
		Filename:    req.Filename,
		DocumentRef: req.DocumentRef,
		TotalPages:  req.TotalPages,
		ActorID:     currentOperator(r),
	})
	if err != nil {
		h.logger.Error("create extraction job", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toJobResponse(job))
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.JobDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	resp := toJobResponse(detail.Job)
	resp.Pages = detail.Pages
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) resolveSKUs(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ResolveSKUs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("resolve skus", slog.Any("error", err), slog.String("job_id", chi.URLParam(r, "id")))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type commitResponse struct {
	JobID              string   `json:"job_id"`
	TransactionNumbers []string `json:"transaction_numbers"`
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	result, err := h.service.Result(r.Context(), jobID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if len(result.PurchaseOrders) == 0 {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Nothing To Commit", "the document produced no purchase orders")
		return
	}
	numbers, err := h.committer.CommitExtracts(r.Context(), currentOperator(r), jobID, result.PurchaseOrders)
	if err != nil {
		h.logger.Error("commit extraction job", slog.Any("error", err), slog.String("job_id", jobID))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, commitResponse{JobID: jobID, TransactionNumbers: numbers})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(shared.ErrNotFound))
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrJobNotDone):
		httpx.Problem(w, http.StatusConflict, "Job Not Finished", "extraction is still in progress")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", shared.UserSafeMessage(err))
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func toJobResponse(job ExtractionJob) jobResponse {
	return jobResponse{
		ID:         job.ID,
		Filename:   job.Filename,
		TotalPages: job.TotalPages,
		Status:     string(job.Status),
		Error:      job.Error,
	}
}

func currentOperator(r *http.Request) string {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return ""
	}
	return sess.Operator()
}
