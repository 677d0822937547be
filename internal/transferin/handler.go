package transferin

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockgate/stockgate/internal/platform/httpx"
	"github.com/stockgate/stockgate/internal/shared"
)

// Handler manages transfer-in reconciliation endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers transfer-in routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/scan", h.scan)
	r.Get("/{number}", h.lookup)
	r.Get("/{number}/state", h.state)
	r.Post("/{number}/ack", h.acknowledge)
	r.Post("/{number}/ack-all", h.acknowledgeAll)
	r.Post("/{number}/issue", h.reportIssue)
	r.Post("/{number}/confirm", h.confirm)
}

type scanRequest struct {
	Payload string `json:"payload" validate:"required"`
}

type itemRef struct {
	Kind    ItemKind `json:"kind" validate:"required,oneof=box line"`
	BoxID   int64    `json:"box_id"`
	LinePos int      `json:"line_pos"`
}

type issueRequest struct {
	itemRef
	ActualQty         string `json:"actual_qty"`
	ActualTotalWeight string `json:"actual_total_weight"`
	Remarks           string `json:"remarks"`
}

type ackAllRequest struct {
	Article string `json:"article"`
}

type confirmRequest struct {
	BoxCondition string `json:"box_condition" validate:"required"`
	Remarks      string `json:"remarks"`
}

type trackerResponse struct {
	TransferNumber string         `json:"transfer_number"`
	Items          []itemResponse `json:"items"`
	PendingCount   int            `json:"pending_count"`
	Ready          bool           `json:"ready"`
}

type itemResponse struct {
	Kind           ItemKind     `json:"kind"`
	BoxID          int64        `json:"box_id,omitempty"`
	LinePos        int          `json:"line_pos,omitempty"`
	Article        string       `json:"article"`
	BatchNo        string       `json:"batch_no,omitempty"`
	NetWeight      float64      `json:"net_weight,omitempty"`
	GrossWeight    float64      `json:"gross_weight,omitempty"`
	ExpectedQty    float64      `json:"expected_qty,omitempty"`
	ExpectedWeight float64      `json:"expected_weight,omitempty"`
	Category       string       `json:"category,omitempty"`
	State          ItemState    `json:"state"`
	Issue          *IssueReport `json:"issue,omitempty"`
}

type lookupResponse struct {
	Transfer transferResponse `json:"transfer"`
	Tracker  trackerResponse  `json:"tracker"`
}

type transferResponse struct {
	Number       string `json:"number"`
	ChallanNo    string `json:"challan_no,omitempty"`
	FromLocation string `json:"from_location"`
	ToLocation   string `json:"to_location"`
	BoxCount     int    `json:"box_count"`
	LineCount    int    `json:"line_count"`
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	number := ParseScanPayload(req.Payload)
	if number == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "scan payload carries no transfer number")
		return
	}
	h.doLookup(w, r, number)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	h.doLookup(w, r, chi.URLParam(r, "number"))
}

func (h *Handler) doLookup(w http.ResponseWriter, r *http.Request, number string) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	transfer, tracker, err := h.service.Lookup(r.Context(), sess.ID, number)
	if err != nil {
		h.logger.Warn("transfer lookup", slog.Any("error", err), slog.String("number", number))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lookupResponse{
		Transfer: transferResponse{
			Number:       transfer.Number,
			ChallanNo:    transfer.ChallanNo,
			FromLocation: transfer.FromLocation,
			ToLocation:   transfer.ToLocation,
			BoxCount:     len(transfer.Boxes),
			LineCount:    len(transfer.Lines),
		},
		Tracker: toTrackerResponse(tracker),
	})
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	tracker, err := h.service.State(r.Context(), sess.ID, chi.URLParam(r, "number"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTrackerResponse(tracker))
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	var req itemRef
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tracker, err := h.service.Acknowledge(r.Context(), sess.ID, chi.URLParam(r, "number"), req.Kind, req.ref())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTrackerResponse(tracker))
}

func (h *Handler) acknowledgeAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	var req ackAllRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
		return
	}
	tracker, err := h.service.AcknowledgeAll(r.Context(), sess.ID, chi.URLParam(r, "number"), req.Article)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTrackerResponse(tracker))
}

func (h *Handler) reportIssue(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	var req issueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tracker, err := h.service.ReportIssue(r.Context(), sess.ID, chi.URLParam(r, "number"), req.Kind, req.ref(), IssueInput{
		ActualQty:         req.ActualQty,
		ActualTotalWeight: req.ActualTotalWeight,
		Remarks:           req.Remarks,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTrackerResponse(tracker))
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	number := chi.URLParam(r, "number")
	receipt, err := h.service.ConfirmReceipt(r.Context(), sess.ID, sess.Operator(), number, ConfirmInput{
		BoxCondition: req.BoxCondition,
		Remarks:      req.Remarks,
	})
	if err != nil {
		h.logger.Error("confirm receipt", slog.Any("error", err), slog.String("number", number))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (*shared.Session, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.ID == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Session Required", shared.UserSafeMessage(shared.ErrSessionRequired))
		return nil, false
	}
	return sess, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(shared.ErrNotFound))
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrItemNotFound):
		httpx.Problem(w, http.StatusNotFound, "Item Not Found", "no such box or article line on this transfer")
	case errors.Is(err, ErrNoTracker):
		httpx.Problem(w, http.StatusConflict, "No Reconciliation", "load the transfer before updating items")
	case errors.Is(err, ErrPendingItems):
		httpx.Problem(w, http.StatusConflict, "Pending Items", "every box and article line must be acknowledged or issued first")
	case errors.Is(err, ErrAlreadyReceived), errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Already Received", "a receipt for this transfer already exists")
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (r itemRef) ref() int64 {
	if r.Kind == KindBox {
		return r.BoxID
	}
	return int64(r.LinePos)
}

func toTrackerResponse(t *Tracker) trackerResponse {
	resp := trackerResponse{
		TransferNumber: t.TransferNumber,
		Items:          make([]itemResponse, 0, len(t.Items)),
		PendingCount:   t.PendingCount(),
		Ready:          t.Ready(),
	}
	for _, item := range t.Items {
		resp.Items = append(resp.Items, itemResponse{
			Kind:           item.Kind,
			BoxID:          item.BoxID,
			LinePos:        item.LinePos,
			Article:        item.Article,
			BatchNo:        item.BatchNo,
			NetWeight:      item.NetWeight,
			GrossWeight:    item.GrossWeight,
			ExpectedQty:    item.ExpectedQty,
			ExpectedWeight: item.ExpectedWeight,
			Category:       item.Category,
			State:          item.State,
			Issue:          item.Issue,
		})
	}
	return resp
}
