package inward

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockgate/stockgate/internal/platform/httpx"
	"github.com/stockgate/stockgate/internal/shared"
)

// Handler manages inward transaction endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inward routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/transactions", h.list)
	r.Get("/transactions/{number}", h.get)
	r.Post("/transactions/{number}/cancel", h.cancel)
}

type transactionResponse struct {
	Number              string         `json:"number"`
	JobID               string         `json:"job_id"`
	PONumber            string         `json:"po_number,omitempty"`
	SupplierName        string         `json:"supplier_name"`
	CustomerName        string         `json:"customer_name,omitempty"`
	SourceLocation      string         `json:"source_location,omitempty"`
	DestinationLocation string         `json:"destination_location,omitempty"`
	PurchasedBy         string         `json:"purchased_by,omitempty"`
	Currency            string         `json:"currency,omitempty"`
	TotalAmount         float64        `json:"total_amount"`
	TaxAmount           float64        `json:"tax_amount"`
	DiscountAmount      float64        `json:"discount_amount"`
	POQuantity          float64        `json:"po_quantity"`
	Status              string         `json:"status"`
	Lines               []lineResponse `json:"lines,omitempty"`
}

type lineResponse struct {
	Position        int     `json:"position"`
	ItemDescription string  `json:"item_description"`
	Weight          float64 `json:"weight"`
	UnitRate        float64 `json:"unit_rate"`
	TotalAmount     float64 `json:"total_amount"`
	SKUCode         string  `json:"sku_code,omitempty"`
	SKUCategory     string  `json:"sku_category,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if jobID := r.URL.Query().Get("job_id"); jobID != "" {
		txns, err := h.service.ListForJob(r.Context(), jobID)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, toHeaderResponses(txns))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txns, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list inward transactions", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toHeaderResponses(txns))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	txn, lines, err := h.service.Get(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	resp := toHeaderResponse(txn)
	for _, line := range lines {
		resp.Lines = append(resp.Lines, lineResponse{
			Position:        line.Position,
			ItemDescription: line.ItemDescription,
			Weight:          line.Weight,
			UnitRate:        line.UnitRate,
			TotalAmount:     line.TotalAmount,
			SKUCode:         line.SKUCode,
			SKUCategory:     line.SKUCategory,
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	actor := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		actor = sess.Operator()
	}
	if err := h.service.Cancel(r.Context(), actor, number); err != nil {
		h.logger.Error("cancel inward transaction", slog.Any("error", err), slog.String("number", number))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"number": number, "status": string(StatusCancelled)})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(shared.ErrNotFound))
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", "transaction is not in a cancellable state")
	case errors.Is(err, ErrDuplicateNumber), errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", shared.UserSafeMessage(err))
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func toHeaderResponses(txns []Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toHeaderResponse(txn))
	}
	return out
}

func toHeaderResponse(txn Transaction) transactionResponse {
	return transactionResponse{
		Number:              txn.Number,
		JobID:               txn.JobID,
		PONumber:            txn.PONumber,
		SupplierName:        txn.SupplierName,
		CustomerName:        txn.CustomerName,
		SourceLocation:      txn.SourceLocation,
		DestinationLocation: txn.DestinationLocation,
		PurchasedBy:         txn.PurchasedBy,
		Currency:            txn.Currency,
		TotalAmount:         txn.TotalAmount,
		TaxAmount:           txn.TaxAmount,
		DiscountAmount:      txn.DiscountAmount,
		POQuantity:          txn.POQuantity,
		Status:              string(txn.Status),
	}
}
