package labels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockgate/stockgate/internal/platform/httpx"
	"github.com/stockgate/stockgate/internal/shared"
	"github.com/stockgate/stockgate/internal/transferin"
)

// TransferPort fetches the transfer whose boxes get labelled.
type TransferPort interface {
	GetTransfer(ctx context.Context, number string) (transferin.Transfer, error)
}

// Handler serves label PDFs.
type Handler struct {
	logger    *slog.Logger
	transfers TransferPort
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, transfers TransferPort) *Handler {
	return &Handler{logger: logger, transfers: transfers}
}

// MountRoutes registers label routes under the transfer-in prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{number}/labels.pdf", h.labelsPDF)
}

func (h *Handler) labelsPDF(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	transfer, err := h.transfers.GetTransfer(r.Context(), number)
	if err != nil {
		if errors.Is(err, transferin.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(shared.ErrNotFound))
			return
		}
		h.logger.Error("load transfer for labels", slog.Any("error", err), slog.String("number", number))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	pdf, err := RenderTransferLabelsPDF(transfer, time.Now())
	if err != nil {
		h.logger.Error("render transfer labels", slog.Any("error", err), slog.String("number", number))
		httpx.Problem(w, http.StatusUnprocessableEntity, "No Labels", "this transfer has no boxes to label")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transfer.Number+"-labels.pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
