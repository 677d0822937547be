package inward

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stockgate/stockgate/internal/extraction"
	"github.com/stockgate/stockgate/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByNumber(ctx context.Context, number string) (Transaction, []Line, error)
	ListByJob(ctx context.Context, jobID string) ([]Transaction, error)
	ListRecent(ctx context.Context, limit int) ([]Transaction, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service turns merged purchase orders into inward transactions.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	logger      *slog.Logger
}

// NewService constructs inward service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, logger: logger}
}

// CommitExtracts creates one posted transaction per merged purchase
// order. All of them land in a single database transaction, so a failed
// commit leaves nothing behind. Returns the generated numbers in input
// order.
func (s *Service) CommitExtracts(ctx context.Context, actorID, jobID string, orders []extraction.PurchaseOrderExtract) ([]string, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id required", ErrValidation)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: nothing to commit", ErrValidation)
	}

	key := fmt.Sprintf("inward-commit:%s", jobID)
	inserted := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "inward"); err != nil {
			return nil, err
		}
		inserted = true
	}

	now := time.Now()
	numbers := make([]string, 0, len(orders))
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for i, order := range orders {
			number := generateNumber(i + 1)
			txn := Transaction{
				Number:              number,
				JobID:               jobID,
				PONumber:            strings.TrimSpace(order.PONumber),
				SupplierName:        order.SupplierName,
				CustomerName:        order.CustomerName,
				SourceLocation:      order.SourceLocation,
				DestinationLocation: order.DestinationLocation,
				PurchasedBy:         order.PurchasedBy,
				Currency:            order.Currency,
				TotalAmount:         order.TotalAmount,
				TaxAmount:           order.TaxAmount,
				DiscountAmount:      order.DiscountAmount,
				POQuantity:          order.POQuantity,
				Status:              StatusPosted,
				CreatedBy:           actorID,
				CreatedAt:           now,
				UpdatedAt:           now,
			}
			txnID, err := tx.CreateTransaction(ctx, txn)
			if err != nil {
				return err
			}
			for pos, article := range order.Articles {
				line := Line{
					TransactionID:   txnID,
					Position:        pos + 1,
					ItemDescription: article.ItemDescription,
					Weight:          article.Weight,
					UnitRate:        article.UnitRate,
					TotalAmount:     article.TotalAmount,
					SKUCode:         article.SKUCode,
					SKUCategory:     article.SKUCategory,
				}
				if err := tx.InsertLine(ctx, line); err != nil {
					return err
				}
			}
			numbers = append(numbers, number)
		}
		return nil
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key)
		}
		return nil, err
	}

	for _, number := range numbers {
		s.recordAudit(ctx, actorID, "INWARD_COMMIT", number, map[string]any{"job_id": jobID})
	}
	s.logger.Info("inward transactions committed",
		slog.String("job_id", jobID),
		slog.Int("count", len(numbers)))
	return numbers, nil
}

// Get returns one transaction with its lines.
func (s *Service) Get(ctx context.Context, number string) (Transaction, []Line, error) {
	if number == "" {
		return Transaction{}, nil, fmt.Errorf("%w: number required", ErrValidation)
	}
	return s.repo.GetByNumber(ctx, number)
}

// ListForJob returns every transaction committed from one extraction job.
func (s *Service) ListForJob(ctx context.Context, jobID string) ([]Transaction, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id required", ErrValidation)
	}
	return s.repo.ListByJob(ctx, jobID)
}

// ListRecent returns the latest transactions, capped at limit.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit)
}

// Cancel voids a posted transaction.
func (s *Service) Cancel(ctx context.Context, actorID, number string) error {
	txn, _, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return err
	}
	if txn.Status != StatusPosted {
		return ErrInvalidState
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateStatus(ctx, txn.ID, StatusCancelled)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "INWARD_CANCEL", number, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, number string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "inward_transaction", EntityID: number, Meta: meta})
}

func generateNumber(seq int) string {
	return fmt.Sprintf("IN-%d-%03d", time.Now().UnixNano(), seq)
}
