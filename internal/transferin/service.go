package transferin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stockgate/stockgate/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetTransfer(ctx context.Context, number string) (Transfer, error)
	ReceiptExists(ctx context.Context, transferNumber string) (bool, error)
	GetReceipt(ctx context.Context, receiptNo string) (Receipt, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts confirmed receipts.
type MetricsPort interface {
	ReceiptConfirmed()
}

// Service orchestrates transfer-in reconciliation. Tracker state lives
// in the store keyed by session; persistence happens only on confirm.
type Service struct {
	repo        RepositoryPort
	store       *TrackerStore
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	metrics     MetricsPort
	logger      *slog.Logger
}

// NewService constructs transfer-in service.
func NewService(repo RepositoryPort, store *TrackerStore, audit AuditPort, idem *shared.IdempotencyStore, metrics MetricsPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, store: store, audit: audit, idempotency: idem, metrics: metrics, logger: logger}
}

// Lookup fetches a transfer and initialises a fresh tracker for the
// session. A failed lookup leaves the session's existing state alone,
// no tracker is created or replaced.
func (s *Service) Lookup(ctx context.Context, sessionID, number string) (Transfer, *Tracker, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return Transfer{}, nil, fmt.Errorf("%w: transfer number required", ErrValidation)
	}
	transfer, err := s.repo.GetTransfer(ctx, number)
	if err != nil {
		return Transfer{}, nil, err
	}
	received, err := s.repo.ReceiptExists(ctx, transfer.Number)
	if err != nil {
		return Transfer{}, nil, err
	}
	if received {
		return Transfer{}, nil, ErrAlreadyReceived
	}
	tracker := NewTracker(transfer)
	if err := s.store.Save(ctx, sessionID, tracker); err != nil {
		return Transfer{}, nil, err
	}
	return transfer, tracker, nil
}

// State returns the session's tracker for the given transfer.
func (s *Service) State(ctx context.Context, sessionID, number string) (*Tracker, error) {
	tracker, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if tracker.TransferNumber != number {
		return nil, ErrNoTracker
	}
	return tracker, nil
}

// Acknowledge marks one item acknowledged.
func (s *Service) Acknowledge(ctx context.Context, sessionID, number string, kind ItemKind, ref int64) (*Tracker, error) {
	return s.mutate(ctx, sessionID, number, func(t *Tracker) error {
		return t.Acknowledge(kind, ref)
	})
}

// ReportIssue marks one item issued with the given payload.
func (s *Service) ReportIssue(ctx context.Context, sessionID, number string, kind ItemKind, ref int64, input IssueInput) (*Tracker, error) {
	return s.mutate(ctx, sessionID, number, func(t *Tracker) error {
		return t.ReportIssue(kind, ref, input)
	})
}

// AcknowledgeAll acknowledges every pending item, optionally scoped to
// one article group's boxes.
func (s *Service) AcknowledgeAll(ctx context.Context, sessionID, number, article string) (*Tracker, error) {
	return s.mutate(ctx, sessionID, number, func(t *Tracker) error {
		if article != "" {
			t.AcknowledgeGroup(article)
		} else {
			t.AcknowledgeAll()
		}
		return nil
	})
}

// ConfirmInput carries the confirm-receipt request.
type ConfirmInput struct {
	BoxCondition string
	Remarks      string
}

// ConfirmReceipt assembles and persists the receipt in one database
// transaction. On failure the tracker is retained so the operator can
// retry without redoing manual work; on success it is deleted.
func (s *Service) ConfirmReceipt(ctx context.Context, sessionID, actorID, number string, input ConfirmInput) (Receipt, error) {
	tracker, err := s.State(ctx, sessionID, number)
	if err != nil {
		return Receipt{}, err
	}
	receipt, err := tracker.BuildSubmission(input.BoxCondition, input.Remarks)
	if err != nil {
		return Receipt{}, err
	}
	receipt.ConfirmedBy = actorID

	key := fmt.Sprintf("transferin-confirm:%s", number)
	inserted := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "transferin"); err != nil {
			return Receipt{}, err
		}
		inserted = true
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		receiptID, err := tx.CreateReceipt(ctx, receipt)
		if err != nil {
			return err
		}
		for _, box := range receipt.Boxes {
			if err := tx.InsertReceiptBox(ctx, receiptID, box); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Receipt{}, err
	}

	if err := s.store.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("delete reconciliation tracker", slog.Any("error", err), slog.String("transfer", number))
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "TRANSFERIN_CONFIRM",
			Entity:   "receipt",
			EntityID: receipt.ReceiptNo,
			Meta:     map[string]any{"transfer": number, "boxes": len(receipt.Boxes)},
		})
	}
	if s.metrics != nil {
		s.metrics.ReceiptConfirmed()
	}
	s.logger.Info("transfer receipt confirmed",
		slog.String("transfer", number),
		slog.String("receipt", receipt.ReceiptNo),
		slog.Int("boxes", len(receipt.Boxes)))
	return receipt, nil
}

// GetTransfer returns the transfer without touching tracker state,
// used by label rendering.
func (s *Service) GetTransfer(ctx context.Context, number string) (Transfer, error) {
	return s.repo.GetTransfer(ctx, strings.TrimSpace(number))
}

func (s *Service) mutate(ctx context.Context, sessionID, number string, fn func(*Tracker) error) (*Tracker, error) {
	return s.store.Mutate(ctx, sessionID, func(t *Tracker) error {
		if t.TransferNumber != number {
			return ErrNoTracker
		}
		return fn(t)
	})
}
