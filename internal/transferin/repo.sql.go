package transferin

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateReceipt(ctx context.Context, receipt Receipt) (int64, error)
	InsertReceiptBox(ctx context.Context, receiptID int64, box ReceiptBox) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetTransfer returns the transfer header with its boxes and lines.
func (r *Repository) GetTransfer(ctx context.Context, number string) (Transfer, error) {
	var transfer Transfer
	err := r.pool.QueryRow(ctx, `SELECT number, COALESCE(challan_no,''), from_location, to_location, transfer_date
FROM transfers WHERE number=$1 OR challan_no=$1`, number).
		Scan(&transfer.Number, &transfer.ChallanNo, &transfer.FromLocation, &transfer.ToLocation, &transfer.TransferDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, ErrNotFound
		}
		return Transfer{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, article, COALESCE(batch_no,''), COALESCE(tx_no,''), net_weight, gross_weight
FROM transfer_boxes WHERE transfer_number=$1 ORDER BY id`, transfer.Number)
	if err != nil {
		return Transfer{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var box Box
		if err := rows.Scan(&box.ID, &box.Article, &box.BatchNo, &box.TxNo, &box.NetWeight, &box.GrossWeight); err != nil {
			return Transfer{}, err
		}
		transfer.Boxes = append(transfer.Boxes, box)
	}
	if err := rows.Err(); err != nil {
		return Transfer{}, err
	}

	lineRows, err := r.pool.Query(ctx, `SELECT article, expected_qty, expected_weight, COALESCE(category,'')
FROM transfer_lines WHERE transfer_number=$1 ORDER BY position`, transfer.Number)
	if err != nil {
		return Transfer{}, err
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var line ArticleLine
		if err := lineRows.Scan(&line.Article, &line.ExpectedQty, &line.ExpectedWeight, &line.Category); err != nil {
			return Transfer{}, err
		}
		transfer.Lines = append(transfer.Lines, line)
	}
	if err := lineRows.Err(); err != nil {
		return Transfer{}, err
	}
	return transfer, nil
}

// ReceiptExists reports whether a receipt was already confirmed for the
// transfer.
func (r *Repository) ReceiptExists(ctx context.Context, transferNumber string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM receipts WHERE transfer_number=$1)`, transferNumber).Scan(&exists)
	return exists, err
}

// GetReceipt returns one confirmed receipt with its box records.
func (r *Repository) GetReceipt(ctx context.Context, receiptNo string) (Receipt, error) {
	var receipt Receipt
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id, receipt_no, transfer_number, box_condition, COALESCE(remarks,''), COALESCE(confirmed_by,''), confirmed_at
FROM receipts WHERE receipt_no=$1`, receiptNo).
		Scan(&id, &receipt.ReceiptNo, &receipt.TransferNumber, &receipt.BoxCondition, &receipt.Remarks, &receipt.ConfirmedBy, &receipt.ConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, ErrNotFound
		}
		return Receipt{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT box_id, article, COALESCE(batch_no,''), COALESCE(tx_no,''), net_weight, gross_weight, expected_qty, expected_weight, COALESCE(category,''), is_matched, actual_qty, actual_total_weight, COALESCE(issue_remarks,'')
FROM receipt_boxes WHERE receipt_id=$1 ORDER BY id`, id)
	if err != nil {
		return Receipt{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var box ReceiptBox
		var actualQty, actualWeight *float64
		var issueRemarks string
		if err := rows.Scan(&box.BoxID, &box.Article, &box.BatchNo, &box.TxNo, &box.NetWeight, &box.GrossWeight, &box.ExpectedQty, &box.ExpectedWeight, &box.Category, &box.IsMatched, &actualQty, &actualWeight, &issueRemarks); err != nil {
			return Receipt{}, err
		}
		if actualQty != nil || actualWeight != nil {
			box.Issue = &IssueReport{ActualQty: actualQty, ActualTotalWeight: actualWeight, Remarks: issueRemarks}
		}
		receipt.Boxes = append(receipt.Boxes, box)
	}
	if err := rows.Err(); err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

func (t *txRepo) CreateReceipt(ctx context.Context, receipt Receipt) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO receipts (receipt_no, transfer_number, box_condition, remarks, confirmed_by, confirmed_at)
VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,''),$6) RETURNING id`,
		receipt.ReceiptNo, receipt.TransferNumber, receipt.BoxCondition, receipt.Remarks, receipt.ConfirmedBy, receipt.ConfirmedAt).
		Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_receipts_transfer_number" {
			return 0, ErrAlreadyReceived
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepo) InsertReceiptBox(ctx context.Context, receiptID int64, box ReceiptBox) error {
	var actualQty, actualWeight *float64
	issueRemarks := ""
	if box.Issue != nil {
		actualQty = box.Issue.ActualQty
		actualWeight = box.Issue.ActualTotalWeight
		issueRemarks = box.Issue.Remarks
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO receipt_boxes (receipt_id, box_id, article, batch_no, tx_no, net_weight, gross_weight, expected_qty, expected_weight, category, is_matched, actual_qty, actual_total_weight, issue_remarks)
VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,''),$6,$7,$8,$9,NULLIF($10,''),$11,$12,$13,NULLIF($14,''))`,
		receiptID, box.BoxID, box.Article, box.BatchNo, box.TxNo, box.NetWeight, box.GrossWeight, box.ExpectedQty, box.ExpectedWeight, box.Category, box.IsMatched, actualQty, actualWeight, issueRemarks)
	return err
}
