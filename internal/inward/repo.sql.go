package inward

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
	CreateTransaction(ctx context.Context, txn Transaction) (int64, error)
	InsertLine(ctx context.Context, line Line) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
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

// GetByNumber returns transaction header and lines.
func (r *Repository) GetByNumber(ctx context.Context, number string) (Transaction, []Line, error) {
	var txn Transaction
	var status string
	err := r.pool.QueryRow(ctx, `SELECT id, number, job_id, COALESCE(po_number,''), supplier_name, customer_name, source_location, destination_location, purchased_by, currency, total_amount, tax_amount, discount_amount, po_quantity, status, created_by, created_at, updated_at
FROM inward_transactions WHERE number=$1`, number).
		Scan(&txn.ID, &txn.Number, &txn.JobID, &txn.PONumber, &txn.SupplierName, &txn.CustomerName, &txn.SourceLocation, &txn.DestinationLocation, &txn.PurchasedBy, &txn.Currency, &txn.TotalAmount, &txn.TaxAmount, &txn.DiscountAmount, &txn.POQuantity, &status, &txn.CreatedBy, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, nil, ErrNotFound
		}
		return Transaction{}, nil, err
	}
	txn.Status = Status(status)

	rows, err := r.pool.Query(ctx, `SELECT id, transaction_id, position, item_description, weight, unit_rate, total_amount, COALESCE(sku_code,''), COALESCE(sku_category,'')
FROM inward_lines WHERE transaction_id=$1 ORDER BY position`, txn.ID)
	if err != nil {
		return Transaction{}, nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.TransactionID, &line.Position, &line.ItemDescription, &line.Weight, &line.UnitRate, &line.TotalAmount, &line.SKUCode, &line.SKUCategory); err != nil {
			return Transaction{}, nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return Transaction{}, nil, err
	}
	return txn, lines, nil
}

// ListByJob returns headers committed from one extraction job.
func (r *Repository) ListByJob(ctx context.Context, jobID string) ([]Transaction, error) {
	return r.list(ctx, `SELECT id, number, job_id, COALESCE(po_number,''), supplier_name, currency, total_amount, po_quantity, status, created_by, created_at, updated_at
FROM inward_transactions WHERE job_id=$1 ORDER BY id`, jobID)
}

// ListRecent returns the newest headers first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Transaction, error) {
	return r.list(ctx, `SELECT id, number, job_id, COALESCE(po_number,''), supplier_name, currency, total_amount, po_quantity, status, created_by, created_at, updated_at
FROM inward_transactions ORDER BY id DESC LIMIT $1`, limit)
}

func (r *Repository) list(ctx context.Context, query string, arg any) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txns := []Transaction{}
	for rows.Next() {
		var txn Transaction
		var status string
		if err := rows.Scan(&txn.ID, &txn.Number, &txn.JobID, &txn.PONumber, &txn.SupplierName, &txn.Currency, &txn.TotalAmount, &txn.POQuantity, &status, &txn.CreatedBy, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
			return nil, err
		}
		txn.Status = Status(status)
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}

func (t *txRepo) CreateTransaction(ctx context.Context, txn Transaction) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO inward_transactions (number, job_id, po_number, supplier_name, customer_name, source_location, destination_location, purchased_by, currency, total_amount, tax_amount, discount_amount, po_quantity, status, created_by, created_at, updated_at)
VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17) RETURNING id`,
		txn.Number, txn.JobID, txn.PONumber, txn.SupplierName, txn.CustomerName, txn.SourceLocation, txn.DestinationLocation, txn.PurchasedBy, txn.Currency, txn.TotalAmount, txn.TaxAmount, txn.DiscountAmount, txn.POQuantity, string(txn.Status), txn.CreatedBy, txn.CreatedAt, txn.UpdatedAt).
		Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_inward_transactions_number" {
			return 0, ErrDuplicateNumber
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepo) InsertLine(ctx context.Context, line Line) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO inward_lines (transaction_id, position, item_description, weight, unit_rate, total_amount, sku_code, sku_category)
VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),NULLIF($8,''))`,
		line.TransactionID, line.Position, line.ItemDescription, line.Weight, line.UnitRate, line.TotalAmount, line.SKUCode, line.SKUCategory)
	return err
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE inward_transactions SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
