package inward

import (
	"errors"
	"time"
)

// Status of an inward transaction.
type Status string

const (
	// StatusPosted marks a transaction created from reviewed drafts.
	StatusPosted Status = "POSTED"
	// StatusCancelled marks a transaction voided after posting.
	StatusCancelled Status = "CANCELLED"
)

// Transaction is a persisted inward receipt for one purchase order.
type Transaction struct {
	ID                  int64
	Number              string
	JobID               string
	PONumber            string
	SupplierName        string
	CustomerName        string
	SourceLocation      string
	DestinationLocation string
	PurchasedBy         string
	Currency            string
	TotalAmount         float64
	TaxAmount           float64
	DiscountAmount      float64
	POQuantity          float64
	Status              Status
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Line is a single article row under a transaction. Position preserves
// the order articles appeared in the source document.
type Line struct {
	ID              int64
	TransactionID   int64
	Position        int
	ItemDescription string
	Weight          float64
	UnitRate        float64
	TotalAmount     float64
	SKUCode         string
	SKUCategory     string
}

var (
	// ErrNotFound indicates a missing transaction.
	ErrNotFound = errors.New("inward: transaction not found")
	// ErrValidation indicates invalid commit input.
	ErrValidation = errors.New("inward: validation failed")
	// ErrDuplicateNumber indicates a transaction number collision.
	ErrDuplicateNumber = errors.New("inward: transaction number already exists")
	// ErrInvalidState indicates a transition from the wrong status.
	ErrInvalidState = errors.New("inward: invalid transaction state")
)
