package transferin

import (
	"errors"
	"time"
)

// Transfer is an outbound stock transfer awaiting receipt. A transfer
// ships whole boxes, loose article quantities, or both.
type Transfer struct {
	Number       string
	ChallanNo    string
	FromLocation string
	ToLocation   string
	TransferDate time.Time
	Boxes        []Box
	Lines        []ArticleLine
}

// Box is a physical box on the transfer.
type Box struct {
	ID          int64
	Article     string
	BatchNo     string
	TxNo        string
	NetWeight   float64
	GrossWeight float64
}

// ArticleLine is a loose article quantity on the transfer.
type ArticleLine struct {
	Article        string
	ExpectedQty    float64
	ExpectedWeight float64
	Category       string
}

// ItemKind discriminates reconciliation items.
type ItemKind string

const (
	KindBox  ItemKind = "box"
	KindLine ItemKind = "line"
)

// ItemState is the resolution state of one reconciliation item.
type ItemState string

const (
	StatePending      ItemState = "pending"
	StateAcknowledged ItemState = "acknowledged"
	StateIssued       ItemState = "issued"
)

// IssueReport carries operator-entered discrepancy data. A nil field
// means the operator left that measurement blank.
type IssueReport struct {
	ActualQty         *float64 `json:"actual_qty,omitempty"`
	ActualTotalWeight *float64 `json:"actual_total_weight,omitempty"`
	Remarks           string   `json:"remarks,omitempty"`
}

// Receipt is the assembled confirm-receipt submission.
type Receipt struct {
	ReceiptNo      string       `json:"receipt_no"`
	TransferNumber string       `json:"transfer_number"`
	BoxCondition   string       `json:"box_condition"`
	Remarks        string       `json:"remarks,omitempty"`
	ConfirmedBy    string       `json:"confirmed_by,omitempty"`
	ConfirmedAt    time.Time    `json:"confirmed_at"`
	Boxes          []ReceiptBox `json:"boxes"`
}

// ReceiptBox is one record in the flat submission list. Real boxes keep
// their numeric identifier as a string; article lines become pseudo
// boxes with a position-derived identifier.
type ReceiptBox struct {
	BoxID          string       `json:"box_id"`
	Article        string       `json:"article"`
	BatchNo        string       `json:"batch_no,omitempty"`
	TxNo           string       `json:"tx_no,omitempty"`
	NetWeight      float64      `json:"net_weight,omitempty"`
	GrossWeight    float64      `json:"gross_weight,omitempty"`
	ExpectedQty    float64      `json:"expected_qty,omitempty"`
	ExpectedWeight float64      `json:"expected_weight,omitempty"`
	Category       string       `json:"category,omitempty"`
	IsMatched      bool         `json:"is_matched"`
	Issue          *IssueReport `json:"issue,omitempty"`
}

var (
	// ErrNotFound indicates a missing transfer or receipt.
	ErrNotFound = errors.New("transferin: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("transferin: validation failed")
	// ErrNoTracker indicates no reconciliation in progress for the session.
	ErrNoTracker = errors.New("transferin: no reconciliation in progress")
	// ErrItemNotFound indicates an unknown box or line reference.
	ErrItemNotFound = errors.New("transferin: reconciliation item not found")
	// ErrPendingItems blocks confirmation while any item is pending.
	ErrPendingItems = errors.New("transferin: pending items remain")
	// ErrAlreadyReceived indicates the transfer has a receipt on record.
	ErrAlreadyReceived = errors.New("transferin: transfer already received")
)
