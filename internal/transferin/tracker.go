package transferin

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Item is one reconciliation entry, a box or an article line, carrying
// enough of the source record to assemble the final submission without
// a second lookup.
type Item struct {
	Kind    ItemKind `json:"kind"`
	BoxID   int64    `json:"box_id,omitempty"`
	LinePos int      `json:"line_pos,omitempty"`

	Article        string  `json:"article"`
	BatchNo        string  `json:"batch_no,omitempty"`
	TxNo           string  `json:"tx_no,omitempty"`
	NetWeight      float64 `json:"net_weight,omitempty"`
	GrossWeight    float64 `json:"gross_weight,omitempty"`
	ExpectedQty    float64 `json:"expected_qty,omitempty"`
	ExpectedWeight float64 `json:"expected_weight,omitempty"`
	Category       string  `json:"category,omitempty"`

	State ItemState    `json:"state"`
	Issue *IssueReport `json:"issue,omitempty"`
}

// Tracker drives the receive-a-transfer workflow for one session. Every
// item starts pending and must reach acknowledged or issued before the
// receipt can be confirmed. The tracker is a plain value so it can be
// stored in redis between requests.
type Tracker struct {
	TransferNumber string    `json:"transfer_number"`
	Items          []Item    `json:"items"`
	LoadedAt       time.Time `json:"loaded_at"`
}

// NewTracker initialises reconciliation state for a freshly loaded
// transfer. Boxes come first, article lines after, positions 1-based.
func NewTracker(transfer Transfer) *Tracker {
	tracker := &Tracker{TransferNumber: transfer.Number, LoadedAt: time.Now()}
	for _, box := range transfer.Boxes {
		tracker.Items = append(tracker.Items, Item{
			Kind:        KindBox,
			BoxID:       box.ID,
			Article:     box.Article,
			BatchNo:     box.BatchNo,
			TxNo:        box.TxNo,
			NetWeight:   box.NetWeight,
			GrossWeight: box.GrossWeight,
			State:       StatePending,
		})
	}
	for i, line := range transfer.Lines {
		tracker.Items = append(tracker.Items, Item{
			Kind:           KindLine,
			LinePos:        i + 1,
			Article:        line.Article,
			ExpectedQty:    line.ExpectedQty,
			ExpectedWeight: line.ExpectedWeight,
			Category:       line.Category,
			State:          StatePending,
		})
	}
	return tracker
}

// IssueInput is the raw issue-report form payload. Quantities arrive as
// text and must parse as numbers; at least one of the two is required.
type IssueInput struct {
	ActualQty         string
	ActualTotalWeight string
	Remarks           string
}

// Acknowledge marks one item acknowledged. A prior issue report is
// discarded, an item never carries both payload shapes.
func (t *Tracker) Acknowledge(kind ItemKind, ref int64) error {
	item := t.find(kind, ref)
	if item == nil {
		return ErrItemNotFound
	}
	item.State = StateAcknowledged
	item.Issue = nil
	return nil
}

// ReportIssue marks one item issued with the given discrepancy data.
// Reporting again overwrites the previous issue. Validation happens
// before any state change.
func (t *Tracker) ReportIssue(kind ItemKind, ref int64, input IssueInput) error {
	issue, err := parseIssue(input)
	if err != nil {
		return err
	}
	item := t.find(kind, ref)
	if item == nil {
		return ErrItemNotFound
	}
	item.State = StateIssued
	item.Issue = issue
	return nil
}

// AcknowledgeAll acknowledges every pending item. Issued items keep
// their operator-entered discrepancies.
func (t *Tracker) AcknowledgeAll() {
	for i := range t.Items {
		if t.Items[i].State == StatePending {
			t.Items[i].State = StateAcknowledged
		}
	}
}

// AcknowledgeGroup acknowledges the pending boxes of one article group.
func (t *Tracker) AcknowledgeGroup(article string) {
	for i := range t.Items {
		item := &t.Items[i]
		if item.Kind == KindBox && item.Article == article && item.State == StatePending {
			item.State = StateAcknowledged
		}
	}
}

// PendingCount returns how many items still block confirmation.
func (t *Tracker) PendingCount() int {
	n := 0
	for _, item := range t.Items {
		if item.State == StatePending {
			n++
		}
	}
	return n
}

// Ready reports whether the receipt can be confirmed: every item in a
// terminal state and at least one item present.
func (t *Tracker) Ready() bool {
	return len(t.Items) > 0 && t.PendingCount() == 0
}

// BuildSubmission assembles the flat confirm-receipt payload. Boxes
// keep their identifiers; article lines become pseudo boxes with a
// position-derived identifier. Acknowledged items are matched, issued
// items carry their discrepancy payload.
func (t *Tracker) BuildSubmission(boxCondition, remarks string) (Receipt, error) {
	if !t.Ready() {
		return Receipt{}, ErrPendingItems
	}
	receipt := Receipt{
		ReceiptNo:      generateReceiptNo(),
		TransferNumber: t.TransferNumber,
		BoxCondition:   boxCondition,
		Remarks:        remarks,
		ConfirmedAt:    time.Now(),
	}
	for _, item := range t.Items {
		record := ReceiptBox{
			Article:        item.Article,
			BatchNo:        item.BatchNo,
			TxNo:           item.TxNo,
			NetWeight:      item.NetWeight,
			GrossWeight:    item.GrossWeight,
			ExpectedQty:    item.ExpectedQty,
			ExpectedWeight: item.ExpectedWeight,
			Category:       item.Category,
			IsMatched:      item.State == StateAcknowledged,
			Issue:          item.Issue,
		}
		if item.Kind == KindBox {
			record.BoxID = strconv.FormatInt(item.BoxID, 10)
		} else {
			record.BoxID = fmt.Sprintf("LINE-%03d", item.LinePos)
		}
		receipt.Boxes = append(receipt.Boxes, record)
	}
	return receipt, nil
}

func (t *Tracker) find(kind ItemKind, ref int64) *Item {
	for i := range t.Items {
		item := &t.Items[i]
		switch {
		case kind == KindBox && item.Kind == KindBox && item.BoxID == ref:
			return item
		case kind == KindLine && item.Kind == KindLine && int64(item.LinePos) == ref:
			return item
		}
	}
	return nil
}

func parseIssue(input IssueInput) (*IssueReport, error) {
	issue := &IssueReport{Remarks: strings.TrimSpace(input.Remarks)}
	if qty, ok := parseNumber(input.ActualQty); ok {
		issue.ActualQty = &qty
	}
	if weight, ok := parseNumber(input.ActualTotalWeight); ok {
		issue.ActualTotalWeight = &weight
	}
	if issue.ActualQty == nil && issue.ActualTotalWeight == nil {
		return nil, fmt.Errorf("%w: actual quantity or actual total weight required", ErrValidation)
	}
	return issue, nil
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func generateReceiptNo() string {
	return fmt.Sprintf("GRN-%d", time.Now().UnixNano())
}
