package transferin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTransfer() Transfer {
	return Transfer{
		Number: "TR-1001",
		Boxes: []Box{
			{ID: 11, Article: "Denim Jacket", BatchNo: "B-7", NetWeight: 12.5, GrossWeight: 13.2},
			{ID: 12, Article: "Denim Jacket", BatchNo: "B-7", NetWeight: 11.9, GrossWeight: 12.6},
		},
		Lines: []ArticleLine{
			{Article: "Cotton Shirt", ExpectedQty: 40, ExpectedWeight: 8, Category: "apparel"},
		},
	}
}

func TestNewTrackerStartsAllPending(t *testing.T) {
	tracker := NewTracker(sampleTransfer())
	require.Len(t, tracker.Items, 3)
	require.Equal(t, 3, tracker.PendingCount())
	require.False(t, tracker.Ready())
	require.Equal(t, KindBox, tracker.Items[0].Kind)
	require.Equal(t, KindLine, tracker.Items[2].Kind)
	require.Equal(t, 1, tracker.Items[2].LinePos)
}

func TestAcknowledgeClearsPriorIssue(t *testing.T) {
	tracker := NewTracker(sampleTransfer())

	require.NoError(t, tracker.ReportIssue(KindBox, 11, IssueInput{ActualQty: "3", Remarks: "short"}))
	item := tracker.Items[0]
	require.Equal(t, StateIssued, item.State)
	require.NotNil(t, item.Issue)

	require.NoError(t, tracker.Acknowledge(KindBox, 11))
	item = tracker.Items[0]
	require.Equal(t, StateAcknowledged, item.State)
	require.Nil(t, item.Issue)
}

func TestReportIssueClearsAcknowledgedAndOverwrites(t *testing.T) {
	tracker := NewTracker(sampleTransfer())

	require.NoError(t, tracker.Acknowledge(KindLine, 1))
	require.NoError(t, tracker.ReportIssue(KindLine, 1, IssueInput{ActualQty: "5"}))
	item := tracker.Items[2]
	require.Equal(t, StateIssued, item.State)
	require.NotNil(t, item.Issue.ActualQty)
	require.InDelta(t, 5, *item.Issue.ActualQty, 0.001)
	require.Nil(t, item.Issue.ActualTotalWeight)

	// Re-issue overwrites rather than stacks.
	require.NoError(t, tracker.ReportIssue(KindLine, 1, IssueInput{ActualTotalWeight: "7.5", Remarks: "reweighed"}))
	item = tracker.Items[2]
	require.Nil(t, item.Issue.ActualQty)
	require.InDelta(t, 7.5, *item.Issue.ActualTotalWeight, 0.001)
	require.Equal(t, "reweighed", item.Issue.Remarks)
}

func TestReportIssueRejectsBlankNumbersWithoutStateChange(t *testing.T) {
	tracker := NewTracker(sampleTransfer())

	err := tracker.ReportIssue(KindBox, 11, IssueInput{Remarks: "looks off"})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, StatePending, tracker.Items[0].State)
	require.Nil(t, tracker.Items[0].Issue)

	err = tracker.ReportIssue(KindBox, 11, IssueInput{ActualQty: "abc", ActualTotalWeight: "  "})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, StatePending, tracker.Items[0].State)
}

func TestUnknownItemRef(t *testing.T) {
	tracker := NewTracker(sampleTransfer())
	require.ErrorIs(t, tracker.Acknowledge(KindBox, 99), ErrItemNotFound)
	require.ErrorIs(t, tracker.ReportIssue(KindLine, 9, IssueInput{ActualQty: "1"}), ErrItemNotFound)
}

func TestAcknowledgeAllPreservesIssuedItems(t *testing.T) {
	tracker := NewTracker(sampleTransfer())
	require.NoError(t, tracker.ReportIssue(KindBox, 12, IssueInput{ActualQty: "0"}))

	tracker.AcknowledgeAll()
	require.Equal(t, StateAcknowledged, tracker.Items[0].State)
	require.Equal(t, StateIssued, tracker.Items[1].State)
	require.NotNil(t, tracker.Items[1].Issue)
	require.Equal(t, StateAcknowledged, tracker.Items[2].State)
	require.True(t, tracker.Ready())
}

func TestAcknowledgeGroupScopedToArticleBoxes(t *testing.T) {
	tracker := NewTracker(sampleTransfer())

	tracker.AcknowledgeGroup("Denim Jacket")
	require.Equal(t, StateAcknowledged, tracker.Items[0].State)
	require.Equal(t, StateAcknowledged, tracker.Items[1].State)
	// The loose article line stays pending even on an article name match.
	tracker.AcknowledgeGroup("Cotton Shirt")
	require.Equal(t, StatePending, tracker.Items[2].State)
}

func TestConfirmGate(t *testing.T) {
	empty := NewTracker(Transfer{Number: "TR-empty"})
	require.False(t, empty.Ready())
	_, err := empty.BuildSubmission("good", "")
	require.ErrorIs(t, err, ErrPendingItems)

	tracker := NewTracker(sampleTransfer())
	_, err = tracker.BuildSubmission("good", "")
	require.ErrorIs(t, err, ErrPendingItems)

	tracker.AcknowledgeAll()
	receipt, err := tracker.BuildSubmission("good", "")
	require.NoError(t, err)
	require.Len(t, receipt.Boxes, 3)
}

func TestBuildSubmissionTwoBoxesOneIssuedLine(t *testing.T) {
	tracker := NewTracker(sampleTransfer())
	require.NoError(t, tracker.Acknowledge(KindBox, 11))
	require.NoError(t, tracker.Acknowledge(KindBox, 12))
	require.NoError(t, tracker.ReportIssue(KindLine, 1, IssueInput{ActualQty: "5", ActualTotalWeight: "0", Remarks: ""}))
	require.True(t, tracker.Ready())

	receipt, err := tracker.BuildSubmission("damaged corner", "left at dock 3")
	require.NoError(t, err)
	require.Equal(t, "TR-1001", receipt.TransferNumber)
	require.Regexp(t, `^GRN-\d+$`, receipt.ReceiptNo)
	require.Equal(t, "damaged corner", receipt.BoxCondition)
	require.Len(t, receipt.Boxes, 3)

	require.Equal(t, "11", receipt.Boxes[0].BoxID)
	require.True(t, receipt.Boxes[0].IsMatched)
	require.Nil(t, receipt.Boxes[0].Issue)
	require.True(t, receipt.Boxes[1].IsMatched)

	line := receipt.Boxes[2]
	require.Equal(t, "LINE-001", line.BoxID)
	require.False(t, line.IsMatched)
	require.NotNil(t, line.Issue)
	require.InDelta(t, 5, *line.Issue.ActualQty, 0.001)
	require.InDelta(t, 0, *line.Issue.ActualTotalWeight, 0.001)
}
