package extraction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func page(pos ...PurchaseOrderExtract) PageExtractResult {
	return PageExtractResult{PurchaseOrders: pos}
}

func TestMergeEmptyInput(t *testing.T) {
	require.Empty(t, Merge(nil))
	require.Empty(t, Merge([]PageExtractResult{}))
}

func TestMergeSkipsEmptyPages(t *testing.T) {
	pages := []PageExtractResult{
		page(),
		page(PurchaseOrderExtract{PONumber: "PO1", Articles: []ArticleExtract{{ItemDescription: "Bolts"}}}),
		page(),
	}
	merged := Merge(pages)
	require.Len(t, merged, 1)
	require.Equal(t, "PO1", merged[0].PONumber)
}

func TestMergeDropsNoiseEntries(t *testing.T) {
	merged := Merge([]PageExtractResult{page(PurchaseOrderExtract{})})
	require.Empty(t, merged)
}

func TestMergeFirstValueWinsArticlesAppend(t *testing.T) {
	pages := []PageExtractResult{
		page(PurchaseOrderExtract{
			PONumber:     "PO1",
			SupplierName: "Acme",
			Articles:     []ArticleExtract{{ItemDescription: "Bolts"}},
		}),
		page(PurchaseOrderExtract{
			PONumber:     "PO1",
			SupplierName: "Other",
			Currency:     "INR",
			Articles: []ArticleExtract{
				{ItemDescription: "Nuts"},
				{ItemDescription: "Washers"},
			},
		}),
	}
	merged := Merge(pages)
	require.Len(t, merged, 1)
	require.Equal(t, "Acme", merged[0].SupplierName)
	require.Equal(t, "INR", merged[0].Currency)
	require.Len(t, merged[0].Articles, 3)
	require.Equal(t, "Bolts", merged[0].Articles[0].ItemDescription)
	require.Equal(t, "Washers", merged[0].Articles[2].ItemDescription)
}

func TestMergeKeyTrimming(t *testing.T) {
	pages := []PageExtractResult{
		page(PurchaseOrderExtract{PONumber: " PO1 ", Articles: []ArticleExtract{{ItemDescription: "A"}}}),
		page(PurchaseOrderExtract{PONumber: "PO1", Articles: []ArticleExtract{{ItemDescription: "B"}}}),
	}
	merged := Merge(pages)
	require.Len(t, merged, 1)
	require.Equal(t, "PO1", merged[0].PONumber)
	require.Len(t, merged[0].Articles, 2)
}

func TestMergeOrphanContinuation(t *testing.T) {
	pages := []PageExtractResult{
		page(PurchaseOrderExtract{PONumber: "PO1", Articles: []ArticleExtract{{ItemDescription: "A"}}}),
		page(PurchaseOrderExtract{
			PurchasedBy: "Ops",
			Articles: []ArticleExtract{
				{ItemDescription: "B"},
				{ItemDescription: "C"},
			},
		}),
	}
	merged := Merge(pages)
	require.Len(t, merged, 1)
	require.Len(t, merged[0].Articles, 3)
	require.Equal(t, "Ops", merged[0].PurchasedBy)
}

func TestMergeOrphanAttachesToMostRecentOrder(t *testing.T) {
	pages := []PageExtractResult{
		page(
			PurchaseOrderExtract{PONumber: "PO1", Articles: []ArticleExtract{{ItemDescription: "A"}}},
			PurchaseOrderExtract{PONumber: "PO2", Articles: []ArticleExtract{{ItemDescription: "B"}}},
		),
		page(PurchaseOrderExtract{Articles: []ArticleExtract{{ItemDescription: "C"}}}),
	}
	merged := Merge(pages)
	require.Len(t, merged, 2)
	require.Len(t, merged[0].Articles, 1)
	require.Len(t, merged[1].Articles, 2)
	require.Equal(t, "C", merged[1].Articles[1].ItemDescription)
}

func TestMergeOrphanBecomesFirstOrder(t *testing.T) {
	merged := Merge([]PageExtractResult{
		page(PurchaseOrderExtract{Articles: []ArticleExtract{{ItemDescription: "A"}}}),
	})
	require.Len(t, merged, 1)
	require.Empty(t, merged[0].PONumber)
	require.Len(t, merged[0].Articles, 1)
}

func TestMergeLaterPageFillsZeroAmount(t *testing.T) {
	// Zero counts as unpopulated by design: a later page may overwrite a
	// legitimately-zero discount.
	pages := []PageExtractResult{
		page(PurchaseOrderExtract{PONumber: "PO1", DiscountAmount: 0, Articles: []ArticleExtract{{ItemDescription: "A"}}}),
		page(PurchaseOrderExtract{PONumber: "PO1", DiscountAmount: 12.5}),
	}
	merged := Merge(pages)
	require.Len(t, merged, 1)
	require.InDelta(t, 12.5, merged[0].DiscountAmount, 0.0001)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	original := PurchaseOrderExtract{PONumber: "PO1", Articles: []ArticleExtract{{ItemDescription: "A"}}}
	pages := []PageExtractResult{
		page(original),
		page(PurchaseOrderExtract{PONumber: "PO1", Articles: []ArticleExtract{{ItemDescription: "B"}}}),
	}
	merged := Merge(pages)
	require.Len(t, merged[0].Articles, 2)
	require.Len(t, pages[0].PurchaseOrders[0].Articles, 1)

	merged[0].Articles[0].ItemDescription = "mutated"
	require.Equal(t, "A", pages[0].PurchaseOrders[0].Articles[0].ItemDescription)
}

func TestMergeIdempotent(t *testing.T) {
	pages := []PageExtractResult{
		page(PurchaseOrderExtract{PONumber: "PO1", SupplierName: "Acme", Articles: []ArticleExtract{{ItemDescription: "A"}}}),
		page(PurchaseOrderExtract{PONumber: "PO2", TotalAmount: 42, Articles: []ArticleExtract{{ItemDescription: "B"}}}),
		page(PurchaseOrderExtract{Articles: []ArticleExtract{{ItemDescription: "C"}}}),
	}
	first := Merge(pages)

	again := make([]PageExtractResult, 0, len(first))
	for _, po := range first {
		again = append(again, page(po))
	}
	second := Merge(again)
	require.Equal(t, first, second)
}
