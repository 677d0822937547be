package extraction

import "strings"

// Merge combines per-page extraction results into a single ordered sequence
// of purchase orders.
//
// Pages are processed in input order. A purchase order carrying the same
// trimmed PO number as an earlier one is folded into it: its articles are
// appended and any field the earlier record left empty is backfilled. An
// entry without a PO number is a continuation of the most recently appended
// order. Entries with neither a number nor articles are extractor noise and
// dropped. Inputs are never mutated; article slices are copied, not aliased.
func Merge(pages []PageExtractResult) []PurchaseOrderExtract {
	merged := []PurchaseOrderExtract{}
	index := make(map[string]int)

	for _, page := range pages {
		for _, po := range page.PurchaseOrders {
			key := strings.TrimSpace(po.PONumber)
			if key == "" && len(po.Articles) == 0 {
				continue
			}
			if key == "" {
				if len(merged) == 0 {
					orphan := clonePO(po)
					orphan.PONumber = ""
					merged = append(merged, orphan)
					continue
				}
				foldInto(&merged[len(merged)-1], po)
				continue
			}
			if at, ok := index[key]; ok {
				foldInto(&merged[at], po)
				continue
			}
			rec := clonePO(po)
			rec.PONumber = key
			index[key] = len(merged)
			merged = append(merged, rec)
		}
	}
	return merged
}

// foldInto appends src's articles to dst and backfills fields dst has not
// populated yet. First-seen values win: a populated field is never
// overwritten. Zero counts as unpopulated, so a later page can fill a field
// the first page reported as zero.
func foldInto(dst *PurchaseOrderExtract, src PurchaseOrderExtract) {
	dst.Articles = append(dst.Articles, cloneArticles(src.Articles)...)

	if dst.SupplierName == "" {
		dst.SupplierName = src.SupplierName
	}
	if dst.CustomerName == "" {
		dst.CustomerName = src.CustomerName
	}
	if dst.SourceLocation == "" {
		dst.SourceLocation = src.SourceLocation
	}
	if dst.DestinationLocation == "" {
		dst.DestinationLocation = src.DestinationLocation
	}
	if dst.PurchasedBy == "" {
		dst.PurchasedBy = src.PurchasedBy
	}
	if dst.Currency == "" {
		dst.Currency = src.Currency
	}
	if dst.TotalAmount == 0 {
		dst.TotalAmount = src.TotalAmount
	}
	if dst.TaxAmount == 0 {
		dst.TaxAmount = src.TaxAmount
	}
	if dst.DiscountAmount == 0 {
		dst.DiscountAmount = src.DiscountAmount
	}
	if dst.POQuantity == 0 {
		dst.POQuantity = src.POQuantity
	}
}

func clonePO(po PurchaseOrderExtract) PurchaseOrderExtract {
	out := po
	out.Articles = cloneArticles(po.Articles)
	return out
}

func cloneArticles(articles []ArticleExtract) []ArticleExtract {
	if len(articles) == 0 {
		return nil
	}
	out := make([]ArticleExtract, len(articles))
	copy(out, articles)
	return out
}
