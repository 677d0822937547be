package extraction

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// SKUPort abstracts the catalogue lookup client.
type SKUPort interface {
	Lookup(ctx context.Context, description string) (SKUMatch, error)
}

// SKUMetricsPort counts lookup outcomes.
type SKUMetricsPort interface {
	SKULookup(outcome string)
}

// Resolver resolves extracted article descriptions against the catalogue
// with a bounded concurrent fan-out.
type Resolver struct {
	client  SKUPort
	metrics SKUMetricsPort
	workers int
}

// NewResolver constructs a Resolver. workers bounds concurrent lookups.
func NewResolver(client SKUPort, metrics SKUMetricsPort, workers int) *Resolver {
	if workers <= 0 {
		workers = 8
	}
	return &Resolver{
		client:  client,
		metrics: metrics,
		workers: workers,
	}
}

// ResolveAll looks up every article concurrently. Each article reflects its
// own outcome: a catalogue miss is a definitive answer (resolved, no code),
// a transport failure marks just that article as errored. One bad lookup
// never aborts the batch. Results are applied only while ctx is live so a
// late response after cancellation cannot touch the slice.
func (r *Resolver) ResolveAll(ctx context.Context, articles []ArticleExtract) []ArticleExtract {
	if len(articles) == 0 {
		return articles
	}
	out := cloneArticles(articles)
	for i := range out {
		out[i].SKUStatus = SKUStatusLoading
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range out {
		g.Go(func() error {
			match, err := r.client.Lookup(gctx, r.normalize(out[i].ItemDescription))
			if gctx.Err() != nil {
				return nil
			}
			switch {
			case errors.Is(err, ErrSKUNotFound):
				out[i].SKUStatus = SKUStatusResolved
				out[i].SKUCode = ""
				out[i].SKUCategory = ""
				r.countLookup("not_found")
			case err != nil:
				out[i].SKUStatus = SKUStatusError
				r.countLookup("error")
			default:
				out[i].SKUStatus = SKUStatusResolved
				out[i].SKUCode = match.SKUCode
				out[i].SKUCategory = match.Category
				r.countLookup("resolved")
			}
			return nil
		})
	}
	_ = g.Wait()

	// Anything still loading was cut short by cancellation.
	for i := range out {
		if out[i].SKUStatus == SKUStatusLoading {
			out[i].SKUStatus = SKUStatusIdle
		}
	}
	return out
}

// normalize folds case and composes unicode so equivalent descriptions hit
// the same catalogue entry regardless of how the extractor rendered them.
// A Caser is stateful, so each call gets its own.
func (r *Resolver) normalize(description string) string {
	s := norm.NFC.String(strings.TrimSpace(description))
	s = strings.Join(strings.Fields(s), " ")
	return cases.Lower(language.English).String(s)
}

func (r *Resolver) countLookup(outcome string) {
	if r.metrics != nil {
		r.metrics.SKULookup(outcome)
	}
}
