package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSKUClient struct {
	matches map[string]SKUMatch
	broken  map[string]bool
}

func (c *fakeSKUClient) Lookup(ctx context.Context, description string) (SKUMatch, error) {
	if err := ctx.Err(); err != nil {
		return SKUMatch{}, err
	}
	if c.broken[description] {
		return SKUMatch{}, errors.New("catalogue unreachable")
	}
	match, ok := c.matches[description]
	if !ok {
		return SKUMatch{}, ErrSKUNotFound
	}
	return match, nil
}

func TestResolveAllOutcomesAreIndependent(t *testing.T) {
	client := &fakeSKUClient{
		matches: map[string]SKUMatch{"steel bolts": {SKUCode: "SKU-1", Category: "fasteners"}},
		broken:  map[string]bool{"mystery item": true},
	}
	resolver := NewResolver(client, nil, 4)

	articles := []ArticleExtract{
		{ItemDescription: "  Steel   Bolts "},
		{ItemDescription: "Mystery Item"},
		{ItemDescription: "Unknown Widget"},
	}
	out := resolver.ResolveAll(context.Background(), articles)

	require.Equal(t, SKUStatusResolved, out[0].SKUStatus)
	require.Equal(t, "SKU-1", out[0].SKUCode)
	require.Equal(t, "fasteners", out[0].SKUCategory)

	// Transport failure marks only that article.
	require.Equal(t, SKUStatusError, out[1].SKUStatus)
	require.Empty(t, out[1].SKUCode)

	// A catalogue miss is a definitive answer, not an error.
	require.Equal(t, SKUStatusResolved, out[2].SKUStatus)
	require.Empty(t, out[2].SKUCode)
}

func TestResolveAllDoesNotMutateInput(t *testing.T) {
	client := &fakeSKUClient{matches: map[string]SKUMatch{"bolts": {SKUCode: "SKU-1"}}}
	resolver := NewResolver(client, nil, 1)

	articles := []ArticleExtract{{ItemDescription: "Bolts"}}
	out := resolver.ResolveAll(context.Background(), articles)

	require.Equal(t, SKUStatusResolved, out[0].SKUStatus)
	require.Equal(t, SKUStatus(""), articles[0].SKUStatus)
	require.Empty(t, articles[0].SKUCode)
}

func TestResolveAllCancelledContextLeavesArticlesUntouched(t *testing.T) {
	client := &fakeSKUClient{matches: map[string]SKUMatch{"bolts": {SKUCode: "SKU-1"}}}
	resolver := NewResolver(client, nil, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := resolver.ResolveAll(ctx, []ArticleExtract{
		{ItemDescription: "Bolts"},
		{ItemDescription: "Nuts"},
	})
	for _, article := range out {
		require.Equal(t, SKUStatusIdle, article.SKUStatus)
		require.Empty(t, article.SKUCode)
	}
}

func TestResolveAllEmptyInput(t *testing.T) {
	resolver := NewResolver(&fakeSKUClient{}, nil, 2)
	require.Empty(t, resolver.ResolveAll(context.Background(), nil))
}
