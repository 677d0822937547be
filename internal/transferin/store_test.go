package transferin

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*TrackerStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTrackerStore(client, time.Hour), mr
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tracker := NewTracker(sampleTransfer())
	require.NoError(t, tracker.ReportIssue(KindBox, 11, IssueInput{ActualQty: "2", Remarks: "dent"}))
	require.NoError(t, store.Save(ctx, "sess-1", tracker))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, "TR-1001", loaded.TransferNumber)
	require.Len(t, loaded.Items, 3)
	require.Equal(t, StateIssued, loaded.Items[0].State)
	require.NotNil(t, loaded.Items[0].Issue.ActualQty)
	require.Equal(t, "dent", loaded.Items[0].Issue.Remarks)
}

func TestStoreLoadMissingSession(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Load(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNoTracker)
	_, err = store.Load(context.Background(), "")
	require.ErrorIs(t, err, ErrNoTracker)
}

func TestStoreSaveReplacesTracker(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", NewTracker(sampleTransfer())))
	require.NoError(t, store.Save(ctx, "sess-1", NewTracker(Transfer{Number: "TR-2", Boxes: []Box{{ID: 1, Article: "A"}}})))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, "TR-2", loaded.TransferNumber)
	require.Len(t, loaded.Items, 1)
}

func TestStoreMutate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", NewTracker(sampleTransfer())))

	updated, err := store.Mutate(ctx, "sess-1", func(tr *Tracker) error {
		return tr.Acknowledge(KindBox, 11)
	})
	require.NoError(t, err)
	require.Equal(t, StateAcknowledged, updated.Items[0].State)

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, StateAcknowledged, loaded.Items[0].State)
}

func TestStoreMutateCallbackErrorLeavesStateUntouched(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", NewTracker(sampleTransfer())))

	_, err := store.Mutate(ctx, "sess-1", func(tr *Tracker) error {
		return tr.ReportIssue(KindBox, 11, IssueInput{})
	})
	require.ErrorIs(t, err, ErrValidation)

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, StatePending, loaded.Items[0].State)
}

func TestStoreMutateMissingTracker(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Mutate(context.Background(), "sess-1", func(tr *Tracker) error { return nil })
	require.ErrorIs(t, err, ErrNoTracker)
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", NewTracker(sampleTransfer())))
	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err := store.Load(ctx, "sess-1")
	require.ErrorIs(t, err, ErrNoTracker)
}

func TestStoreEntriesExpire(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", NewTracker(sampleTransfer())))
	mr.FastForward(2 * time.Hour)
	_, err := store.Load(ctx, "sess-1")
	require.ErrorIs(t, err, ErrNoTracker)
}
