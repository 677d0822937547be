package transferin

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TrackerStore keeps per-session reconciliation state in redis. One
// tracker per session: loading another transfer overwrites it.
type TrackerStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTrackerStore constructs the store. TTL should match the session
// lifetime so abandoned reconciliations expire with their session.
func NewTrackerStore(client *redis.Client, ttl time.Duration) *TrackerStore {
	return &TrackerStore{client: client, ttl: ttl}
}

// Save stores the tracker for the session, replacing any previous one.
func (s *TrackerStore) Save(ctx context.Context, sessionID string, tracker *Tracker) error {
	if sessionID == "" {
		return errors.New("transferin: session id required")
	}
	data, err := json.Marshal(tracker)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err()
}

// Load returns the session's tracker or ErrNoTracker.
func (s *TrackerStore) Load(ctx context.Context, sessionID string) (*Tracker, error) {
	if sessionID == "" {
		return nil, ErrNoTracker
	}
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoTracker
		}
		return nil, err
	}
	var tracker Tracker
	if err := json.Unmarshal(data, &tracker); err != nil {
		return nil, err
	}
	return &tracker, nil
}

// Mutate loads the tracker, applies fn and writes it back under WATCH
// so a concurrent overwrite from the same session aborts the write
// instead of resurrecting stale state.
func (s *TrackerStore) Mutate(ctx context.Context, sessionID string, fn func(*Tracker) error) (*Tracker, error) {
	if sessionID == "" {
		return nil, ErrNoTracker
	}
	key := s.key(sessionID)
	var out *Tracker
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNoTracker
			}
			return err
		}
		var tracker Tracker
		if err := json.Unmarshal(data, &tracker); err != nil {
			return err
		}
		if err := fn(&tracker); err != nil {
			return err
		}
		updated, err := json.Marshal(&tracker)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		out = &tracker
		return nil
	}, key)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the session's tracker.
func (s *TrackerStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *TrackerStore) key(sessionID string) string {
	return "transferin:tracker:" + sessionID
}
