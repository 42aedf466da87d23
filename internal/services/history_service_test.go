package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func TestHistoryRoundTrip(t *testing.T) {
	store := NewHistoryStore(newMemCache(), time.Hour)
	ctx := context.Background()

	hist, err := store.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 0 {
		t.Fatalf("fresh history = %d turns, want 0", len(hist))
	}

	if _, err := store.Append(ctx, "c1", "what is rabies", "Rabies is a viral disease."); err != nil {
		t.Fatal(err)
	}
	hist, err = store.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0].User() != "what is rabies" {
		t.Errorf("history = %v, want one stored exchange", hist)
	}

	if err := store.Clear(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	hist, err = store.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 0 {
		t.Errorf("history after clear = %d turns, want 0", len(hist))
	}
}

func TestHistoryBounded(t *testing.T) {
	store := NewHistoryStore(newMemCache(), time.Hour)
	ctx := context.Background()

	total := MaxHistoryTurns + 4
	for i := range total {
		q := fmt.Sprintf("question %d", i)
		if _, err := store.Append(ctx, "c1", q, "answer"); err != nil {
			t.Fatal(err)
		}
	}

	hist, err := store.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != MaxHistoryTurns {
		t.Fatalf("history = %d turns, want bound of %d", len(hist), MaxHistoryTurns)
	}
	// Oldest turns are dropped first.
	if want := fmt.Sprintf("question %d", total-MaxHistoryTurns); hist[0].User() != want {
		t.Errorf("oldest kept turn = %q, want %q", hist[0].User(), want)
	}
	if want := fmt.Sprintf("question %d", total-1); hist[len(hist)-1].User() != want {
		t.Errorf("newest turn = %q, want %q", hist[len(hist)-1].User(), want)
	}
}

func TestHistoryRequiresSessionID(t *testing.T) {
	store := NewHistoryStore(newMemCache(), time.Hour)

	if _, err := store.Get(context.Background(), ""); err == nil {
		t.Error("expected error for empty client session id")
	}
}

func TestHistoryKeysAreIsolated(t *testing.T) {
	store := NewHistoryStore(newMemCache(), time.Hour)
	ctx := context.Background()

	if _, err := store.Append(ctx, "c1", "q1", "a1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Append(ctx, "c2", "q2", "a2"); err != nil {
		t.Fatal(err)
	}

	hist, err := store.Get(ctx, "c2")
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0].User() != "q2" {
		t.Errorf("history for c2 = %v, want only its own exchange", hist)
	}
}
