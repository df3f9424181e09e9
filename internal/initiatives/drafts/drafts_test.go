package drafts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func sampleBatch(expiresAt time.Time) *Batch {
	return &Batch{
		ID:           "batch-1",
		InitiativeID: 1,
		CreatedAt:    expiresAt.Add(-time.Hour),
		ExpiresAt:    expiresAt,
		Drafts: []Draft{
			{ID: "d1", To: "a@acme.test", Subject: "s1"},
			{ID: "d2", To: "b@acme.test", Subject: "s2"},
			{ID: "d3", To: "c@acme.test", Subject: "s3"},
		},
	}
}

func TestBatchSelectKeepsOrderAndDropsUnknown(t *testing.T) {
	got := sampleBatch(time.Now().Add(time.Hour)).Select([]string{"d3", "nope", "d1", "d3"})
	if len(got) != 2 || got[0].ID != "d1" || got[1].ID != "d3" {
		t.Fatalf("unexpected selection %+v", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Save(ctx, sampleBatch(now.Add(time.Hour))); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, "batch-1")
	if err != nil || len(got.Drafts) != 3 {
		t.Fatalf("expected stored batch, got %v / %v", got, err)
	}

	got.Drafts[0].Subject = "mutated"
	again, _ := store.Get(ctx, "batch-1")
	if again.Drafts[0].Subject != "s1" {
		t.Fatalf("store must not share draft slices with callers")
	}

	now = now.Add(2 * time.Hour)
	if _, err := store.Get(ctx, "batch-1"); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected expired batch to be gone, got %v", err)
	}
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	ctx := context.Background()

	expired := sampleBatch(now.Add(-time.Minute))
	expired.ID = "old"
	_ = store.Save(ctx, expired)
	_ = store.Save(ctx, sampleBatch(now.Add(time.Hour)))

	removed, err := store.PurgeExpired(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("expected one purged batch, got %d / %v", removed, err)
	}
	if _, err := store.Get(ctx, "batch-1"); err != nil {
		t.Fatalf("live batch should survive purge: %v", err)
	}
}

func TestRedisStoreRoundTripAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer store.Close()
	ctx := context.Background()

	if err := store.Save(ctx, sampleBatch(time.Now().Add(30*time.Minute))); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, "batch-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.InitiativeID != 1 || len(got.Drafts) != 3 || got.Drafts[1].To != "b@acme.test" {
		t.Fatalf("unexpected batch %+v", got)
	}
	if ttl := mr.TTL(redisKeyPrefix + "batch-1"); ttl <= 0 || ttl > 30*time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	mr.FastForward(31 * time.Minute)
	if _, err := store.Get(ctx, "batch-1"); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected expiry in redis, got %v", err)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	_ = store.Save(ctx, sampleBatch(time.Now().Add(time.Hour)))
	if err := store.Delete(ctx, "batch-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "batch-1"); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected deleted batch to be gone, got %v", err)
	}
}
