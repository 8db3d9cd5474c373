package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/punishment"
)

type countingStore struct {
	punishment.PolicyStore
	gets int
}

func (s *countingStore) Get(ctx context.Context, guildID string) (*punishment.Policy, error) {
	s.gets++
	return s.PolicyStore.Get(ctx, guildID)
}

func TestPolicyCacheServesRepeatedReads(t *testing.T) {
	db, clk := openTestDB(t)
	ctx := context.Background()
	store := &countingStore{PolicyStore: db.Policies()}
	cache := NewPolicyCache(store, clk, PolicyCacheOptions{MaxSize: 10, TTL: time.Minute})

	if err := cache.EnsureExists(ctx, "g1"); err != nil {
		t.Fatalf("EnsureExists() returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := cache.Get(ctx, "g1"); err != nil {
			t.Fatalf("Get() returned error: %v", err)
		}
	}
	if store.gets != 1 {
		t.Errorf("store gets = %d, want 1", store.gets)
	}

	clk.Advance(time.Minute)
	if _, err := cache.Get(ctx, "g1"); err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if store.gets != 2 {
		t.Errorf("store gets after TTL = %d, want 2", store.gets)
	}
}

func TestPolicyCacheUpdateReplacesEntry(t *testing.T) {
	db, clk := openTestDB(t)
	ctx := context.Background()
	cache := NewPolicyCache(db.Policies(), clk, DefaultPolicyCacheOptions())

	if _, err := cache.GetOrCreate(ctx, "g1"); err != nil {
		t.Fatalf("GetOrCreate() returned error: %v", err)
	}
	if _, err := cache.Update(ctx, "g1", punishment.PolicyUpdate{MutedRoleID: strPtr("muted")}, "admin"); err != nil {
		t.Fatalf("Update() returned error: %v", err)
	}

	p, err := cache.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if p.MutedRoleID == nil || *p.MutedRoleID != "muted" {
		t.Errorf("MutedRoleID = %v, want muted", p.MutedRoleID)
	}
}

func TestPolicyCacheReturnsCopies(t *testing.T) {
	db, clk := openTestDB(t)
	ctx := context.Background()
	cache := NewPolicyCache(db.Policies(), clk, DefaultPolicyCacheOptions())

	if _, err := cache.Update(ctx, "g1", punishment.PolicyUpdate{ProtectedUserIDs: []string{"u1"}}, "admin"); err != nil {
		t.Fatalf("Update() returned error: %v", err)
	}
	p, _ := cache.Get(ctx, "g1")
	p.ProtectedUserIDs[0] = "changed"

	again, _ := cache.Get(ctx, "g1")
	if again.ProtectedUserIDs[0] != "u1" {
		t.Errorf("ProtectedUserIDs[0] = %q, want u1", again.ProtectedUserIDs[0])
	}
}

func TestPolicyCacheEvictsLeastRecentlyUsed(t *testing.T) {
	db, clk := openTestDB(t)
	ctx := context.Background()
	cache := NewPolicyCache(db.Policies(), clk, PolicyCacheOptions{MaxSize: 2})

	for _, g := range []string{"g1", "g2", "g3"} {
		if _, err := cache.GetOrCreate(ctx, g); err != nil {
			t.Fatalf("GetOrCreate(%s) returned error: %v", g, err)
		}
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
	if _, ok := cache.lookup("g1"); ok {
		t.Error("g1 still cached, want evicted")
	}
}

func TestPolicyCacheDoesNotCacheMissingPolicy(t *testing.T) {
	db, clk := openTestDB(t)
	cache := NewPolicyCache(db.Policies(), clk, DefaultPolicyCacheOptions())

	if _, err := cache.Get(context.Background(), "nope"); !errors.Is(err, punishment.ErrPolicyNotFound) {
		t.Errorf("Get() error = %v, want ErrPolicyNotFound", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

// pausingStore returns the first Get result only after resume is closed,
// leaving room for an update to land in between.
type pausingStore struct {
	punishment.PolicyStore
	once   sync.Once
	paused chan struct{}
	resume chan struct{}
}

func (s *pausingStore) Get(ctx context.Context, guildID string) (*punishment.Policy, error) {
	p, err := s.PolicyStore.Get(ctx, guildID)
	s.once.Do(func() {
		close(s.paused)
		<-s.resume
	})
	return p, err
}

func TestPolicyCacheKeepsUpdateOverSlowerRead(t *testing.T) {
	db, clk := openTestDB(t)
	ctx := context.Background()
	if err := db.Policies().EnsureExists(ctx, "g1"); err != nil {
		t.Fatalf("EnsureExists() returned error: %v", err)
	}
	store := &pausingStore{PolicyStore: db.Policies(), paused: make(chan struct{}), resume: make(chan struct{})}
	cache := NewPolicyCache(store, clk, DefaultPolicyCacheOptions())

	read := make(chan *punishment.Policy, 1)
	go func() {
		p, _ := cache.Get(ctx, "g1")
		read <- p
	}()
	<-store.paused

	if _, err := cache.Update(ctx, "g1", punishment.PolicyUpdate{MutedRoleID: strPtr("muted")}, "admin"); err != nil {
		t.Fatalf("Update() returned error: %v", err)
	}
	close(store.resume)
	if stale := <-read; stale.MutedRoleID != nil {
		t.Fatalf("first read should predate the update, got %v", *stale.MutedRoleID)
	}

	p, err := cache.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if p.MutedRoleID == nil || *p.MutedRoleID != "muted" {
		t.Errorf("MutedRoleID = %v, want muted", p.MutedRoleID)
	}
}
