package database

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
)

// PolicyCacheOptions contains configuration for a PolicyCache
type PolicyCacheOptions struct {
	MaxSize int

	// TTL bounds how stale a policy written by another instance can be.
	TTL time.Duration
}

// DefaultPolicyCacheOptions returns the default cache options
func DefaultPolicyCacheOptions() PolicyCacheOptions {
	return PolicyCacheOptions{
		MaxSize: 1000,
		TTL:     5 * time.Minute,
	}
}

type policyEntry struct {
	guildID  string
	policy   *punishment.Policy
	storedAt time.Time
}

// PolicyCache is an LRU read-through cache in front of a PolicyStore.
// Updates go through to the store and replace the cached copy.
type PolicyCache struct {
	store   punishment.PolicyStore
	clock   clock.Clock
	options PolicyCacheOptions

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	// writes counts updates; a load that saw an older count is not cached.
	writes uint64
}

// NewPolicyCache wraps store.
func NewPolicyCache(store punishment.PolicyStore, clk clock.Clock, opts PolicyCacheOptions) *PolicyCache {
	return &PolicyCache{
		store:   store,
		clock:   clk,
		options: opts,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func clonePolicy(p *punishment.Policy) *punishment.Policy {
	c := *p
	c.ProtectedRoleIDs = append([]string(nil), p.ProtectedRoleIDs...)
	c.ProtectedUserIDs = append([]string(nil), p.ProtectedUserIDs...)
	return &c
}

func (c *PolicyCache) lookup(guildID string) (*punishment.Policy, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[guildID]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*policyEntry)
	if c.options.TTL > 0 && c.clock.Now().Sub(entry.storedAt) >= c.options.TTL {
		c.order.Remove(elem)
		delete(c.entries, guildID)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return clonePolicy(entry.policy), true
}

func (c *PolicyCache) writeCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// rememberLoaded caches a policy read from the store unless an update
// landed after the read started.
func (c *PolicyCache) rememberLoaded(p *punishment.Policy, seen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writes != seen {
		return
	}
	c.storeLocked(p)
}

func (c *PolicyCache) rememberWritten(p *punishment.Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	c.storeLocked(p)
}

func (c *PolicyCache) storeLocked(p *punishment.Policy) {
	entry := &policyEntry{guildID: p.GuildID, policy: clonePolicy(p), storedAt: c.clock.Now()}
	if elem, ok := c.entries[p.GuildID]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return
	}
	c.entries[p.GuildID] = c.order.PushFront(entry)

	if c.options.MaxSize > 0 && c.order.Len() > c.options.MaxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*policyEntry).guildID)
	}
}

// Invalidate drops the cached policy for guildID.
func (c *PolicyCache) Invalidate(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	if elem, ok := c.entries[guildID]; ok {
		c.order.Remove(elem)
		delete(c.entries, guildID)
	}
}

// Len returns the number of cached policies.
func (c *PolicyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// EnsureExists skips the store when the policy is cached.
func (c *PolicyCache) EnsureExists(ctx context.Context, guildID string) error {
	if _, ok := c.lookup(guildID); ok {
		return nil
	}
	return c.store.EnsureExists(ctx, guildID)
}

// Get returns the cached policy or loads it. ErrPolicyNotFound is not cached.
func (c *PolicyCache) Get(ctx context.Context, guildID string) (*punishment.Policy, error) {
	if p, ok := c.lookup(guildID); ok {
		return p, nil
	}
	seen := c.writeCount()
	p, err := c.store.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}
	c.rememberLoaded(p, seen)
	return clonePolicy(p), nil
}

// GetOrCreate returns the cached policy or creates and caches it.
func (c *PolicyCache) GetOrCreate(ctx context.Context, guildID string) (*punishment.Policy, error) {
	if p, ok := c.lookup(guildID); ok {
		return p, nil
	}
	seen := c.writeCount()
	p, err := c.store.GetOrCreate(ctx, guildID)
	if err != nil {
		return nil, err
	}
	c.rememberLoaded(p, seen)
	return clonePolicy(p), nil
}

// Update writes through and caches the stored result.
func (c *PolicyCache) Update(ctx context.Context, guildID string, u punishment.PolicyUpdate, updatedBy string) (*punishment.Policy, error) {
	p, err := c.store.Update(ctx, guildID, u, updatedBy)
	if err != nil {
		c.Invalidate(guildID)
		return nil, err
	}
	c.rememberWritten(p)
	return clonePolicy(p), nil
}
