// Package cache implements the vault metadata cache: a name->weak
// reference mapping so a VaultDescriptor disappears once no caller holds
// a strong reference to it, matching spec.md §4.5's self-expunging
// requirement. It is built on Go's weak.Pointer and runtime.AddCleanup
// (both introduced in Go 1.24), the closest native equivalent to the
// original's std::weak_ptr + destructor-as-cleanup-hook design: no
// existing example repo in the retrieval pack demonstrates a weak-cache
// pattern, so this is grounded directly on the original C++
// implementation's TokenDB::cleanupCacheEntry / getVault (see DESIGN.md).
package cache

import (
	"context"
	"runtime"
	"sync"
	"weak"

	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

// Loader loads one VaultDescriptor row by alias or table name. It is the
// cache's only collaborator with the storage engine.
type Loader func(ctx context.Context, name string) (*domain.VaultDescriptor, error)

// VaultCache is a name->weak-reference map of vault descriptors, reachable
// by both alias and table name, guarded by a single mutex.
type VaultCache struct {
	mu     sync.Mutex
	byName map[string]weak.Pointer[domain.VaultDescriptor]
	loader Loader
}

// New returns an empty cache that loads misses via loader.
func New(loader Loader) *VaultCache {
	return &VaultCache{
		byName: make(map[string]weak.Pointer[domain.VaultDescriptor]),
		loader: loader,
	}
}

// cleanupArgs is passed by value to the runtime cleanup callback. It must
// not hold a strong reference to the descriptor being cleaned up.
type cleanupArgs struct {
	cache *VaultCache
	alias string
	table string
	wp    weak.Pointer[domain.VaultDescriptor]
}

// GetVault returns the descriptor for name (an alias or a table name),
// upgrading a live weak reference if one is cached, otherwise loading the
// row from storage and registering a fresh entry with a cleanup hook that
// only evicts the slot if it still refers to this same descriptor —
// guarding against a race with a concurrent refill, exactly like the
// original's owner_before double-check.
func (c *VaultCache) GetVault(ctx context.Context, name string) (*domain.VaultDescriptor, error) {
	if strong := c.upgrade(name); strong != nil {
		return strong, nil
	}

	desc, err := c.loader(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if wp, ok := c.byName[name]; ok {
		if strong := wp.Value(); strong != nil {
			c.mu.Unlock()
			return strong, nil
		}
	}
	wp := weak.Make(desc)
	c.byName[desc.Alias] = wp
	c.byName[desc.Table] = wp
	c.mu.Unlock()

	// AddCleanup's second argument must not strongly reference desc, or
	// desc would never become unreachable and the cleanup would never run.
	args := cleanupArgs{cache: c, alias: desc.Alias, table: desc.Table, wp: wp}
	runtime.AddCleanup(desc, func(a cleanupArgs) { a.cache.evict(a) }, args)

	return desc, nil
}

func (c *VaultCache) upgrade(name string) *domain.VaultDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	wp, ok := c.byName[name]
	if !ok {
		return nil
	}
	return wp.Value()
}

func (c *VaultCache) evict(args cleanupArgs) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.byName[args.alias]; ok && existing == args.wp {
		delete(c.byName, args.alias)
	}
	if existing, ok := c.byName[args.table]; ok && existing == args.wp {
		delete(c.byName, args.table)
	}
}
