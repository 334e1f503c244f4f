// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through hook interfaces with no-op defaults, and the
// binary registers real implementations at startup. This keeps the
// composition engine free of any particular metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetCompositionHooks(&myHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Composition().OnStageStart(ctx, "bind_text")
//	// ... do work ...
//	observability.Composition().OnStageComplete(ctx, "bind_text", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Composition Hooks
// =============================================================================

// CompositionHooks receives events from a composition run.
type CompositionHooks interface {
	// Stage events
	OnStageStart(ctx context.Context, stage string)
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)

	// OnPlacement records the outcome of placing one photograph.
	// label is empty for geometric placements.
	OnPlacement(ctx context.Context, strategy, label string, placed bool)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCompositionHooks is a no-op implementation of CompositionHooks.
type NoopCompositionHooks struct{}

func (NoopCompositionHooks) OnStageStart(context.Context, string)                          {}
func (NoopCompositionHooks) OnStageComplete(context.Context, string, time.Duration, error) {}
func (NoopCompositionHooks) OnPlacement(context.Context, string, string, bool)             {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	compositionHooks CompositionHooks = NoopCompositionHooks{}
	cacheHooks       CacheHooks       = NoopCacheHooks{}
	hooksMu          sync.RWMutex
)

// SetCompositionHooks registers custom composition hooks.
// This should be called once at application startup before any run starts.
func SetCompositionHooks(h CompositionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		compositionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Composition returns the registered composition hooks.
func Composition() CompositionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return compositionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	compositionHooks = NoopCompositionHooks{}
	cacheHooks = NoopCacheHooks{}
}
