package capability

import (
	"sync"
	"time"

	"github.com/pitabwire/msaada/model"
)

type cacheEntry struct {
	caps    model.CapabilitySet
	expires time.Time
}

// Resolver implements model.CapabilityResolver with an in-memory TTL cache
// in front of the evaluator. The cache is invalidated by the change
// notification worker when a user's role row changes.
type Resolver struct {
	evaluator *Evaluator
	ttl       time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry

	// Optional instrumentation hooks, nil-safe.
	onHit  func()
	onMiss func()
}

// NewResolver creates a Resolver with the given evaluator and cache TTL.
func NewResolver(evaluator *Evaluator, ttl time.Duration) *Resolver {
	return &Resolver{
		evaluator: evaluator,
		ttl:       ttl,
		cache:     make(map[string]cacheEntry),
	}
}

// WithCacheObserver registers hit/miss callbacks for metrics recording.
func (r *Resolver) WithCacheObserver(onHit, onMiss func()) *Resolver {
	r.onHit = onHit
	r.onMiss = onMiss
	return r
}

// Resolve returns the capability set for the acting subject. Results are
// cached per subject for the configured TTL.
func (r *Resolver) Resolve(rctx *model.RequestContext) (model.CapabilitySet, error) {
	key := rctx.SubjectID

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && time.Now().Before(entry.expires) {
		r.mu.RUnlock()
		if r.onHit != nil {
			r.onHit()
		}
		return entry.caps, nil
	}
	r.mu.RUnlock()

	if r.onMiss != nil {
		r.onMiss()
	}

	caps := r.evaluator.For(string(rctx.Role))

	r.mu.Lock()
	r.cache[key] = cacheEntry{caps: caps, expires: time.Now().Add(r.ttl)}
	r.mu.Unlock()

	return caps, nil
}

// Invalidate clears cached capabilities for the given subject.
func (r *Resolver) Invalidate(subjectID string) {
	r.mu.Lock()
	delete(r.cache, subjectID)
	r.mu.Unlock()
}

// InvalidateAll drops the whole cache. Used when the role catalog itself is
// reloaded.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[string]cacheEntry)
	r.mu.Unlock()
}
