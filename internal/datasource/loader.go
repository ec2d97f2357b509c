package datasource

import (
	"context"
	"sync"
	"time"

	"cvedash/internal/metrics"
	"cvedash/internal/model"
	"cvedash/internal/telemetry"

	"golang.org/x/sync/singleflight"
)

// Snapshot is one installed copy of the collection. Records is never mutated
// after installation.
type Snapshot struct {
	Records    []model.VulnerabilityRecord
	FetchedAt  time.Time
	Generation uint64
}

// Empty reports whether no collection was ever installed.
func (s Snapshot) Empty() bool {
	return s.Generation == 0
}

// Observer is notified each time a newer snapshot is installed. Observers run
// on their own goroutine, one snapshot at a time and in generation order; a
// snapshot superseded before delivery is skipped. They may call Load or Refresh.
type Observer func(Snapshot)

// Loader shares one cached collection between every view. Concurrent loads
// are collapsed into a single fetch.
type Loader struct {
	source  Source
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	snap      Snapshot
	issued    uint64
	observers map[uint64]Observer
	nextID    uint64

	notifyMu sync.Mutex
	notified uint64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMetrics instruments the loader.
func WithMetrics(m *metrics.Metrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

// NewLoader wraps source with a cache valid for ttl. A non-positive ttl
// disables caching.
func NewLoader(source Source, ttl time.Duration, opts ...LoaderOption) *Loader {
	l := &Loader{
		source:    source,
		ttl:       ttl,
		now:       time.Now,
		observers: make(map[uint64]Observer),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the cached snapshot while it is fresh, otherwise fetches.
// On failure the previous snapshot (possibly empty) is returned with the error.
func (l *Loader) Load(ctx context.Context) (Snapshot, error) {
	l.mu.RLock()
	snap := l.snap
	l.mu.RUnlock()

	if !snap.Empty() && l.ttl > 0 && l.now().Sub(snap.FetchedAt) < l.ttl {
		l.metrics.CacheHit()
		return snap, nil
	}
	l.metrics.CacheMiss()
	return l.fetch(ctx, "load")
}

// Refresh fetches regardless of the cache age.
func (l *Loader) Refresh(ctx context.Context) (Snapshot, error) {
	return l.fetch(ctx, "refresh")
}

// Current returns the installed snapshot without fetching.
func (l *Loader) Current() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// Subscribe registers fn and returns the function that removes it. Calling the
// returned function more than once is harmless.
func (l *Loader) Subscribe(fn Observer) func() {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.observers[id] = fn
	n := len(l.observers)
	l.mu.Unlock()
	l.metrics.SetObservers(n)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.observers, id)
			n := len(l.observers)
			l.mu.Unlock()
			l.metrics.SetObservers(n)
		})
	}
}

// Subscribers is the number of registered observers.
func (l *Loader) Subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.observers)
}

func (l *Loader) fetch(ctx context.Context, key string) (Snapshot, error) {
	// The shared fetch outlives any single caller's cancellation.
	ch := l.group.DoChan(key, func() (interface{}, error) {
		return l.run(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return l.Current(), ctx.Err()
	case res := <-ch:
		return res.Val.(Snapshot), res.Err
	}
}

func (l *Loader) run(ctx context.Context) (Snapshot, error) {
	l.mu.Lock()
	l.issued++
	gen := l.issued
	l.mu.Unlock()

	start := l.now()
	records, err := l.source.Fetch(ctx)
	elapsed := l.now().Sub(start)

	if err != nil {
		l.metrics.ObserveFetch(metrics.OutcomeError, elapsed)
		telemetry.LogError("Failed to fetch collection", err, "generation", gen)
		return l.Current(), err
	}

	l.mu.Lock()
	if gen <= l.snap.Generation {
		// A fetch started later already installed its result.
		current := l.snap
		l.mu.Unlock()
		l.metrics.ObserveFetch(metrics.OutcomeStale, elapsed)
		telemetry.LogDebug("Discarded superseded fetch", "generation", gen, "installed", current.Generation)
		return current, nil
	}
	snap := Snapshot{Records: records, FetchedAt: l.now(), Generation: gen}
	l.snap = snap
	l.mu.Unlock()

	l.metrics.ObserveFetch(metrics.OutcomeSuccess, elapsed)
	l.metrics.SetRecords(len(records))
	telemetry.LogInfo("Installed collection", "records", len(records), "generation", gen, "duration", elapsed.String())

	// Delivered outside the singleflight call so an observer can load again.
	go l.notify(snap)
	return snap, nil
}

func (l *Loader) notify(snap Snapshot) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()
	if snap.Generation <= l.notified {
		return
	}
	l.notified = snap.Generation

	l.mu.RLock()
	observers := make([]Observer, 0, len(l.observers))
	for _, fn := range l.observers {
		observers = append(observers, fn)
	}
	l.mu.RUnlock()

	for _, fn := range observers {
		fn(snap)
	}
}
