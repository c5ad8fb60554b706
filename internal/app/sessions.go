package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"landing-service/internal/metrics"
)

type sessionEntry[T any] struct {
	value    T
	lastSeen time.Time
}

// Registry keeps live sessions by ID and disposes of them once they have been
// idle longer than the TTL.
type Registry[T any] struct {
	mu      sync.Mutex
	items   map[string]*sessionEntry[T]
	ttl     time.Duration
	kind    string
	dispose func(T)
	now     func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewRegistry[T any](kind string, ttl time.Duration, dispose func(T)) *Registry[T] {
	return &Registry[T]{
		items:   make(map[string]*sessionEntry[T]),
		ttl:     ttl,
		kind:    kind,
		dispose: dispose,
		now:     time.Now,
	}
}

func (r *Registry[T]) Add(v T) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.items[id] = &sessionEntry[T]{value: v, lastSeen: r.now()}
	n := len(r.items)
	r.mu.Unlock()
	metrics.ActiveSessions.WithLabelValues(r.kind).Set(float64(n))
	return id
}

// Get returns the session and marks it as used.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	e.lastSeen = r.now()
	return e.value, true
}

func (r *Registry[T]) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.items[id]
	delete(r.items, id)
	n := len(r.items)
	r.mu.Unlock()
	if !ok {
		return false
	}
	metrics.ActiveSessions.WithLabelValues(r.kind).Set(float64(n))
	r.dispose(e.value)
	return true
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep disposes of every session idle for longer than the TTL.
func (r *Registry[T]) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	var expired []T

	r.mu.Lock()
	for id, e := range r.items {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.value)
			delete(r.items, id)
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	metrics.ActiveSessions.WithLabelValues(r.kind).Set(float64(n))
	for _, v := range expired {
		r.dispose(v)
	}
	return len(expired)
}

// StartJanitor sweeps every interval until Close.
func (r *Registry[T]) StartJanitor(interval time.Duration) {
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.stop:
				return
			}
		}
	}()
}

// Close stops the janitor and disposes of every remaining session.
func (r *Registry[T]) Close() {
	r.stopOnce.Do(func() {
		if r.stop != nil {
			close(r.stop)
			<-r.done
		}
	})

	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*sessionEntry[T])
	r.mu.Unlock()

	metrics.ActiveSessions.WithLabelValues(r.kind).Set(0)
	for _, e := range items {
		r.dispose(e.value)
	}
}
