// Package observable holds versioned values with a single writer and any
// number of readers.
package observable

import (
	"sync"
)

// View is the read side of a Value.
type View[T any] interface {
	// Get returns the current value.
	Get() T
	// Snapshot returns the current value together with its version.
	Snapshot() (T, uint64)
	// Subscribe calls fn after every change. fn runs on the writer's
	// goroutine, possibly with the owner's locks held, so it must not block
	// or call back into the owner.
	Subscribe(fn func(v T, version uint64)) *Subscription
}

// Value is owned by exactly one component which is the only caller of Set.
type Value[T any] struct {
	mu      sync.RWMutex
	v       T
	version uint64

	// notifyMu keeps deliveries in version order.
	notifyMu sync.Mutex
	subsMu   sync.Mutex
	subs     map[uint64]func(T, uint64)
	nextID   uint64
}

var _ View[int] = (*Value[int])(nil)

func New[T any](initial T) *Value[T] {
	return &Value[T]{
		v:    initial,
		subs: make(map[uint64]func(T, uint64)),
	}
}

func (o *Value[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.v
}

func (o *Value[T]) Snapshot() (T, uint64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.v, o.version
}

// Set replaces the value, bumps the version and notifies subscribers.
func (o *Value[T]) Set(v T) uint64 {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	o.v = v
	o.version++
	version := o.version
	o.mu.Unlock()

	for _, fn := range o.subscribers() {
		fn(v, version)
	}
	return version
}

// Update applies fn to the current value under the write lock.
func (o *Value[T]) Update(fn func(T) T) uint64 {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	o.v = fn(o.v)
	o.version++
	v, version := o.v, o.version
	o.mu.Unlock()

	for _, fn := range o.subscribers() {
		fn(v, version)
	}
	return version
}

func (o *Value[T]) Subscribe(fn func(v T, version uint64)) *Subscription {
	o.subsMu.Lock()
	defer o.subsMu.Unlock()

	id := o.nextID
	o.nextID++
	o.subs[id] = fn

	return NewSubscription(func() {
		o.subsMu.Lock()
		defer o.subsMu.Unlock()
		delete(o.subs, id)
	})
}

func (o *Value[T]) subscribers() []func(T, uint64) {
	o.subsMu.Lock()
	defer o.subsMu.Unlock()

	out := make([]func(T, uint64), 0, len(o.subs))
	for _, fn := range o.subs {
		out = append(out, fn)
	}
	return out
}
