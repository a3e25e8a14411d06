// Package observe provides a small observable value for state shared between
// the controller and its views.
package observe

import (
	"slices"
	"sync"
)

// Property holds a value and notifies subscribers when it changes.
// Callbacks run synchronously on the goroutine that called Set, after the
// lock has been released.
type Property[T comparable] struct {
	mu       sync.Mutex
	value    T
	def      T
	blocked  bool
	nextID   int
	handlers []handler[T]
}

type handler[T comparable] struct {
	id int
	fn func(T)
}

// New returns a property whose value and default are both v.
func New[T comparable](v T) *Property[T] {
	return &Property[T]{value: v, def: v}
}

// Get returns the current value.
func (p *Property[T]) Get() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Set stores v and notifies subscribers if it differs from the current value.
// It reports whether the value changed.
func (p *Property[T]) Set(v T) bool {
	p.mu.Lock()
	if v == p.value {
		p.mu.Unlock()
		return false
	}
	p.value = v
	fns := p.pendingLocked()
	p.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
	return true
}

// SetDefault changes the value Reset restores. The current value is kept.
func (p *Property[T]) SetDefault(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.def = v
}

// Default returns the value Reset restores.
func (p *Property[T]) Default() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.def
}

// Reset sets the value back to the default.
func (p *Property[T]) Reset() bool {
	return p.Set(p.Default())
}

// Subscribe registers fn and returns an id for Unsubscribe.
func (p *Property[T]) Subscribe(fn func(T)) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.handlers = append(p.handlers, handler[T]{id: p.nextID, fn: fn})
	return p.nextID
}

// Unsubscribe removes a subscriber.
func (p *Property[T]) Unsubscribe(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = slices.DeleteFunc(p.handlers, func(h handler[T]) bool { return h.id == id })
}

// BlockSignals suppresses notifications while blocked is true. Changes made
// while blocked are not replayed.
func (p *Property[T]) BlockSignals(blocked bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocked = blocked
}

func (p *Property[T]) pendingLocked() []func(T) {
	if p.blocked {
		return nil
	}
	fns := make([]func(T), len(p.handlers))
	for i, h := range p.handlers {
		fns[i] = h.fn
	}
	return fns
}
