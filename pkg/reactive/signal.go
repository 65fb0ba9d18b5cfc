// Package reactive provides observable values. The graph viewer publishes
// frames and selections through them; hosts subscribe to repaint or push.
package reactive

import "sync"

// Signal is the read/subscribe side of a reactive value.
type Signal[T any] interface {
	Get() T
	Subscribe(fn func(T)) (unsubscribe func())
}

// State is a reactive value. Subscribers are called synchronously on the
// goroutine that calls Set, outside of the state's locks.
type State[T any] struct {
	mu    sync.RWMutex
	value T

	subsMu sync.RWMutex
	subs   map[uint64]func(T)
	nextID uint64
}

// NewState creates a state holding initial.
func NewState[T any](initial T) *State[T] {
	return &State[T]{
		value: initial,
		subs:  make(map[uint64]func(T)),
	}
}

// Get returns the current value.
func (s *State[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores value and notifies subscribers.
func (s *State[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()
	s.deliver()
}

// Update atomically reads, modifies and writes the value.
func (s *State[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	s.mu.Unlock()
	s.deliver()
}

// UpdateIf is Update for conditional writes: fn runs under the state's lock
// and subscribers are notified only when it reports a change. Calls are
// serialized, so fn may also guard data of its own.
func (s *State[T]) UpdateIf(fn func(T) (T, bool)) bool {
	s.mu.Lock()
	next, changed := fn(s.value)
	if changed {
		s.value = next
	}
	s.mu.Unlock()
	if changed {
		s.deliver()
	}
	return changed
}

// Subscribe registers fn and returns a function that removes it.
func (s *State[T]) Subscribe(fn func(T)) func() {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (s *State[T]) Subscribers() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.subs)
}

// deliver calls every subscriber with the current value.
func (s *State[T]) deliver() {
	value := s.Get()
	s.subsMu.RLock()
	fns := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.RUnlock()
	for _, fn := range fns {
		fn(value)
	}
}
