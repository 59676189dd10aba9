// Package signal provides observable values: a current value that readers can
// poll and subscribers are notified of on every change.
package signal

import "sync"

// Value holds a T and fans out updates to subscribers. Each subscription is
// a conflating channel of capacity one: a subscriber that falls behind sees
// only the latest value, never a stale backlog, and Set never blocks.
//
// The zero Value is ready to use and holds the zero T.
type Value[T any] struct {
	mu     sync.Mutex
	v      T
	subs   map[int]chan T
	nextID int
}

// New returns a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{v: initial}
}

func (s *Value[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

// Set stores v and notifies every subscriber.
func (s *Value[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
	for _, ch := range s.subs {
		offer(ch, v)
	}
}

// Update applies fn to the current value atomically and publishes the result.
func (s *Value[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = fn(s.v)
	for _, ch := range s.subs {
		offer(ch, s.v)
	}
	return s.v
}

// Subscribe returns a channel primed with the current value. The channel is
// closed by the returned cancel func, which is safe to call more than once.
func (s *Value[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs == nil {
		s.subs = make(map[int]chan T)
	}
	id := s.nextID
	s.nextID++

	ch := make(chan T, 1)
	ch <- s.v
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (s *Value[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// offer replaces any unread value in ch with v. Callers hold the Value's
// mutex, so no other sender races the drain.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
