// Package observe provides a replay-last observable value.
//
// A Value has a single writer (the store that owns it) and any number of
// readers. A new subscriber receives the current value immediately, then the
// latest value after each Set. A slow reader only ever misses intermediate
// values, never the most recent one.
package observe

import "sync"

// Value holds a T and pushes changes to subscribers.
type Value[T any] struct {
	mu     sync.Mutex
	cur    T
	copyFn func(T) T
	subs   map[int]chan T
	nextID int
	closed bool
}

// New creates a Value holding initial. copyFn, if non-nil, is applied to
// every value handed out so readers cannot alias the owner's state.
func New[T any](initial T, copyFn func(T) T) *Value[T] {
	return &Value[T]{
		cur:    initial,
		copyFn: copyFn,
		subs:   make(map[int]chan T),
	}
}

func (v *Value[T]) copy(x T) T {
	if v.copyFn == nil {
		return x
	}
	return v.copyFn(x)
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.copy(v.cur)
}

// Set replaces the current value and notifies subscribers.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.cur = x
	for _, ch := range v.subs {
		v.offer(ch, v.copy(x))
	}
}

// offer replaces any undelivered value in ch with x. Must hold mu; only Set
// and Subscribe send, so after the drain the buffer has room.
func (v *Value[T]) offer(ch chan T, x T) {
	select {
	case <-ch:
	default:
	}
	ch <- x
}

// Subscribe returns a channel that yields the current value at once and the
// latest value after every change. cancel stops delivery and closes the
// channel; it is safe to call more than once.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan T, 1)
	if v.closed {
		close(ch)
		return ch, func() {}
	}

	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	v.offer(ch, v.copy(v.cur))

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if c, ok := v.subs[id]; ok {
				delete(v.subs, id)
				close(c)
			}
		})
	}
}

// Close ends every subscription. Later Sets are ignored.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for id, ch := range v.subs {
		delete(v.subs, id)
		close(ch)
	}
}
