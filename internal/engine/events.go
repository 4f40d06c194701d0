package engine

import (
	"sync"

	"routinetimer/internal/types"
)

const subscriberBuffer = 16

type subscribers struct {
	mu     sync.Mutex
	next   int
	chans  map[int]chan types.ExecutionEvent
	closed bool
}

func newSubscribers() *subscribers {
	return &subscribers{chans: map[int]chan types.ExecutionEvent{}}
}

func (s *subscribers) add(initial types.ExecutionEvent) (<-chan types.ExecutionEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan types.ExecutionEvent, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.next
	s.next++
	s.chans[id] = ch
	ch <- initial
	return ch, func() { s.remove(id) }
}

func (s *subscribers) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.chans[id]; ok {
		delete(s.chans, id)
		close(ch)
	}
}

// publish never blocks. A subscriber that falls behind loses its oldest
// buffered event.
func (s *subscribers) publish(event types.ExecutionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.chans {
		select {
		case ch <- event:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}

func (s *subscribers) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.chans {
		delete(s.chans, id)
		close(ch)
	}
}
