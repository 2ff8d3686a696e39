package pipeline

import "sync"

// streamBuffer is sized so a full run (a handful of stage updates plus one
// progress event per session) never blocks the orchestrator on a slow
// subscriber.
const streamBuffer = 128

// stream is a per-run event hub. At most one subscriber is attached at a
// time; a new subscription replaces the old one, and events published while
// nobody is attached are dropped.
type stream struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func newStream() *stream {
	return &stream{}
}

// publish delivers ev to the current subscriber, if any.
func (s *stream) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.ch == nil {
		return
	}
	select {
	case s.ch <- ev:
	default:
		// Subscriber stopped draining; drop rather than stall the run.
	}
}

// subscribe attaches a new subscriber, detaching and closing any previous
// one. The returned cancel func is idempotent.
func (s *stream) subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch != nil {
		close(s.ch)
	}

	ch := make(chan Event, streamBuffer)
	if s.closed {
		// Terminal runs hand back an already-closed channel.
		close(ch)
		return ch, func() {}
	}
	s.ch = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ch == ch {
			s.ch = nil
			close(ch)
		}
	}
	return ch, cancel
}

// close ends the stream after a terminal event. Subsequent publishes are
// no-ops and subsequent subscribes observe an immediately closed channel.
func (s *stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.ch != nil {
		close(s.ch)
		s.ch = nil
	}
}
