package data

import "sync"

// RequestKind groups requests whose responses supersede each other.
type RequestKind string

const (
	KindMetrics    RequestKind = "metrics"
	KindHistorical RequestKind = "historical"
	KindDetail     RequestKind = "detail"
)

// Sequencer tags outgoing requests with a monotonically increasing number
// per kind. A response is applied only if its tag is still the latest
// issued for that kind; anything older is stale.
type Sequencer struct {
	mu     sync.Mutex
	latest map[RequestKind]uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{latest: make(map[RequestKind]uint64)}
}

// Next issues a new tag for kind, making every earlier tag stale.
func (s *Sequencer) Next(kind RequestKind) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest[kind]++
	return s.latest[kind]
}

// IsLatest reports whether seq is the most recent tag issued for kind.
func (s *Sequencer) IsLatest(kind RequestKind, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq != 0 && s.latest[kind] == seq
}

// Invalidate makes any in-flight request of kind stale without issuing
// a usable tag. Used when the consumer of a response goes away.
func (s *Sequencer) Invalidate(kind RequestKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[kind]++
}

// Latest returns the current tag for kind (for debugging).
func (s *Sequencer) Latest(kind RequestKind) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[kind]
}
