package subscriber

import "sync"

// resetThreshold splits forward gaps from backward moves. A distance of 2^31
// or more from the expected number means the sequence went backwards: the
// publisher restarted, or a frame was duplicated or reordered.
const resetThreshold = 1 << 31

// GapTracker follows the sequence number of every topic it sees.
type GapTracker struct {
	mu     sync.Mutex
	next   map[string]uint32
	missed map[string]uint64
	resets map[string]uint64
}

// NewGapTracker creates an empty tracker.
func NewGapTracker() *GapTracker {
	return &GapTracker{
		next:   make(map[string]uint32),
		missed: make(map[string]uint64),
		resets: make(map[string]uint64),
	}
}

// Observe records msg and returns how many messages were skipped on its
// topic since the previous one. The first message of a topic never counts
// as a gap. Sequence numbers wrap at 2^32. A sequence number behind the
// expected one reports reset, adds nothing to the missed count and resyncs
// the topic on msg.
func (g *GapTracker) Observe(msg Message) (gap uint32, reset bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	expected, seen := g.next[msg.Topic]
	g.next[msg.Topic] = msg.Sequence + 1
	if !seen {
		g.missed[msg.Topic] = 0
		return 0, false
	}

	distance := msg.Sequence - expected
	if distance >= resetThreshold {
		g.resets[msg.Topic]++
		return 0, true
	}
	g.missed[msg.Topic] += uint64(distance)
	return distance, false
}

// Missed returns the total skipped messages for every observed topic.
func (g *GapTracker) Missed() map[string]uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyCounts(g.missed)
}

// Resets returns how often each topic's sequence went backwards.
func (g *GapTracker) Resets() map[string]uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyCounts(g.resets)
}

func copyCounts(m map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
