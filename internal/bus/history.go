package bus

import "github.com/tradepulse/msgbus/internal/schema"

// ring is a fixed-capacity FIFO buffer of history records. Once full, each
// append overwrites the oldest entry, so append stays O(1) regardless of
// how many messages have ever been published.
type ring struct {
	buf   []schema.Record
	start int // index of the oldest entry
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]schema.Record, capacity)}
}

func (r *ring) append(rec schema.Record) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = rec
		r.count++
		return
	}
	// Full: overwrite the oldest slot and advance the window.
	r.buf[r.start] = rec
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) len() int { return r.count }

// last returns the newest n entries in arrival order. n larger than the
// current length returns everything retained.
func (r *ring) last(n int) []schema.Record {
	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return []schema.Record{}
	}
	out := make([]schema.Record, n)
	first := r.start + r.count - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(first+i)%len(r.buf)]
	}
	return out
}
