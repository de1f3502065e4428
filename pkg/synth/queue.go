package synth

import (
	"sync"
	"sync/atomic"

	"github.com/evilstudio/evilstudio/pkg/note"
)

// DefaultQueueSize is the per-slot event capacity of a generator.
const DefaultQueueSize = 256

// noteQueue hands note events from producers to the audio thread through
// two alternating slots. Producers append to the slot selected by index
// while holding mu; the consumer flips index under mu once per cycle and
// then drains the other slot without locking. Slots never grow: a full slot
// drops the event.
type noteQueue struct {
	mu    sync.Mutex
	index atomic.Uint32
	on    [2][]note.Note
	off   [2][]note.Note

	dropped atomic.Uint64
}

func newNoteQueue(size int) *noteQueue {
	if size <= 0 {
		panic("note queue size must be positive")
	}
	q := &noteQueue{}
	for i := range q.on {
		q.on[i] = make([]note.Note, 0, size)
		q.off[i] = make([]note.Note, 0, size)
	}
	return q
}

func (q *noteQueue) pushOn(n note.Note) {
	q.mu.Lock()
	i := q.index.Load()
	q.on[i] = q.push(q.on[i], n)
	q.mu.Unlock()
}

func (q *noteQueue) pushOff(n note.Note) {
	q.mu.Lock()
	i := q.index.Load()
	q.off[i] = q.push(q.off[i], n)
	q.mu.Unlock()
}

func (q *noteQueue) push(slot []note.Note, n note.Note) []note.Note {
	if len(slot) == cap(slot) {
		q.dropped.Add(1)
		return slot
	}
	return append(slot, n)
}

// swap makes the current write slot readable and returns its index.
func (q *noteQueue) swap() uint32 {
	q.mu.Lock()
	r := q.index.Load()
	q.index.Store(r ^ 1)
	q.mu.Unlock()
	return r
}

// clear empties a drained slot. Only the consumer calls it.
func (q *noteQueue) clear(r uint32) {
	q.on[r] = q.on[r][:0]
	q.off[r] = q.off[r][:0]
}

// pending reports the number of events waiting in the write slot.
func (q *noteQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.index.Load()
	return len(q.on[i]) + len(q.off[i])
}
