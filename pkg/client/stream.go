package client

import (
	"time"

	"github.com/SriramKomma/collaborative-canvas/internal/canvas"
)

// DefaultStreamInterval bounds the stream event rate to roughly 30 Hz
// regardless of pointer sampling rate.
const DefaultStreamInterval = 32 * time.Millisecond

// SendFunc delivers one coalesced point batch, typically by emitting a
// draw-stream event.
type SendFunc func(points []canvas.Point)

// Batcher coalesces in-progress stroke points between flushes. Shape
// tools keep only the latest endpoint (the start point travels in
// draw-start and the full pair in the commit); free-form tools
// accumulate every point since the last flush so path fidelity is
// preserved. Not safe for concurrent use; drive it from the input
// loop.
type Batcher struct {
	kind     canvas.Kind
	interval time.Duration
	send     SendFunc

	now       func() time.Time
	pending   []canvas.Point
	lastFlush time.Time
}

func NewBatcher(kind canvas.Kind, interval time.Duration, send SendFunc) *Batcher {
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	return &Batcher{
		kind:     kind,
		interval: interval,
		send:     send,
		now:      time.Now,
	}
}

// Add records one sampled point and flushes if the throttle interval
// has elapsed. The first point after a flush (or after construction)
// flushes immediately.
func (b *Batcher) Add(p canvas.Point) {
	if b.kind.TwoPoint() {
		// Only the latest endpoint matters.
		b.pending = []canvas.Point{p}
	} else {
		b.pending = append(b.pending, p)
	}

	now := b.now()
	if now.Sub(b.lastFlush) >= b.interval {
		b.lastFlush = now
		b.flush()
	}
}

// Finish forces out any batched tail segment on pointer release. Shape
// tools skip this: their endpoint is carried by the commit itself.
func (b *Batcher) Finish() {
	if b.kind.TwoPoint() {
		b.pending = nil
	} else {
		b.flush()
	}
	b.lastFlush = time.Time{}
}

func (b *Batcher) flush() {
	if len(b.pending) == 0 {
		return
	}
	batch := b.pending
	b.pending = nil
	b.send(batch)
}
