package realtime

import (
	"context"
	"sync"
	"time"
)

// pcmu plays back at 8000 bytes per second
const pcmuByteRate = 8000

// idleSleep is how long the pace loop waits when the buffer runs dry.
const idleSleep = 5 * time.Millisecond

// AudioPacer buffers model audio and releases it at real-time playback speed.
// It is designed to be reused across response turns: Clear empties the buffer
// and resets the pacing clock on interruption without restarting the loop.
//
// Pacing uses an absolute schedule derived from total bytes released, so
// sleep jitter never accumulates into drift.
type AudioPacer struct {
	mu        sync.Mutex
	buffer    [][]byte
	running   bool
	startTime time.Time
	bytesSent int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewAudioPacer returns a pacer ready to Start.
func NewAudioPacer() *AudioPacer {
	return &AudioPacer{}
}

// Start launches the pace loop, delivering buffered chunks to fn at
// real-time rate. It is a no-op if the pacer is already running.
func (p *AudioPacer) Start(ctx context.Context, fn AudioHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.startTime = time.Now()
	p.bytesSent = 0
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.paceLoop(ctx, fn, p.done)
}

// Push adds an audio chunk to the buffer. Chunks pushed while the pacer is
// stopped are dropped.
func (p *AudioPacer) Push(chunk []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.buffer = append(p.buffer, chunk)
}

// Clear drops all buffered audio and resets the pacing clock. Call it when
// the user interrupts a response: the pacer is immediately ready for the new
// response without a stop/start cycle.
func (p *AudioPacer) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = nil
	p.bytesSent = 0
	// reset the clock to now so the loop does not try to catch up to the past
	p.startTime = time.Now()
}

// Stop cancels the pace loop and drops buffered audio.
func (p *AudioPacer) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.buffer = nil
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *AudioPacer) paceLoop(ctx context.Context, fn AudioHandler, done chan<- struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}

		chunk, target, ok := p.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(idleSleep):
			}
			continue
		}

		if err := fn(ctx, chunk); err != nil {
			// the handler owns its failures; keep pacing
			continue
		}

		// sleep only when ahead of schedule, otherwise catch up
		if wait := time.Until(target); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

// next pops the oldest chunk and computes the absolute time at which the
// chunk after it is due.
func (p *AudioPacer) next() ([]byte, time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buffer) == 0 {
		return nil, time.Time{}, false
	}

	chunk := p.buffer[0]
	p.buffer = p.buffer[1:]
	p.bytesSent += len(chunk)

	target := p.startTime.Add(time.Duration(p.bytesSent) * time.Second / pcmuByteRate)
	return chunk, target, true
}
