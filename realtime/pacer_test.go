package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioPacer_DeliversInOrderAtRate(t *testing.T) {
	p := NewAudioPacer()

	delivered := make(chan []byte, 4)
	start := time.Now()
	p.Start(context.Background(), func(_ context.Context, chunk []byte) error {
		delivered <- chunk
		return nil
	})
	t.Cleanup(p.Stop)

	// 400 bytes of pcmu is 50ms of playback
	chunks := [][]byte{
		append(make([]byte, 399), 1),
		append(make([]byte, 399), 2),
		append(make([]byte, 399), 3),
	}
	for _, chunk := range chunks {
		p.Push(chunk)
	}

	for i, want := range chunks {
		select {
		case got := <-delivered:
			assert.Equal(t, want[len(want)-1], got[len(got)-1], "chunk %d out of order", i)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for paced chunk")
		}
	}

	// the third chunk is due 100ms after start, so draining all three can not
	// have finished much before that
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond, "pacer released audio faster than playback rate")
}

func TestAudioPacer_PushBeforeStartDrops(t *testing.T) {
	p := NewAudioPacer()
	p.Push([]byte{1, 2, 3})

	delivered := make(chan []byte, 1)
	p.Start(context.Background(), func(_ context.Context, chunk []byte) error {
		delivered <- chunk
		return nil
	})
	t.Cleanup(p.Stop)

	select {
	case <-delivered:
		t.Fatal("chunk pushed before Start should have been dropped")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAudioPacer_ClearDropsBuffered(t *testing.T) {
	p := NewAudioPacer()

	delivered := make(chan []byte, 4)
	release := make(chan struct{})
	p.Start(context.Background(), func(_ context.Context, chunk []byte) error {
		delivered <- chunk
		if chunk[0] == 'a' {
			<-release
		}
		return nil
	})
	t.Cleanup(p.Stop)

	// the handler blocks on the first chunk, so b and c are still buffered
	// when Clear runs
	p.Push([]byte("a"))
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first chunk")
	}
	p.Push([]byte("b"))
	p.Push([]byte("c"))

	p.Clear()
	close(release)

	p.Push([]byte("d"))
	select {
	case got := <-delivered:
		assert.Equal(t, []byte("d"), got, "buffered chunks should have been dropped by Clear")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for post-clear chunk")
	}
}

func TestAudioPacer_StopIsIdempotent(t *testing.T) {
	p := NewAudioPacer()
	p.Start(context.Background(), func(_ context.Context, _ []byte) error { return nil })

	p.Stop()
	p.Stop()

	// pushes after Stop are dropped rather than queued
	p.Push([]byte{1})
	require.NotPanics(t, p.Stop)
}

func TestAudioPacer_HandlerErrorKeepsPacing(t *testing.T) {
	p := NewAudioPacer()

	delivered := make(chan []byte, 2)
	p.Start(context.Background(), func(_ context.Context, chunk []byte) error {
		delivered <- chunk
		if chunk[0] == 'a' {
			return assert.AnError
		}
		return nil
	})
	t.Cleanup(p.Stop)

	p.Push([]byte("a"))
	p.Push([]byte("b"))

	for _, want := range []byte{'a', 'b'} {
		select {
		case got := <-delivered:
			assert.Equal(t, want, got[0])
		case <-time.After(2 * time.Second):
			t.Fatal("pacer stopped delivering after handler error")
		}
	}
}
