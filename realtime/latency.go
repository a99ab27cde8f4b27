package realtime

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultSampleSize is how many latency samples are batched per log line.
const DefaultSampleSize = 100

// LatencyTracker keeps rolling send-latency statistics for a session. Every
// sampleSize samples it logs the batch average and resets the window; totals
// run for the life of the tracker.
type LatencyTracker struct {
	mu         sync.Mutex
	samples    []float64
	sampleSize int
	chunkCount int
	totalBytes int
}

// LatencyStats is a point-in-time snapshot of tracker totals.
type LatencyStats struct {
	ChunkCount int
	TotalBytes int
	AvgBytes   float64
}

// NewLatencyTracker returns a tracker that logs every sampleSize samples.
// A sampleSize of zero or less uses DefaultSampleSize.
func NewLatencyTracker(sampleSize int) *LatencyTracker {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &LatencyTracker{sampleSize: sampleSize}
}

// Record adds a latency sample for a sent chunk of byteCount bytes.
func (lt *LatencyTracker) Record(latency time.Duration, byteCount int) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	lt.samples = append(lt.samples, float64(latency.Microseconds())/1000)
	lt.chunkCount++
	lt.totalBytes += byteCount

	if len(lt.samples) < lt.sampleSize {
		return
	}

	var sum float64
	for _, sample := range lt.samples {
		sum += sample
	}
	slog.Info("realtime send performance",
		slog.Int("chunks_sent", lt.chunkCount),
		slog.Float64("avg_latency_ms", sum/float64(len(lt.samples))),
		slog.Float64("avg_chunk_bytes", float64(lt.totalBytes)/float64(lt.chunkCount)),
	)
	lt.samples = lt.samples[:0]
}

// Stats returns the current totals.
func (lt *LatencyTracker) Stats() LatencyStats {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	stats := LatencyStats{
		ChunkCount: lt.chunkCount,
		TotalBytes: lt.totalBytes,
	}
	if lt.chunkCount > 0 {
		stats.AvgBytes = float64(lt.totalBytes) / float64(lt.chunkCount)
	}
	return stats
}
