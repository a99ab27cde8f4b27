package realtime

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Pre-encoded JSON frame for audio appends. Audio sends are the hot path, so
// the envelope is not marshaled per chunk.
var (
	audioAppendPrefix = []byte(`{"type":"input_audio_buffer.append","audio":"`)
	audioAppendSuffix = []byte(`"}`)
)

// SendAudio appends a chunk of caller audio (pcmu) to the session's input
// buffer. Send latency is recorded on the session's tracker.
func (s *Session) SendAudio(ctx context.Context, audio []byte) error {
	start := time.Now()

	encodedLen := base64.StdEncoding.EncodedLen(len(audio))
	frame := make([]byte, 0, len(audioAppendPrefix)+encodedLen+len(audioAppendSuffix))
	frame = append(frame, audioAppendPrefix...)
	frame = frame[:len(audioAppendPrefix)+encodedLen]
	base64.StdEncoding.Encode(frame[len(audioAppendPrefix):], audio)
	frame = append(frame, audioAppendSuffix...)

	if err := s.writeText(frame); err != nil {
		return fmt.Errorf("failed to send audio chunk: %w", err)
	}

	s.latency.Record(time.Since(start), len(audio))
	return nil
}

// FloatTo16BitPCM converts float32 audio samples to little-endian 16-bit PCM,
// clipping to [-1, 1].
func FloatTo16BitPCM(samples []float32) []byte {
	pcm := make([]byte, 2*len(samples))
	for i, sample := range samples {
		clipped := math.Max(-1, math.Min(1, float64(sample)))
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(clipped*32767)))
	}
	return pcm
}

// EncodeAudio converts float32 audio samples to base64-encoded 16-bit PCM.
func EncodeAudio(samples []float32) string {
	return base64.StdEncoding.EncodeToString(FloatTo16BitPCM(samples))
}
