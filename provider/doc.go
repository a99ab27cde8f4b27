// Package provider defines the host-facing contract of the plugin: a
// completion request goes in, a stream of events comes out.
//
// ChatCompletion returns a receive-only channel of StreamEvent values. The
// channel is lazy, finite, and non-restartable: events arrive in upstream
// order, the channel closes at end-of-stream, and a failed call produces an
// Error event followed by channel close. A failure before the first chunk
// yields zero Chunk events; a mid-stream failure yields every chunk received
// up to that point, then the Error.
package provider
