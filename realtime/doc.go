/*
Package realtime drives speech-to-speech sessions against OpenAI's Realtime
API over WebSocket.

A session is created with Start and identified by the host's log ID; live
sessions are held in a process-wide registry so the host's send/close services
can address them by that ID. Incoming server events are dispatched to the
callbacks configured on the session: audio deltas, function calls (commands),
transcripts, and interruptions.

The transport is tuned for latency: TCP_NODELAY is enabled and the socket
buffers are kept small (4 KiB by default). Outbound audio uses a pre-encoded
JSON frame around the base64 payload to avoid marshaling on the hot path, and
a LatencyTracker keeps rolling send statistics.

AudioPacer is a helper for consumers that need server audio released at
real-time playback speed rather than as fast as the network delivers it.
*/
package realtime
