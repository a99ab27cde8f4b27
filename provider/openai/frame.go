package openai

import (
	"github.com/agenthost/ah-openai/pkg/stdx"
	"github.com/agenthost/ah-openai/provider"
	json "github.com/goccy/go-json"
)

// CutMarker separates the reasoning frame from the answer content in the
// host's raw text protocol.
const CutMarker = "<<CUT_HERE>>"

const (
	reasoningOpen  = `[{"reasoning": "`
	reasoningClose = `"}] ` + CutMarker
)

// Frames re-encodes a completion event stream into the host's raw text
// protocol. The output opens a reasoning frame immediately, appends each
// reasoning delta as an escaped JSON string fragment, closes the frame with
// the cut marker once answer content starts, and then passes content deltas
// through verbatim.
//
// The returned channel closes when the event stream ends. An Error event ends
// the output without further framing; the host treats the truncated stream as
// a failed call.
func Frames(events <-chan provider.StreamEvent) <-chan string {
	out := make(chan string, 1)
	go func() {
		defer close(out)

		out <- reasoningOpen
		var doneReasoning bool
		for event := range events {
			switch ev := event.(type) {
			case provider.Chunk:
				if ev.Reasoning != "" {
					out <- escapeJSONString(ev.Reasoning)
					continue
				}
				if ev.Content == "" {
					continue
				}
				if !doneReasoning {
					doneReasoning = true
					out <- reasoningClose
				}
				out <- ev.Content
			case provider.Error:
				return
			}
		}
	}()
	return out
}

// escapeJSONString escapes s like a JSON string body, without the surrounding
// quotes: the fragments are appended to an already-open string literal.
func escapeJSONString(s string) string {
	b := stdx.Must1(json.Marshal(s))
	return string(b[1 : len(b)-1])
}
