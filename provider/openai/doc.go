/*
Package openai implements the provider.Provider interface on top of OpenAI's
chat completions API. It issues exactly one streaming call per request and
relays each delta to the caller as it arrives, in upstream order.

# Model selection

The model the host asked for can be overridden globally with the
AH_OVERRIDE_LLM_MODEL environment variable. When neither is set the adapter
falls back to o1-mini.

Reasoning models get their requests reshaped the way the API requires:

  - o1-mini does not accept a system role, so the leading system message is
    sent with the user role
  - other o1 models take the developer role instead
  - both force temperature 1 and a 20000 max completion token limit

# Reasoning output

Models that emit reasoning deltas (the reasoning_content field) produce
provider.Chunk events with Reasoning set, interleaved before the answer
content. Frames re-encodes the event stream into the host's raw text protocol,
which frames reasoning as a JSON fragment terminated by a cut marker.
*/
package openai
