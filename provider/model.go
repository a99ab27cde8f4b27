package provider

import (
	"context"

	"github.com/agenthost/ah-openai/messages"
	"github.com/google/uuid"
)

// Provider is implemented by chat-completion backends. Implementations issue
// exactly one upstream call per invocation and relay its output without
// retries or local recovery.
type Provider interface {
	ChatCompletion(context.Context, CompletionParams) (<-chan StreamEvent, error)
}

// DefaultMaxTokens caps the completion length when the host leaves MaxTokens
// unset. Temperature has no substitute default; a zero value passes through.
const DefaultMaxTokens = 5000

// CompletionParams encapsulates all parameters needed for a chat completion
// request. Everything here is supplied by the host and passed through.
type CompletionParams struct {
	// RunID uniquely identifies this completion request for tracking and debugging
	RunID uuid.UUID

	// Model is the requested model name. It may be overridden by the
	// AH_OVERRIDE_LLM_MODEL environment variable.
	Model string

	// Messages contains the ordered conversation history
	Messages []messages.Message

	// Temperature for sampling; zero means the default
	Temperature float64

	// MaxTokens caps the completion length; zero means the default
	MaxTokens int64

	// Prevents unkeyed literals
	_ struct{}
}
