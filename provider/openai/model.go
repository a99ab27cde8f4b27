package openai

import (
	"os"
	"strings"

	"github.com/openai/openai-go"
)

// EnvModelOverride forces every request onto a single model, regardless of
// what the host asked for.
const EnvModelOverride = "AH_OVERRIDE_LLM_MODEL"

// DefaultModel is used when neither the host nor the environment names one.
const DefaultModel = openai.ChatModelO1Mini

func resolveModel(requested string) string {
	if override := strings.TrimSpace(os.Getenv(EnvModelOverride)); override != "" {
		return override
	}
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return DefaultModel
}

func isReasoningModel(model string) bool {
	return strings.HasPrefix(model, "o1")
}
