package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveModel(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		t.Setenv(EnvModelOverride, "gpt-4o")
		assert.Equal(t, "gpt-4o", resolveModel("o1-mini"))
	})

	t.Run("requested model used when no override", func(t *testing.T) {
		t.Setenv(EnvModelOverride, "")
		assert.Equal(t, "gpt-4o-mini", resolveModel("gpt-4o-mini"))
	})

	t.Run("default when nothing is set", func(t *testing.T) {
		t.Setenv(EnvModelOverride, "")
		assert.Equal(t, DefaultModel, resolveModel(""))
	})
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o1-mini"))
	assert.True(t, isReasoningModel("o1-preview"))
	assert.True(t, isReasoningModel("o1"))
	assert.False(t, isReasoningModel("gpt-4o-mini"))
}
