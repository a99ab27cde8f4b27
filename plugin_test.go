package ahopenai

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agenthost/ah-openai/messages"
	"github.com/agenthost/ah-openai/pkg/uuidx"
	"github.com/agenthost/ah-openai/provider"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Validation(t *testing.T) {
	err := Register(Service{Description: "nameless"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	err = Register(Service{Name: "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no function")
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("no_such_service")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no service registered")
}

func TestPlugin_Install(t *testing.T) {
	p := New()
	require.NoError(t, p.Install())

	names := ServiceNames()
	for _, name := range []string{
		ServiceStreamChat,
		ServiceFormatImageMessage,
		ServiceImageDimensions,
		ServiceStartS2S,
		ServiceSendS2SMessage,
		ServiceSendS2SAudioChunk,
		ServiceCloseS2SSession,
	} {
		assert.Contains(t, names, name)

		svc, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, svc.Name)
		assert.NotEmpty(t, svc.Description)
		assert.NotNil(t, svc.Fn)
	}

	// registry functions carry the typed signatures the host expects
	svc, err := Lookup(ServiceStreamChat)
	require.NoError(t, err)
	_, ok := svc.Fn.(func(context.Context, provider.CompletionParams) (<-chan provider.StreamEvent, error))
	assert.True(t, ok, "stream_chat has signature %T", svc.Fn)
}

func TestPlugin_StreamChat(t *testing.T) {
	t.Setenv("AH_OVERRIDE_LLM_MODEL", "")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		for _, line := range []string{
			`{"id":"chunk","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"hello"}}]}`,
			`{"id":"chunk","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":" world"}}]}`,
			`{"id":"chunk","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		} {
			fmt.Fprintf(w, "data: %s\n\n", line)
			fl.Flush()
		}
	}))
	t.Cleanup(server.Close)

	p := New(option.WithBaseURL(server.URL), option.WithAPIKey("test-key"))

	events, err := p.StreamChat(context.Background(), provider.CompletionParams{
		RunID:    uuidx.New(),
		Model:    "gpt-4o-mini",
		Messages: []messages.Message{messages.User("hi")},
	})
	require.NoError(t, err)

	var chunks []string
	for event := range events {
		switch ev := event.(type) {
		case provider.Chunk:
			chunks = append(chunks, ev.Content)
		case provider.Error:
			t.Fatalf("unexpected stream error: %v", ev.Err)
		}
	}
	assert.Equal(t, "hello world", strings.Join(chunks, ""))
}

func TestPlugin_FormatImageMessage(t *testing.T) {
	p := New()

	part, err := p.FormatImageMessage(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(part.URL, "data:image/png;base64,"))
}

func TestPlugin_ImageDimensions(t *testing.T) {
	p := New()

	width, height, pixels := p.ImageDimensions()
	assert.Equal(t, 4096, width)
	assert.Equal(t, 4096, height)
	assert.Equal(t, 16777216, pixels)
}

func TestPlugin_S2S_MissingSession(t *testing.T) {
	p := New()
	ctx := context.Background()

	err := p.SendS2SMessage(ctx, "gone", messages.User("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active realtime session")

	err = p.SendS2SAudioChunk(ctx, "gone", []byte{1})
	require.Error(t, err)

	err = p.CloseS2SSession("gone")
	require.Error(t, err)
}
