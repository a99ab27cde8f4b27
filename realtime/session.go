package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/agenthost/ah-openai/internal/registry"
	"github.com/agenthost/ah-openai/messages"
	"github.com/agenthost/ah-openai/pkg/slogx"
	"github.com/agenthost/ah-openai/pkg/uuidx"
	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultURL is the OpenAI Realtime endpoint. The model is appended as a
// query parameter on dial.
const DefaultURL = "wss://api.openai.com/v1/realtime"

const (
	// DefaultModel is the realtime model used when the host names none.
	DefaultModel = "gpt-realtime"

	// DefaultVoice for audio output.
	DefaultVoice = "marin"

	// DefaultBufferSize is the TCP send/receive buffer size in bytes. Lower
	// means lower latency but may drop on slow networks.
	DefaultBufferSize = 4096
)

// Command is a function call requested by the model. Commands arrive either
// as direct tool calls or wrapped in the session's "output" tool, which
// carries one command or a list of commands as escaped JSON.
type Command struct {
	Name string
	Args gjson.Result
	_    struct{}
}

type (
	// CommandHandler receives function calls requested by the model.
	CommandHandler func(ctx context.Context, cmd Command) error

	// AudioHandler receives decoded audio chunks from the model.
	AudioHandler func(ctx context.Context, audio []byte) error

	// TranscriptHandler receives user and assistant transcripts.
	TranscriptHandler func(ctx context.Context, role, transcript string) error

	// InterruptHandler fires when the user starts speaking over a response.
	InterruptHandler func(ctx context.Context) error
)

// Config holds the session parameters. Use the With* options with Start
// rather than constructing it directly.
type Config struct {
	URL          string
	Model        string
	Voice        string
	Instructions string
	BufferSize   int
	OnCommand    CommandHandler
	OnAudioChunk AudioHandler
	OnTranscript TranscriptHandler
	OnInterrupt  InterruptHandler
}

var (
	// WithURL points the session at a different realtime endpoint.
	WithURL = opts.ForName[Config, string]("URL")

	// WithModel selects the realtime model.
	WithModel = opts.ForName[Config, string]("Model")

	// WithVoice selects the output voice.
	WithVoice = opts.ForName[Config, string]("Voice")

	// WithInstructions sets the system instructions for the session.
	WithInstructions = opts.ForName[Config, string]("Instructions")

	// WithBufferSize overrides the TCP buffer size in bytes.
	WithBufferSize = opts.ForName[Config, int]("BufferSize")

	// WithCommandHandler registers the function call callback.
	WithCommandHandler = opts.ForName[Config, CommandHandler]("OnCommand")

	// WithAudioHandler registers the audio chunk callback. Audio arrives in
	// the session's output format (audio/pcmu).
	WithAudioHandler = opts.ForName[Config, AudioHandler]("OnAudioChunk")

	// WithTranscriptHandler registers the transcript callback.
	WithTranscriptHandler = opts.ForName[Config, TranscriptHandler]("OnTranscript")

	// WithInterruptHandler registers the interruption callback.
	WithInterruptHandler = opts.ForName[Config, InterruptHandler]("OnInterrupt")
)

var sessions = registry.New[*Session]()

// Session is a live realtime connection. All exported methods are safe for
// concurrent use; the WebSocket write path is serialized internally.
type Session struct {
	id      string
	conn    *websocket.Conn
	cfg     Config
	latency *LatencyTracker
	log     *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Start dials the realtime endpoint, initializes the session, registers it
// under id, and spawns the handler loop. The OPENAI_API_KEY environment
// variable must be set.
func Start(ctx context.Context, id string, options ...opts.Option[Config]) (*Session, error) {
	cfg := Config{
		URL:        DefaultURL,
		Model:      DefaultModel,
		Voice:      DefaultVoice,
		BufferSize: DefaultBufferSize,
	}
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, fmt.Errorf("failed to apply session options: %w", err)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	log := slog.Default().With(slogx.SessionID(id))
	log.InfoContext(ctx, "starting realtime session", slog.Int("buffer_size", cfg.BufferSize))

	conn, err := dial(ctx, fmt.Sprintf("%s?model=%s", cfg.URL, cfg.Model), apiKey, cfg.BufferSize)
	if err != nil {
		return nil, fmt.Errorf("failed to connect realtime session: %w", err)
	}

	s := &Session{
		id:      id,
		conn:    conn,
		cfg:     cfg,
		latency: NewLatencyTracker(0),
		log:     log,
	}

	if err := s.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize realtime session: %w", err)
	}

	sessions.Add(id, s)
	go s.readLoop(ctx)

	log.InfoContext(ctx, "realtime session started")
	return s, nil
}

// Get returns the live session registered under id.
func Get(id string) (*Session, error) {
	s, ok := sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("no active realtime session for id %q", id)
	}
	return s, nil
}

// Close shuts down the session registered under id and removes it from the
// registry.
func Close(id string) error {
	s, err := Get(id)
	if err != nil {
		return err
	}
	return s.Close()
}

// ID returns the host-assigned session identifier.
func (s *Session) ID() string {
	return s.id
}

// Latency returns the session's send latency tracker.
func (s *Session) Latency() *LatencyTracker {
	return s.latency
}

// Close closes the WebSocket connection and removes the session from the
// registry. It is safe to call more than once. A stale handle whose id has
// since been taken over by a newer session closes its own connection without
// deregistering the replacement.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if cur, ok := sessions.Get(s.id); ok && cur == s {
			sessions.Del(s.id)
		}
		s.closeErr = s.conn.Close()
		s.log.Info("realtime session closed")
	})
	return s.closeErr
}

// SendMessage submits a text message into the conversation and requests a
// response. Only text content is supported on the realtime channel.
func (s *Session) SendMessage(ctx context.Context, msg messages.Message) error {
	parts, err := inputTextParts(msg.Content)
	if err != nil {
		return err
	}

	event := conversationItemCreate{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type:    "message",
			Role:    "user",
			Content: parts,
		},
		EventID: uuidx.NewString(),
	}
	if err := s.writeJSON(event); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	if err := s.writeJSON(responseCreate{Type: "response.create"}); err != nil {
		return fmt.Errorf("failed to request response: %w", err)
	}

	s.log.DebugContext(ctx, "sent message to realtime session")
	return nil
}

func inputTextParts(content messages.ContentOrParts) ([]contentPart, error) {
	if content.Parts == nil {
		return []contentPart{{Type: "input_text", Text: content.Content}}, nil
	}
	parts := make([]contentPart, 0, len(content.Parts))
	for _, part := range content.Parts {
		text, ok := part.(messages.TextContentPart)
		if !ok {
			return nil, fmt.Errorf("unimplemented content type %T", part)
		}
		parts = append(parts, contentPart{Type: "input_text", Text: text.Text})
	}
	return parts, nil
}

// initialize pushes the session configuration: instructions, voice, pcmu
// audio both ways, semantic VAD, and the single "output" tool the model uses
// to emit JSON commands.
func (s *Session) initialize() error {
	update := sessionUpdate{
		Type: "session.update",
		Session: sessionConfig{
			Type:         "realtime",
			Instructions: s.cfg.Instructions,
			Audio: audioConfig{
				Input: audioInput{
					Format:         formatConfig{Type: "audio/pcmu"},
					NoiseReduction: noiseReduction{Type: "near_field"},
					TurnDetection: turnDetection{
						Type:              "semantic_vad",
						Eagerness:         "high",
						CreateResponse:    true,
						InterruptResponse: true,
					},
				},
				Output: audioOutput{
					Voice:  s.cfg.Voice,
					Format: formatConfig{Type: "audio/pcmu"},
				},
			},
			Tools:      []toolConfig{outputTool()},
			ToolChoice: "auto",
		},
	}
	if err := s.writeJSON(update); err != nil {
		return err
	}
	s.log.Info("realtime session initialized")
	return nil
}

func (s *Session) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return s.writeText(data)
}

func (s *Session) writeText(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Type         string       `json:"type"`
	Instructions string       `json:"instructions"`
	Audio        audioConfig  `json:"audio"`
	Tools        []toolConfig `json:"tools"`
	ToolChoice   string       `json:"tool_choice"`
}

type audioConfig struct {
	Input  audioInput  `json:"input"`
	Output audioOutput `json:"output"`
}

type audioInput struct {
	Format         formatConfig   `json:"format"`
	NoiseReduction noiseReduction `json:"noise_reduction"`
	TurnDetection  turnDetection  `json:"turn_detection"`
}

type audioOutput struct {
	Voice  string       `json:"voice"`
	Format formatConfig `json:"format"`
}

type formatConfig struct {
	Type string `json:"type"`
}

type noiseReduction struct {
	Type string `json:"type"`
}

type turnDetection struct {
	Type              string `json:"type"`
	Eagerness         string `json:"eagerness"`
	CreateResponse    bool   `json:"create_response"`
	InterruptResponse bool   `json:"interrupt_response"`
}

type toolConfig struct {
	Type        string             `json:"type"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

type conversationItemCreate struct {
	Type    string           `json:"type"`
	Item    conversationItem `json:"item"`
	EventID string           `json:"event_id"`
}

type conversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseCreate struct {
	Type string `json:"type"`
}

// outputTool is the single function tool exposed to the model: a funnel for
// JSON-encoded commands.
func outputTool() toolConfig {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
		Extras:     map[string]any{"strict": true},
	}
	schema.Properties.Set("text", &jsonschema.Schema{
		Type:        "string",
		Description: "Properly escaped JSON for the command and arguments",
	})

	return toolConfig{
		Type:        "function",
		Name:        "output",
		Description: "Call this function with JSON-encoded function calls if necessary.",
		Parameters:  schema,
	}
}
