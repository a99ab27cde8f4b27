package realtime

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/agenthost/ah-openai/messages"
	"github.com/agenthost/ah-openai/pkg/slogx"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

// readLoop pumps server events until the connection goes away. Handler
// failures are logged and reported back into the conversation; they never
// tear the session down.
func (s *Session) readLoop(ctx context.Context) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.InfoContext(ctx, "realtime connection closed")
			} else {
				s.log.InfoContext(ctx, "realtime connection lost", slogx.Error(err))
			}
			return
		}
		s.handleEvent(ctx, data)
	}
}

func (s *Session) handleEvent(ctx context.Context, data []byte) {
	event := gjson.ParseBytes(data)
	eventType := event.Get("type").String()
	s.log.DebugContext(ctx, "received server event", slog.String("event_type", eventType))

	switch eventType {
	case "response.output_audio.delta":
		s.handleAudioDelta(ctx, event)
	case "conversation.item.done":
		item := event.Get("item")
		switch item.Get("type").String() {
		case "function_call":
			s.handleFunctionCall(ctx, item)
		case "message":
			s.handleTranscript(ctx, item)
		}
	case "input_audio_buffer.speech_started":
		if s.cfg.OnInterrupt != nil {
			if err := s.cfg.OnInterrupt(ctx); err != nil {
				s.log.ErrorContext(ctx, "interrupt handler failed", slogx.Error(err))
			}
		}
	}
}

func (s *Session) handleAudioDelta(ctx context.Context, event gjson.Result) {
	audio, err := base64.StdEncoding.DecodeString(event.Get("delta").String())
	if err != nil {
		s.log.ErrorContext(ctx, "invalid audio delta", slogx.Error(err))
		return
	}
	s.log.DebugContext(ctx, "audio chunk", slog.Int("bytes", len(audio)))

	if s.cfg.OnAudioChunk == nil {
		return
	}
	if err := s.cfg.OnAudioChunk(ctx, audio); err != nil {
		s.log.ErrorContext(ctx, "audio handler failed", slogx.Error(err))
	}
}

func (s *Session) handleFunctionCall(ctx context.Context, item gjson.Result) {
	if s.cfg.OnCommand == nil {
		return
	}

	name := item.Get("name").String()
	args := gjson.Parse(item.Get("arguments").String())

	var err error
	if name != "output" {
		// direct function call
		err = s.dispatchCommand(ctx, Command{Name: name, Args: args})
	} else {
		// the output tool wraps one command or a list of commands as
		// escaped JSON in its text argument
		err = s.dispatchOutput(ctx, args.Get("text").String())
	}

	if err != nil {
		s.log.ErrorContext(ctx, "command handler failed", slogx.Error(err))
		s.reportCommandError(ctx, err)
	}
}

func (s *Session) dispatchOutput(ctx context.Context, text string) error {
	parsed := gjson.Parse(text)
	if parsed.IsArray() {
		for _, single := range parsed.Array() {
			cmd, err := commandFromJSON(single)
			if err != nil {
				return err
			}
			if err := s.dispatchCommand(ctx, cmd); err != nil {
				return err
			}
		}
		return nil
	}

	cmd, err := commandFromJSON(parsed)
	if err != nil {
		return err
	}
	return s.dispatchCommand(ctx, cmd)
}

func (s *Session) dispatchCommand(ctx context.Context, cmd Command) error {
	s.log.InfoContext(ctx, "invoking command", slog.String("command", cmd.Name))
	return s.cfg.OnCommand(ctx, cmd)
}

// commandFromJSON unpacks the host command shape: a single-key object whose
// key is the command name and whose value holds the arguments.
func commandFromJSON(value gjson.Result) (Command, error) {
	if !value.IsObject() {
		return Command{}, fmt.Errorf("invalid command payload: %s", value.Raw)
	}

	var cmd Command
	var found bool
	value.ForEach(func(key, args gjson.Result) bool {
		cmd = Command{Name: key.String(), Args: args}
		found = true
		return false
	})
	if !found {
		return Command{}, fmt.Errorf("empty command payload")
	}
	return cmd, nil
}

// reportCommandError feeds a handler failure back into the conversation so
// the model can recover.
func (s *Session) reportCommandError(ctx context.Context, cmdErr error) {
	msg := messages.Message{
		Role: messages.RoleUser,
		Content: messages.ContentOrParts{
			Content: fmt.Sprintf("[SYSTEM: Error executing command: %v]", cmdErr),
		},
	}
	if err := s.SendMessage(ctx, msg); err != nil {
		s.log.ErrorContext(ctx, "failed to report command error", slogx.Error(err))
	}
}

func (s *Session) handleTranscript(ctx context.Context, item gjson.Result) {
	if s.cfg.OnTranscript == nil {
		return
	}

	role := item.Get("role").String()
	var transcript string
	for _, content := range item.Get("content").Array() {
		switch {
		case role == "assistant" && content.Get("type").String() == "output_audio":
			if t := content.Get("transcript"); t.Exists() {
				transcript = t.String()
			}
		case role == "user":
			if t := content.Get("transcript"); t.Exists() {
				transcript = t.String()
			} else if content.Get("type").String() == "input_text" {
				transcript = content.Get("text").String()
			}
		}
		if transcript != "" {
			break
		}
	}

	if transcript == "" {
		return
	}

	s.log.InfoContext(ctx, "transcript", slog.String("role", role))
	if err := s.cfg.OnTranscript(ctx, role, transcript); err != nil {
		s.log.ErrorContext(ctx, "transcript handler failed", slogx.Error(err))
	}
}
