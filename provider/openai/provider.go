package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/agenthost/ah-openai/messages"
	"github.com/agenthost/ah-openai/provider"
	"github.com/go-openapi/strfmt"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
)

type Provider struct {
	client *openai.Client
}

func New(options ...option.RequestOption) *Provider {
	client := openai.NewClient(options...)
	return &Provider{
		client: client,
	}
}

// reasoning models reject custom sampling parameters
const (
	reasoningMaxTokens   = 20000
	reasoningTemperature = 1.0
)

func (p *Provider) buildRequest(params *provider.CompletionParams) (openai.ChatCompletionNewParams, error) {
	model := resolveModel(params.Model)

	temperature := params.Temperature
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = provider.DefaultMaxTokens
	}

	leadRole := messages.Role("")
	if isReasoningModel(model) {
		if model == openai.ChatModelO1Mini {
			leadRole = messages.RoleUser
		} else {
			leadRole = messages.RoleDeveloper
		}
		temperature = reasoningTemperature
		maxTokens = reasoningMaxTokens
	}

	result, user, err := messagesToOpenAI(params.Messages, leadRole)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	oaiParams := openai.ChatCompletionNewParams{
		Messages:            openai.F(result),
		Model:               openai.F(model),
		N:                   openai.Int(1),
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
	if strings.TrimSpace(user) != "" {
		oaiParams.User = openai.String(user)
	}

	return oaiParams, nil
}

// ChatCompletion issues a single streaming chat completion call and relays
// its deltas on the returned channel. The channel closes at end-of-stream; a
// failure surfaces as a provider.Error event before the close.
func (p *Provider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	chatParams, err := p.buildRequest(&params)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)
		p.runStream(ctx, chatParams, &params, events)
	}()
	return events, nil
}

func (p *Provider) runStream(ctx context.Context, params openai.ChatCompletionNewParams, command *provider.CompletionParams, events chan<- provider.StreamEvent) {
	strm := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer strm.Close()

	if strm.Err() != nil {
		events <- provider.Error{
			Err:       strm.Err(),
			RunID:     command.RunID,
			Timestamp: strfmt.DateTime(time.Now()),
		}
		return
	}

	var notFirst bool
	var acc openai.ChatCompletionAccumulator

	for strm.Next() {
		// Check context before processing each chunk
		if ctx.Err() != nil {
			break
		}

		if !notFirst {
			notFirst = true
			events <- provider.Delim{RunID: command.RunID, Delim: "start"}
		}

		chunk := strm.Current()
		acc.AddChunk(chunk)
		if ev, ok := chunkToStreamEvent(&chunk, command); ok {
			events <- ev
		}
	}

	// A single failure signal ends the stream, whether the transport broke or
	// the caller cancelled.
	if err := strm.Err(); err != nil {
		events <- provider.Error{
			Err:       err,
			RunID:     command.RunID,
			Timestamp: strfmt.DateTime(time.Now()),
		}
		return
	}
	if err := ctx.Err(); err != nil {
		events <- provider.Error{
			Err:       err,
			RunID:     command.RunID,
			Timestamp: strfmt.DateTime(time.Now()),
		}
		return
	}

	if notFirst {
		events <- provider.Delim{RunID: command.RunID, Delim: "end"}
		events <- completionToStreamEvent(&acc.ChatCompletion, command)
	}
}

func messagesToOpenAI(msgs []messages.Message, leadRole messages.Role) ([]openai.ChatCompletionMessageParamUnion, string, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	var user string

	for i, msg := range msgs {
		role := msg.Role
		if i == 0 && leadRole != "" {
			role = leadRole
		}

		switch role {
		case messages.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content.Flatten()))
		case messages.RoleDeveloper:
			result = append(result, openai.ChatCompletionMessageParam{
				Role:    openai.F(openai.ChatCompletionMessageParamRole("developer")),
				Content: openai.F[any](msg.Content.Flatten()),
			})
		case messages.RoleUser:
			if msg.Sender != "" {
				user = msg.Sender
			}
			um, err := userMessageToOpenAI(msg.Content)
			if err != nil {
				return nil, "", fmt.Errorf("invalid user message at %d: %w", i, err)
			}
			result = append(result, um)
		case messages.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content.Flatten()))
		default:
			return nil, "", fmt.Errorf("message at %d has an unknown role %q", i, msg.Role)
		}
	}

	return result, user, nil
}

// userMessageToOpenAI flattens text-only content into a single string, the
// way the original host protocol expects, and converts mixed content into
// typed parts.
func userMessageToOpenAI(content messages.ContentOrParts) (openai.ChatCompletionMessageParamUnion, error) {
	if content.Parts == nil {
		return openai.UserMessageParts(openai.TextPart(content.Content)), nil
	}

	textOnly := true
	for _, part := range content.Parts {
		if _, ok := part.(messages.TextContentPart); !ok {
			textOnly = false
			break
		}
	}
	if textOnly {
		return openai.UserMessageParts(openai.TextPart(content.Flatten())), nil
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, len(content.Parts))
	for i, part := range content.Parts {
		switch part := part.(type) {
		case messages.TextContentPart:
			parts[i] = openai.ChatCompletionContentPartTextParam{
				Text: openai.String(part.Text),
				Type: openai.F(openai.ChatCompletionContentPartTextTypeText),
			}
		case messages.ImageContentPart:
			img := openai.ChatCompletionContentPartImageImageURLParam{
				URL: openai.String(part.URL),
			}
			if part.Detail != "" {
				img.Detail = openai.F(openai.ChatCompletionContentPartImageImageURLDetail(part.Detail))
			}
			parts[i] = openai.ChatCompletionContentPartImageParam{
				ImageURL: openai.F(img),
				Type:     openai.F(openai.ChatCompletionContentPartImageTypeImageURL),
			}
		case messages.AudioContentPart:
			parts[i] = openai.ChatCompletionContentPartInputAudioParam{
				InputAudio: openai.F(openai.ChatCompletionContentPartInputAudioInputAudioParam{
					Data:   openai.String(base64.StdEncoding.EncodeToString(part.InputAudio.Data)),
					Format: openai.F(openai.ChatCompletionContentPartInputAudioInputAudioFormat(part.InputAudio.Format)),
				}),
				Type: openai.F(openai.ChatCompletionContentPartInputAudioTypeInputAudio),
			}
		default:
			return nil, fmt.Errorf("unsupported content part %T", part)
		}
	}
	return openai.UserMessageParts(parts...), nil
}

func chunkToStreamEvent(chunk *openai.ChatCompletionChunk, command *provider.CompletionParams) (provider.StreamEvent, bool) {
	if len(chunk.Choices) == 0 {
		return nil, false
	}

	delta := chunk.Choices[0].Delta

	// reasoning_content is not part of the standard schema, so it only shows
	// up in the raw delta payload
	if reasoning := gjson.Get(delta.JSON.RawJSON(), "reasoning_content"); reasoning.Exists() && reasoning.String() != "" {
		return provider.Chunk{
			RunID:     command.RunID,
			Reasoning: reasoning.String(),
			Timestamp: strfmt.DateTime(time.Now()),
		}, true
	}

	if delta.Content == "" {
		return nil, false
	}

	return provider.Chunk{
		RunID:     command.RunID,
		Content:   delta.Content,
		Timestamp: strfmt.DateTime(time.Now()),
	}, true
}

func completionToStreamEvent(chat *openai.ChatCompletion, command *provider.CompletionParams) provider.StreamEvent {
	if len(chat.Choices) == 0 {
		return provider.Response{
			RunID:     command.RunID,
			Timestamp: strfmt.DateTime(time.Now()),
		}
	}

	choice := chat.Choices[0]
	return provider.Response{
		RunID:        command.RunID,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Timestamp:    strfmt.DateTime(time.Now()),
	}
}
