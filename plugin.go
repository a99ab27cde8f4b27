package ahopenai

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/agenthost/ah-openai/internal/registry"
	"github.com/agenthost/ah-openai/messages"
	"github.com/agenthost/ah-openai/provider"
	oai "github.com/agenthost/ah-openai/provider/openai"
	"github.com/agenthost/ah-openai/realtime"
	"github.com/fogfish/opts"
	"github.com/openai/openai-go/option"
)

// Service names the host resolves through Lookup.
const (
	ServiceStreamChat         = "stream_chat"
	ServiceFormatImageMessage = "format_image_message"
	ServiceImageDimensions    = "get_image_dimensions"
	ServiceStartS2S           = "start_s2s"
	ServiceSendS2SMessage     = "send_s2s_message"
	ServiceSendS2SAudioChunk  = "send_s2s_audio_chunk"
	ServiceCloseS2SSession    = "close_s2s_session"
)

// Service is a named capability exposed to the host. Fn holds the service
// function; the host asserts it to the signature it expects for the name.
type Service struct {
	Name        string
	Description string
	Fn          any
}

var services = registry.New[Service]()

// Register adds a service to the registry, replacing any previous
// registration under the same name.
func Register(svc Service) error {
	if svc.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if svc.Fn == nil {
		return fmt.Errorf("service %q has no function", svc.Name)
	}
	services.Add(svc.Name, svc)
	return nil
}

// Lookup resolves a registered service by name.
func Lookup(name string) (Service, error) {
	svc, ok := services.Get(name)
	if !ok {
		return Service{}, fmt.Errorf("no service registered as %q", name)
	}
	return svc, nil
}

// ServiceNames returns the names of all registered services, sorted.
func ServiceNames() []string {
	names := make([]string, 0, services.Len())
	services.ForEach(func(name string, _ Service) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Plugin bundles the chat completion provider and the realtime session
// surface behind typed methods. Install registers them all as named services.
type Plugin struct {
	provider *oai.Provider
}

// New builds a Plugin. Request options are passed through to the underlying
// OpenAI client (API key is read from OPENAI_API_KEY by default).
func New(options ...option.RequestOption) *Plugin {
	return &Plugin{provider: oai.New(options...)}
}

// Provider returns the chat completion provider.
func (p *Plugin) Provider() provider.Provider {
	return p.provider
}

// StreamChat starts a streaming chat completion. See
// provider.Provider.ChatCompletion for the channel semantics.
func (p *Plugin) StreamChat(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	return p.provider.ChatCompletion(ctx, params)
}

// FormatImageMessage converts an image into a data-URL image content part.
func (p *Plugin) FormatImageMessage(img image.Image) (messages.ImageContentPart, error) {
	return messages.FormatImage(img)
}

// ImageDimensions reports the maximum supported image width, height and
// total pixels.
func (p *Plugin) ImageDimensions() (width, height, pixels int) {
	return messages.ImageDimensions()
}

// StartS2S opens a realtime speech session registered under id.
func (p *Plugin) StartS2S(ctx context.Context, id string, options ...opts.Option[realtime.Config]) (*realtime.Session, error) {
	return realtime.Start(ctx, id, options...)
}

// SendS2SMessage submits a text message into the realtime session id.
func (p *Plugin) SendS2SMessage(ctx context.Context, id string, msg messages.Message) error {
	s, err := realtime.Get(id)
	if err != nil {
		return err
	}
	return s.SendMessage(ctx, msg)
}

// SendS2SAudioChunk appends caller audio to the realtime session id.
func (p *Plugin) SendS2SAudioChunk(ctx context.Context, id string, audio []byte) error {
	s, err := realtime.Get(id)
	if err != nil {
		return err
	}
	return s.SendAudio(ctx, audio)
}

// CloseS2SSession shuts down the realtime session id.
func (p *Plugin) CloseS2SSession(id string) error {
	return realtime.Close(id)
}

// Install registers every plugin capability as a named service.
func (p *Plugin) Install() error {
	for _, svc := range []Service{
		{
			Name:        ServiceStreamChat,
			Description: "Streaming chat completion returning ordered text fragments",
			Fn:          p.StreamChat,
		},
		{
			Name:        ServiceFormatImageMessage,
			Description: "Convert an image into a base64 data-URL content part",
			Fn:          p.FormatImageMessage,
		},
		{
			Name:        ServiceImageDimensions,
			Description: "Maximum supported image width, height and pixel count",
			Fn:          p.ImageDimensions,
		},
		{
			Name:        ServiceStartS2S,
			Description: "Open a realtime speech-to-speech session",
			Fn:          p.StartS2S,
		},
		{
			Name:        ServiceSendS2SMessage,
			Description: "Send a text message into a realtime session",
			Fn:          p.SendS2SMessage,
		},
		{
			Name:        ServiceSendS2SAudioChunk,
			Description: "Append caller audio to a realtime session",
			Fn:          p.SendS2SAudioChunk,
		},
		{
			Name:        ServiceCloseS2SSession,
			Description: "Close a realtime session",
			Fn:          p.CloseS2SSession,
		},
	} {
		if err := Register(svc); err != nil {
			return err
		}
	}
	return nil
}
