package messages

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var jsonNull = []byte(`null`)

// ContentOrParts represents either a simple string content or a collection of
// content parts. It provides flexible serialization to handle both
// single-string messages and multi-part content.
type ContentOrParts struct {
	Content string        // Raw string content, used when the message is just text
	Parts   []ContentPart // Slice of different content parts (text, image, audio)
	_       struct{}      // require keyed usage
}

// Flatten collapses multi-part content into a single newline-separated string.
// Text parts contribute their text; non-text parts are skipped. Plain string
// content is returned as-is.
func (c ContentOrParts) Flatten() string {
	if c.Parts == nil {
		return c.Content
	}
	var sb strings.Builder
	for _, part := range c.Parts {
		if text, ok := part.(TextContentPart); ok {
			sb.WriteString(text.Text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// MarshalJSON implements json.Marshaler for ContentOrParts.
// Returns the Content as a JSON string if it's non-empty, otherwise returns
// the Parts as a JSON array. Returns null if both are empty.
func (c ContentOrParts) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Content) != "" {
		return json.Marshal(c.Content)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON implements json.Unmarshaler for ContentOrParts.
// Handles both string content and arrays of content part types.
func (c *ContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if jv.IsArray() {
		aj := jv.Array()
		parts := make([]ContentPart, len(aj))
		for idx, ajv := range aj {
			tpe := ajv.Get("type").String()
			switch tpe {
			case "text":
				var part TextContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid text part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "image_url":
				var part ImageContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid image part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "audio":
				var part AudioContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid audio part at %d: %w", idx, err)
				}
				parts[idx] = part
			default:
				return fmt.Errorf("content part at %d has an unknown type %q", idx, tpe)
			}
		}
		c.Parts = parts
		return nil
	}
	c.Content = jv.String()
	return nil
}

// ContentPart is an interface that marks structs as valid content parts.
// Implementations include TextContentPart, ImageContentPart, and AudioContentPart.
type ContentPart interface {
	contentPart()
}

// Text creates a new TextContentPart with the given text.
func Text(text string) TextContentPart {
	return TextContentPart{Text: text}
}

// TextContentPart represents a text-only content part.
type TextContentPart struct {
	Text string   `json:"text"` // The actual text content
	_    struct{} // require keyed usage
}

func (TextContentPart) contentPart() {}

var tcpJSON = []byte(`{"type":"text"}`)

// MarshalJSON serializes the text content with a "type":"text" field.
func (t TextContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(tcpJSON, "text", t.Text)
}

// UnmarshalJSON validates and extracts the required 'text' field.
func (t *TextContentPart) UnmarshalJSON(input []byte) error {
	text := gjson.GetBytes(input, "text")
	if !text.Exists() {
		return errors.New("missing required field 'text'")
	}
	t.Text = text.String()
	return nil
}

// Image creates a new ImageContentPart with the given URL.
func Image(url string) ImageContentPart {
	return ImageContentPart{URL: url}
}

// ImageContentPart represents an image content part. The URL is either a
// regular http(s) URL or a base64 data URL as produced by FormatImage.
// The wire shape follows OpenAI's image message format.
type ImageContentPart struct {
	URL    string   `json:"image_url"` // URL pointing to the image
	Detail string   `json:"detail,omitempty"`
	_      struct{} // require keyed usage
}

func (ImageContentPart) contentPart() {}

var icpJSON = []byte(`{"type":"image_url"}`)

// MarshalJSON serializes the image URL with a "type":"image_url" field.
func (i ImageContentPart) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(icpJSON, "image_url.url", i.URL)
	if err != nil {
		return nil, err
	}
	if i.Detail != "" {
		result, err = sjson.SetBytes(result, "image_url.detail", i.Detail)
	}
	return result, err
}

// UnmarshalJSON validates and extracts the required 'image_url' field.
// Accepts both the nested object form {"image_url":{"url":...}} and the
// flattened {"image_url":"..."} form.
func (i *ImageContentPart) UnmarshalJSON(input []byte) error {
	uri := gjson.GetBytes(input, "image_url")
	if !uri.Exists() {
		return errors.New("missing required field 'image_url'")
	}
	if uri.IsObject() {
		inner := uri.Get("url")
		if !inner.Exists() {
			return errors.New("missing required field 'image_url.url'")
		}
		i.URL = inner.String()
		i.Detail = uri.Get("detail").String()
		return nil
	}
	i.URL = uri.String()
	return nil
}

// InputAudio contains the data and format information for audio content.
type InputAudio struct {
	Data   []byte   `json:"-"`      // Raw audio data
	Format string   `json:"format"` // Audio format specification
	_      struct{} // require keyed usage
}

// MarshalJSON encodes the Data field as base64 in the JSON output.
func (i InputAudio) MarshalJSON() ([]byte, error) {
	type Alias InputAudio
	return json.Marshal(&struct {
		Data string `json:"data"`
		*Alias
	}{
		Data:  base64.StdEncoding.EncodeToString(i.Data),
		Alias: (*Alias)(&i),
	})
}

// UnmarshalJSON decodes the base64 encoded data field into the Data byte slice.
func (i *InputAudio) UnmarshalJSON(data []byte) error {
	type Alias InputAudio
	aux := &struct {
		Data string `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(i),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	i.Data, err = base64.StdEncoding.DecodeString(aux.Data)
	return err
}

// Audio creates a new AudioContentPart with the provided raw audio data and
// format. The format parameter should specify the audio encoding format
// (e.g., "wav", "mp3").
func Audio(data []byte, format string) ContentPart {
	return AudioContentPart{
		InputAudio: InputAudio{
			Data:   data,
			Format: format,
		},
	}
}

// AudioContentPart represents an audio content part.
type AudioContentPart struct {
	InputAudio InputAudio `json:"input_audio"` // Audio data and format information
	_          struct{}   // require keyed usage
}

func (AudioContentPart) contentPart() {}

var acpJSON = []byte(`{"type":"audio"}`)

// MarshalJSON serializes the audio input data and format with a "type":"audio" field.
func (i AudioContentPart) MarshalJSON() ([]byte, error) {
	jj, err := json.Marshal(i.InputAudio)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(acpJSON, "input_audio", jj)
}

// UnmarshalJSON validates and extracts the required 'input_audio' object
// containing 'data' and 'format' fields.
func (i *AudioContentPart) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json for audio part")
	}

	audioJson := gjson.GetBytes(input, "input_audio")
	if !audioJson.Exists() {
		return fmt.Errorf("missing required field 'input_audio'")
	}

	if !audioJson.IsObject() {
		return fmt.Errorf("'input_audio' must be an object")
	}

	data := audioJson.Get("data")
	format := audioJson.Get("format")

	if !data.Exists() || !format.Exists() {
		return fmt.Errorf("input_audio requires both 'data' and 'format' fields")
	}

	decodedData, err := base64.StdEncoding.DecodeString(data.String())
	if err != nil {
		return fmt.Errorf("invalid base64 data: %w", err)
	}

	i.InputAudio = InputAudio{
		Data:   decodedData,
		Format: format.String(),
	}

	return nil
}
