package messages

import (
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation entry as supplied by the host. The adapter
// passes messages through without transformation, except that multi-part text
// content is flattened before it is sent upstream.
type Message struct {
	Role      Role            `json:"role"`
	Content   ContentOrParts  `json:"content"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	_         struct{}        // require keyed usage
}

// User builds a plain text user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: ContentOrParts{Content: content}}
}

// System builds a plain text system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: ContentOrParts{Content: content}}
}

// Assistant builds a plain text assistant message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: ContentOrParts{Content: content}}
}

var msgJSON = []byte(`{}`)

// MarshalJSON implements json.Marshaler for Message.
func (m Message) MarshalJSON() ([]byte, error) {
	result := msgJSON

	result, err := sjson.SetBytes(result, "role", string(m.Role))
	if err != nil {
		return nil, err
	}

	content, err := m.Content.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "content", content)
	if err != nil {
		return nil, err
	}

	if m.Sender != "" {
		result, err = sjson.SetBytes(result, "sender", m.Sender)
		if err != nil {
			return nil, err
		}
	}

	if !m.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", m.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements json.Unmarshaler for Message.
func (m *Message) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	role := gjson.GetBytes(data, "role")
	if !role.Exists() {
		return fmt.Errorf("missing required field 'role'")
	}
	m.Role = Role(role.String())

	content := gjson.GetBytes(data, "content")
	if !content.Exists() {
		return fmt.Errorf("missing required field 'content'")
	}
	if err := m.Content.UnmarshalJSON([]byte(content.Raw)); err != nil {
		return fmt.Errorf("invalid content: %w", err)
	}

	if sender := gjson.GetBytes(data, "sender"); sender.Exists() {
		m.Sender = sender.String()
	}

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := m.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}
