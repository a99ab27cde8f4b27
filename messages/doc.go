// Package messages holds the conversation data model exchanged between the
// host and the OpenAI adapter. A conversation is an ordered list of Message
// values, each carrying a role and content that is either a plain string or a
// list of typed parts (text, image, audio).
//
// The JSON shapes match what the host sends over the wire, so the codecs are
// hand-rolled with gjson/sjson rather than relying on struct tags: content is
// a bare string when simple and a tagged array when multi-part.
package messages
