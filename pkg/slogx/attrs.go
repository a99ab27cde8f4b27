package slogx

import "log/slog"

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// KeySessionID is the attribute key for realtime session identifiers.
const KeySessionID = "session_id"

// SessionID returns an attribute for a realtime session identifier.
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}
