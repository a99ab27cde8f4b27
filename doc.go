// Package ahopenai exposes OpenAI chat completion and realtime speech as
// named AgentHost services.
//
// The host discovers functionality through the service registry: each
// capability is registered under a stable name (stream_chat,
// format_image_message, the s2s session services) and resolved with Lookup.
// Typed access is available through Plugin for Go callers that do not go
// through the registry.
package ahopenai
