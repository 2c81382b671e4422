package events

import "encoding/json"

// Roles carried by content streams and turns.
const (
	RoleUser      = "USER"
	RoleAssistant = "ASSISTANT"
	RoleSystem    = "SYSTEM"
)

// Content stream types.
const (
	ContentTypeText  = "TEXT"
	ContentTypeAudio = "AUDIO"
)

// Stream status values reported by the server.
const (
	StreamReconnecting = "reconnecting"
	StreamConnected    = "connected"
	StreamError        = "error"
)

// Audio frame limits. A single encoded chunk may not exceed MaxChunkBytes;
// a running total of received bytes resets once it passes MaxBufferBytes.
const (
	MaxChunkBytes  = 64 * 1024
	MaxBufferBytes = 1024 * 1024
)

// Message is the wire unit: one top-level object {"event": {<tag>: {...}}}
// per WebSocket text message.
type Message struct {
	Event Envelope `json:"event"`
}

// Envelope is a closed tagged union keyed by event name. Exactly one field
// is non-nil on a well-formed message; unknown tags decode to the zero
// Envelope and are ignored by dispatch.
type Envelope struct {
	SessionStart *SessionStartPayload `json:"sessionStart,omitempty"`
	PromptStart  *PromptStartPayload  `json:"promptStart,omitempty"`
	ContentStart *ContentStartPayload `json:"contentStart,omitempty"`
	TextInput    *TextInputPayload    `json:"textInput,omitempty"`
	AudioInput   *AudioInputPayload   `json:"audioInput,omitempty"`
	ContentEnd   *ContentEndPayload   `json:"contentEnd,omitempty"`
	PromptEnd    *PromptEndPayload    `json:"promptEnd,omitempty"`
	SessionEnd   *SessionEndPayload   `json:"sessionEnd,omitempty"`

	TextOutput     *TextOutputPayload     `json:"textOutput,omitempty"`
	AudioOutput    *AudioOutputPayload    `json:"audioOutput,omitempty"`
	ToolUse        json.RawMessage        `json:"toolUse,omitempty"`
	StreamStatus   *StreamStatusPayload   `json:"streamStatus,omitempty"`
	StreamRecovery *StreamRecoveryPayload `json:"streamRecovery,omitempty"`
}

// Tag returns the event name of the single populated variant, or "" when
// the envelope carries no recognized tag.
func (e *Envelope) Tag() string {
	switch {
	case e.SessionStart != nil:
		return "sessionStart"
	case e.PromptStart != nil:
		return "promptStart"
	case e.ContentStart != nil:
		return "contentStart"
	case e.TextInput != nil:
		return "textInput"
	case e.AudioInput != nil:
		return "audioInput"
	case e.ContentEnd != nil:
		return "contentEnd"
	case e.PromptEnd != nil:
		return "promptEnd"
	case e.SessionEnd != nil:
		return "sessionEnd"
	case e.TextOutput != nil:
		return "textOutput"
	case e.AudioOutput != nil:
		return "audioOutput"
	case e.ToolUse != nil:
		return "toolUse"
	case e.StreamStatus != nil:
		return "streamStatus"
	case e.StreamRecovery != nil:
		return "streamRecovery"
	}
	return ""
}

// InferenceConfiguration holds the fixed sampling parameters sent on
// sessionStart.
type InferenceConfiguration struct {
	MaxTokens   int     `json:"maxTokens"`
	TopP        float64 `json:"topP"`
	Temperature float64 `json:"temperature"`
}

// TextConfiguration describes a text sub-channel.
type TextConfiguration struct {
	MediaType string `json:"mediaType"`
}

// AudioInputConfiguration describes the outbound microphone stream format.
type AudioInputConfiguration struct {
	MediaType       string `json:"mediaType"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	SampleSizeBits  int    `json:"sampleSizeBits"`
	ChannelCount    int    `json:"channelCount"`
	AudioType       string `json:"audioType"`
	Encoding        string `json:"encoding"`
}

// AudioOutputConfiguration describes the requested playback stream format.
type AudioOutputConfiguration struct {
	MediaType       string `json:"mediaType"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	SampleSizeBits  int    `json:"sampleSizeBits"`
	ChannelCount    int    `json:"channelCount"`
	VoiceID         string `json:"voiceId"`
	Encoding        string `json:"encoding"`
	AudioType       string `json:"audioType"`
}

// ToolConfiguration declares the callable capabilities routed through the
// prompt.
type ToolConfiguration struct {
	Tools []Tool `json:"tools"`
}

type Tool struct {
	ToolSpec ToolSpec `json:"toolSpec"`
}

type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ToolInputSchema carries a stringified JSON schema, as the wire demands.
type ToolInputSchema struct {
	JSON string `json:"json"`
}

type SessionStartPayload struct {
	InferenceConfiguration InferenceConfiguration `json:"inferenceConfiguration"`
}

type PromptStartPayload struct {
	PromptName                 string                   `json:"promptName"`
	TextOutputConfiguration    TextConfiguration        `json:"textOutputConfiguration"`
	AudioOutputConfiguration   AudioOutputConfiguration `json:"audioOutputConfiguration"`
	ToolUseOutputConfiguration *TextConfiguration       `json:"toolUseOutputConfiguration,omitempty"`
	ToolConfiguration          *ToolConfiguration       `json:"toolConfiguration,omitempty"`
}

// ContentStartPayload serves both directions: outbound opens a named stream
// (promptName/contentName), the inbound echo identifies it by contentId.
type ContentStartPayload struct {
	PromptName              string                   `json:"promptName,omitempty"`
	ContentName             string                   `json:"contentName,omitempty"`
	Type                    string                   `json:"type"`
	Interactive             bool                     `json:"interactive,omitempty"`
	Role                    string                   `json:"role,omitempty"`
	TextInputConfiguration  *TextConfiguration       `json:"textInputConfiguration,omitempty"`
	AudioInputConfiguration *AudioInputConfiguration `json:"audioInputConfiguration,omitempty"`

	ContentID             string `json:"contentId,omitempty"`
	AdditionalModelFields string `json:"additionalModelFields,omitempty"`
}

type TextInputPayload struct {
	PromptName  string `json:"promptName"`
	ContentName string `json:"contentName"`
	Content     string `json:"content"`
}

type AudioInputPayload struct {
	PromptName  string `json:"promptName"`
	ContentName string `json:"contentName"`
	Content     string `json:"content"` // base64 PCM16
}

// ContentEndPayload, like ContentStartPayload, covers the outbound close and
// the inbound echo.
type ContentEndPayload struct {
	PromptName  string `json:"promptName,omitempty"`
	ContentName string `json:"contentName,omitempty"`

	ContentID  string `json:"contentId,omitempty"`
	Type       string `json:"type,omitempty"`
	StopReason string `json:"stopReason,omitempty"`
}

type PromptEndPayload struct {
	PromptName string `json:"promptName"`
}

type SessionEndPayload struct{}

type TextOutputPayload struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	ContentID  string `json:"contentId"`
	Type       string `json:"type,omitempty"`
	StopReason string `json:"stopReason,omitempty"`
}

type AudioOutputPayload struct {
	Content   string `json:"content"` // base64 PCM16
	ContentID string `json:"contentId"`
}

type StreamStatusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type StreamRecoveryPayload struct {
	Message string `json:"message"`
}
