package events

// DefaultInferenceConfig is sent with every sessionStart.
var DefaultInferenceConfig = InferenceConfiguration{
	MaxTokens:   1024,
	TopP:        0.95,
	Temperature: 0.7,
}

// DefaultAudioInputConfig describes the fixed microphone format: 16 kHz
// PCM16 mono, base64 over the wire.
var DefaultAudioInputConfig = AudioInputConfiguration{
	MediaType:       "audio/lpcm",
	SampleRateHertz: 16000,
	SampleSizeBits:  16,
	ChannelCount:    1,
	AudioType:       "SPEECH",
	Encoding:        "base64",
}

// DefaultAudioOutputConfig describes the fixed playback format: 24 kHz
// PCM16 mono.
var DefaultAudioOutputConfig = AudioOutputConfiguration{
	MediaType:       "audio/lpcm",
	SampleRateHertz: 24000,
	SampleSizeBits:  16,
	ChannelCount:    1,
	VoiceID:         "matthew",
	Encoding:        "base64",
	AudioType:       "SPEECH",
}

// NewSessionStart builds the opening handshake event.
func NewSessionStart(cfg InferenceConfiguration) *Message {
	return &Message{Event: Envelope{SessionStart: &SessionStartPayload{
		InferenceConfiguration: cfg,
	}}}
}

// NewPromptStart opens the prompt container. toolCfg may be nil; when set,
// the tool-use output configuration is attached alongside it.
func NewPromptStart(promptName string, audioCfg AudioOutputConfiguration, toolCfg *ToolConfiguration) *Message {
	p := &PromptStartPayload{
		PromptName:               promptName,
		TextOutputConfiguration:  TextConfiguration{MediaType: "text/plain"},
		AudioOutputConfiguration: audioCfg,
	}
	if toolCfg != nil {
		p.ToolUseOutputConfiguration = &TextConfiguration{MediaType: "application/json"}
		p.ToolConfiguration = toolCfg
	}
	return &Message{Event: Envelope{PromptStart: p}}
}

// NewContentStartText opens a text sub-channel with the given role.
func NewContentStartText(promptName, contentName, role string) *Message {
	return &Message{Event: Envelope{ContentStart: &ContentStartPayload{
		PromptName:             promptName,
		ContentName:            contentName,
		Type:                   ContentTypeText,
		Interactive:            true,
		Role:                   role,
		TextInputConfiguration: &TextConfiguration{MediaType: "text/plain"},
	}}}
}

// NewContentStartAudio opens the live microphone sub-channel.
func NewContentStartAudio(promptName, contentName string) *Message {
	cfg := DefaultAudioInputConfig
	return &Message{Event: Envelope{ContentStart: &ContentStartPayload{
		PromptName:              promptName,
		ContentName:             contentName,
		Type:                    ContentTypeAudio,
		Interactive:             true,
		Role:                    RoleUser,
		AudioInputConfiguration: &cfg,
	}}}
}

// NewTextInput carries one text payload on an open text sub-channel.
func NewTextInput(promptName, contentName, content string) *Message {
	return &Message{Event: Envelope{TextInput: &TextInputPayload{
		PromptName:  promptName,
		ContentName: contentName,
		Content:     content,
	}}}
}

// NewAudioInput carries one base64 PCM16 frame on the audio sub-channel.
func NewAudioInput(promptName, contentName, content string) *Message {
	return &Message{Event: Envelope{AudioInput: &AudioInputPayload{
		PromptName:  promptName,
		ContentName: contentName,
		Content:     content,
	}}}
}

// NewContentEnd closes a sub-channel.
func NewContentEnd(promptName, contentName string) *Message {
	return &Message{Event: Envelope{ContentEnd: &ContentEndPayload{
		PromptName:  promptName,
		ContentName: contentName,
	}}}
}

// NewPromptEnd closes the prompt container.
func NewPromptEnd(promptName string) *Message {
	return &Message{Event: Envelope{PromptEnd: &PromptEndPayload{
		PromptName: promptName,
	}}}
}

// NewSessionEnd closes the session.
func NewSessionEnd() *Message {
	return &Message{Event: Envelope{SessionEnd: &SessionEndPayload{}}}
}
