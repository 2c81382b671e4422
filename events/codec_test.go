package events

import (
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := NewAudioInput("prompt-1", "audio-1", "AAECAwQ=")

	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := decoded.Event.Tag(); got != "audioInput" {
		t.Fatalf("tag = %q, want audioInput", got)
	}
	p := decoded.Event.AudioInput
	if p.PromptName != "prompt-1" || p.ContentName != "audio-1" || p.Content != "AAECAwQ=" {
		t.Errorf("payload = %+v", p)
	}
}

func TestDecodeUnknownTagIgnored(t *testing.T) {
	msg, err := Decode([]byte(`{"event":{"somethingNew":{"field":1}}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := msg.Event.Tag(); got != "" {
		t.Errorf("tag = %q, want empty for unknown event", got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte(`{"event":`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestHandshakeEnvelopeShapes(t *testing.T) {
	toolCfg := &ToolConfiguration{Tools: []Tool{{ToolSpec: ToolSpec{
		Name:        "supervisorAgent",
		Description: "Routes queries to specialized agents",
		InputSchema: ToolInputSchema{JSON: `{"type":"object"}`},
	}}}}

	tests := []struct {
		name string
		msg  *Message
		want []string
	}{
		{
			"sessionStart",
			NewSessionStart(DefaultInferenceConfig),
			[]string{`"sessionStart"`, `"maxTokens":1024`, `"topP":0.95`, `"temperature":0.7`},
		},
		{
			"promptStart with tools",
			NewPromptStart("p1", DefaultAudioOutputConfig, toolCfg),
			[]string{`"promptName":"p1"`, `"mediaType":"text/plain"`, `"voiceId":"matthew"`,
				`"sampleRateHertz":24000`, `"toolUseOutputConfiguration"`, `"supervisorAgent"`},
		},
		{
			"contentStart text system",
			NewContentStartText("p1", "c1", RoleSystem),
			[]string{`"type":"TEXT"`, `"role":"SYSTEM"`, `"interactive":true`, `"textInputConfiguration"`},
		},
		{
			"contentStart audio",
			NewContentStartAudio("p1", "c2"),
			[]string{`"type":"AUDIO"`, `"role":"USER"`, `"sampleRateHertz":16000`, `"encoding":"base64"`},
		},
		{
			"sessionEnd",
			NewSessionEnd(),
			[]string{`{"event":{"sessionEnd":{}}}`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(string(data), want) {
					t.Errorf("encoded %s missing %s in %s", tc.name, want, data)
				}
			}
		})
	}
}

func TestPromptStartWithoutTools(t *testing.T) {
	data, err := Encode(NewPromptStart("p1", DefaultAudioOutputConfig, nil))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(data), "toolConfiguration") {
		t.Errorf("toolConfiguration should be absent: %s", data)
	}
}

func TestIsInterruptionMarker(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{`{"interrupted":true}`, true},
		{`{"interrupted": true}`, true},
		{`{"interrupted":false}`, false},
		{`{"other":1}`, false},
		{`hello there`, false},
		{`{not json`, false},
		{``, false},
	}
	for _, tc := range tests {
		if got := IsInterruptionMarker(tc.content); got != tc.want {
			t.Errorf("IsInterruptionMarker(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}

func TestGenerationStage(t *testing.T) {
	tests := []struct {
		fields string
		want   string
	}{
		{`{"generationStage":"SPECULATIVE"}`, "SPECULATIVE"},
		{`{"generationStage":"FINAL","extra":1}`, "FINAL"},
		{`{}`, ""},
		{`not json`, ""},
		{``, ""},
	}
	for _, tc := range tests {
		if got := GenerationStage(tc.fields); got != tc.want {
			t.Errorf("GenerationStage(%q) = %q, want %q", tc.fields, got, tc.want)
		}
	}
}
