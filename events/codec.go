package events

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Encode marshals a message into its wire form.
func Encode(msg *Message) ([]byte, error) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", msg.Event.Tag(), err)
	}
	return data, nil
}

// Decode parses a wire message. Unknown event tags are not an error: the
// returned envelope simply reports an empty Tag and dispatch skips it.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &msg, nil
}

// IsInterruptionMarker reports whether an assistant textOutput content is
// the JSON interruption signal {"interrupted": true} the model emits when
// the user barges in.
func IsInterruptionMarker(content string) bool {
	if !strings.HasPrefix(content, "{") {
		return false
	}
	var marker struct {
		Interrupted bool `json:"interrupted"`
	}
	if err := sonic.UnmarshalString(content, &marker); err != nil {
		return false
	}
	return marker.Interrupted
}

// GenerationStage extracts the optional generation-stage hint from the
// stringified additionalModelFields of an inbound contentStart. Returns ""
// when absent or malformed.
func GenerationStage(additionalModelFields string) string {
	if additionalModelFields == "" {
		return ""
	}
	var fields struct {
		GenerationStage string `json:"generationStage"`
	}
	if err := sonic.UnmarshalString(additionalModelFields, &fields); err != nil {
		return ""
	}
	return fields.GenerationStage
}
