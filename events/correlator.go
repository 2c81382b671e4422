package events

import (
	"fmt"
	"sync"
	"time"
)

// Direction marks which way an envelope traveled.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Group is one diagnostic entry: all envelopes sharing a derived key and
// direction, collapsed with a running count. Bursty events (audio chunks for
// one turn) show as a single group.
type Group struct {
	Key         string
	Name        string
	Direction   Direction
	Count       int
	Interrupted bool
	At          time.Time
	Last        *Message // most recent envelope, audio content truncated
}

// Correlator aggregates the raw event stream into display groups, newest
// first. One per session; Reset clears it for the next.
type Correlator struct {
	mu              sync.Mutex
	groups          []*Group
	audioInputIndex int
}

func NewCorrelator() *Correlator {
	return &Correlator{}
}

// Record folds one envelope into the group list and returns the affected
// group. Large audio payloads are truncated before being retained.
func (c *Correlator) Record(msg *Message, dir Direction) *Group {
	tag := msg.Event.Tag()
	if tag == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	key, interrupted := c.deriveKey(msg, tag, dir, now)
	display := truncateAudio(msg)

	for _, g := range c.groups {
		if g.Key == key && g.Direction == dir {
			g.Count++
			g.Last = display
			g.Interrupted = interrupted
			return g
		}
	}

	g := &Group{
		Key:         key,
		Name:        tag,
		Direction:   dir,
		Count:       1,
		Interrupted: interrupted,
		At:          now,
		Last:        display,
	}
	c.groups = append([]*Group{g}, c.groups...)
	return g
}

// Groups returns a snapshot of the current group list, most recent first.
func (c *Correlator) Groups() []*Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Group, len(c.groups))
	copy(out, c.groups)
	return out
}

// Reset drops all groups at the start of a new session.
func (c *Correlator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = nil
	c.audioInputIndex = 0
}

// deriveKey computes the tag-specific grouping key. Audio frames group by
// content identifier, content lifecycle events by (name, type) with
// outbound occurrences timestamped so distinct user turns stay distinct,
// and free-form events always by timestamp.
func (c *Correlator) deriveKey(msg *Message, tag string, dir Direction, now time.Time) (string, bool) {
	ts := now.UnixMilli()

	switch tag {
	case "audioOutput":
		return fmt.Sprintf("%s-%s", tag, msg.Event.AudioOutput.ContentID), false

	case "audioInput":
		return fmt.Sprintf("%s-%s-%d", tag, msg.Event.AudioInput.ContentName, c.audioInputIndex), false

	case "contentStart", "textInput", "contentEnd":
		name, contentType := lifecycleIdentity(msg, tag)
		if dir == DirectionIn && contentType == ContentTypeAudio {
			// A new inbound audio stream starts a fresh audioInput group.
			c.audioInputIndex++
		}
		if dir == DirectionOut {
			return fmt.Sprintf("%s-%s-%s-%d", tag, name, contentType, ts), false
		}
		return fmt.Sprintf("%s-%s-%s", tag, name, contentType), false

	case "textOutput":
		p := msg.Event.TextOutput
		interrupted := p.Role == RoleAssistant && IsInterruptionMarker(p.Content)
		return fmt.Sprintf("%s-%d", tag, ts), interrupted

	default:
		return fmt.Sprintf("%s-%d", tag, ts), false
	}
}

// lifecycleIdentity picks the naming fields of a content lifecycle event:
// outbound events carry contentName, inbound echoes carry contentId.
func lifecycleIdentity(msg *Message, tag string) (name, contentType string) {
	switch tag {
	case "contentStart":
		p := msg.Event.ContentStart
		name, contentType = p.ContentName, p.Type
		if name == "" {
			name = p.ContentID
		}
	case "contentEnd":
		p := msg.Event.ContentEnd
		name, contentType = p.ContentName, p.Type
		if name == "" {
			name = p.ContentID
		}
	case "textInput":
		name = msg.Event.TextInput.ContentName
	}
	return name, contentType
}

const audioDisplayLimit = 10

// truncateAudio returns a display copy with base64 audio content cut down,
// so retained diagnostics do not pin megabytes of payload.
func truncateAudio(msg *Message) *Message {
	switch {
	case msg.Event.AudioOutput != nil && len(msg.Event.AudioOutput.Content) > audioDisplayLimit:
		p := *msg.Event.AudioOutput
		p.Content = p.Content[:audioDisplayLimit] + "..."
		cp := *msg
		cp.Event.AudioOutput = &p
		return &cp
	case msg.Event.AudioInput != nil && len(msg.Event.AudioInput.Content) > audioDisplayLimit:
		p := *msg.Event.AudioInput
		p.Content = p.Content[:audioDisplayLimit] + "..."
		cp := *msg
		cp.Event.AudioInput = &p
		return &cp
	}
	return msg
}
