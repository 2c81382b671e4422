package session

import (
	"sync"

	"github.com/voicewire/voicewire/events"
)

// Turn is one logical utterance reconstructed from the event stream. Content
// holds the latest full text (each update replaces, never appends); Raw
// keeps the envelopes that produced it, for diagnostics.
type Turn struct {
	ContentID       string
	Role            string
	Content         string
	GenerationStage string
	StopReason      string
	Raw             []*events.Message
}

// turnStore owns the contentId -> Turn mapping. Turns are never deleted
// during a session; reset clears them when a new session starts. All
// mutation happens through the session's dispatch path.
type turnStore struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*Turn
}

func newTurnStore() *turnStore {
	return &turnStore{byID: make(map[string]*Turn)}
}

// start creates (or recreates) a turn on an inbound TEXT contentStart.
func (ts *turnStore) start(contentID, role, stage string, msg *events.Message) Turn {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, exists := ts.byID[contentID]; !exists {
		ts.order = append(ts.order, contentID)
	}
	t := &Turn{
		ContentID:       contentID,
		Role:            role,
		GenerationStage: stage,
		Raw:             []*events.Message{msg},
	}
	ts.byID[contentID] = t
	return *t
}

// setText replaces the turn's content wholesale. Unknown contentIds are a
// no-op: the update is tolerated, not fatal.
func (ts *turnStore) setText(contentID, role, content string, msg *events.Message) (Turn, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	t, exists := ts.byID[contentID]
	if !exists {
		return Turn{}, false
	}
	t.Content = content
	t.Role = role
	t.Raw = append(t.Raw, msg)
	return *t, true
}

// finish records the stop reason on an inbound TEXT contentEnd. Unknown
// contentIds are a no-op.
func (ts *turnStore) finish(contentID, stopReason string, msg *events.Message) (Turn, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	t, exists := ts.byID[contentID]
	if !exists {
		return Turn{}, false
	}
	t.StopReason = stopReason
	t.Raw = append(t.Raw, msg)
	return *t, true
}

// snapshot returns turns in creation order.
func (ts *turnStore) snapshot() []Turn {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	out := make([]Turn, 0, len(ts.order))
	for _, id := range ts.order {
		out = append(out, *ts.byID[id])
	}
	return out
}

func (ts *turnStore) reset() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.order = nil
	ts.byID = make(map[string]*Turn)
}
