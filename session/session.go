package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voicewire/voicewire/audio"
	"github.com/voicewire/voicewire/events"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusConnecting   Status = "connecting"
	StatusActive       Status = "active"
	StatusDisconnected Status = "disconnected"
)

var (
	// ErrAlreadyStarted is returned by Start while a session is connecting
	// or active.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrNotActive is returned when audio is pushed outside the active
	// state.
	ErrNotActive = errors.New("session not active")
)

// Conn is the message-oriented transport under the session. *websocket.Conn
// satisfies it.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a Conn to the server.
type Dialer func(ctx context.Context, url string) (Conn, error)

// DefaultDialer dials over WebSocket.
func DefaultDialer(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Capture is the microphone pipeline as the session sees it.
// *audio.Pipeline satisfies it.
type Capture interface {
	Start(gate func() bool, emit func(encoded string)) error
	Stop()
}

// Options configures a Session.
type Options struct {
	ServerURL          string
	VoiceID            string
	SystemPrompt       string
	IncludeChatHistory bool
	WriteTimeout       time.Duration

	Dial    Dialer
	Capture Capture
	Player  audio.Player
	Log     *zap.SugaredLogger
}

// Session drives one voice conversation: it owns the transport, the
// handshake, inbound dispatch, and teardown. A Session may be started again
// after it disconnects; identifiers are minted fresh each time.
type Session struct {
	url            string
	voiceID        string
	systemPrompt   string
	includeHistory bool
	writeTimeout   time.Duration
	dismissDelay   time.Duration

	dial    Dialer
	capture Capture
	player  audio.Player
	log     *zap.SugaredLogger

	correlator *events.Correlator
	turns      *turnStore
	alerts     *notifier

	// UI callbacks. Set before Start; invoked from the session's
	// goroutines.
	OnTurnUpdate func(Turn)
	OnAlert      func(*Alert)
	OnGroup      func(*events.Group)
	OnStatus     func(Status)

	mu             sync.RWMutex
	status         Status
	closing        bool
	conn           Conn
	writeChan      chan []byte
	pumpDone       chan struct{}
	transportUp    bool
	promptID       string
	textContentID  string
	audioContentID string
	recvBytes      int
	startedAt      time.Time
}

// New builds an idle session from opts.
func New(opts Options) *Session {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	dial := opts.Dial
	if dial == nil {
		dial = DefaultDialer
	}
	wt := opts.WriteTimeout
	if wt <= 0 {
		wt = 10 * time.Second
	}
	s := &Session{
		url:            opts.ServerURL,
		voiceID:        opts.VoiceID,
		systemPrompt:   opts.SystemPrompt,
		includeHistory: opts.IncludeChatHistory,
		writeTimeout:   wt,
		dismissDelay:   successDismissDelay,
		dial:           dial,
		capture:        opts.Capture,
		player:         opts.Player,
		log:            log,
		correlator:     events.NewCorrelator(),
		turns:          newTurnStore(),
		status:         StatusIdle,
	}
	s.alerts = newNotifier(func(a *Alert) {
		if s.OnAlert != nil {
			s.OnAlert(a)
		}
	})
	return s
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Turns returns the reconstructed turns in creation order.
func (s *Session) Turns() []Turn {
	return s.turns.snapshot()
}

// Groups returns the diagnostic event groups, most recent first.
func (s *Session) Groups() []*events.Group {
	return s.correlator.Groups()
}

// Alert returns the current alert, or nil.
func (s *Session) Alert() *Alert {
	return s.alerts.get()
}

// DismissAlert clears the current alert.
func (s *Session) DismissAlert() {
	s.alerts.clear()
}

// Start connects, performs the opening handshake, and begins streaming.
// On any failure no partial session is left behind.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusConnecting || s.status == StatusActive {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.status = StatusConnecting
	s.closing = false
	s.promptID = uuid.New().String()
	s.textContentID = uuid.New().String()
	s.audioContentID = uuid.New().String()
	s.recvBytes = 0
	s.startedAt = time.Now()
	s.mu.Unlock()
	s.notifyStatus(StatusConnecting)

	s.turns.reset()
	s.correlator.Reset()
	s.alerts.clear()

	if err := s.player.Start(); err != nil {
		s.abortStart()
		return fmt.Errorf("start playback: %w", err)
	}

	conn, err := s.dial(ctx, s.url)
	if err != nil {
		s.player.Stop()
		s.abortStart()
		return fmt.Errorf("connect %s: %w", s.url, err)
	}

	ch := make(chan []byte, 256)
	done := make(chan struct{})
	s.mu.Lock()
	s.conn = conn
	s.writeChan = ch
	s.pumpDone = done
	s.transportUp = true
	s.mu.Unlock()
	go s.writePump(conn, ch, done)

	s.handshake()

	s.mu.Lock()
	s.status = StatusActive
	s.mu.Unlock()
	s.notifyStatus(StatusActive)

	if s.capture != nil {
		if err := s.capture.Start(s.captureGate, s.emitAudio); err != nil {
			s.teardown(true)
			return fmt.Errorf("start capture: %w", err)
		}
	}

	go s.readLoop(conn)

	s.log.Infof("✅ session active (prompt %s)", s.promptID)
	return nil
}

// End stops the conversation cleanly. Safe to call repeatedly and from any
// state; only the first call from an active session tears anything down.
func (s *Session) End() {
	s.teardown(true)
}

// abortStart rolls back a Start that failed before the transport existed.
func (s *Session) abortStart() {
	s.mu.Lock()
	s.status = StatusDisconnected
	s.promptID = ""
	s.textContentID = ""
	s.audioContentID = ""
	s.mu.Unlock()
	s.notifyStatus(StatusDisconnected)
}

func (s *Session) notifyStatus(st Status) {
	if s.OnStatus != nil {
		s.OnStatus(st)
	}
}

// handshake emits the fixed opening sequence: session, prompt with audio
// output and tool configuration, the system prompt on a text sub-channel,
// then the live audio sub-channel.
func (s *Session) handshake() {
	s.mu.RLock()
	promptID, textID, audioID := s.promptID, s.textContentID, s.audioContentID
	s.mu.RUnlock()

	audioCfg := events.DefaultAudioOutputConfig
	if s.voiceID != "" {
		audioCfg.VoiceID = s.voiceID
	}

	s.send(events.NewSessionStart(events.DefaultInferenceConfig))
	s.send(events.NewPromptStart(promptID, audioCfg, supervisorToolConfig()))
	s.send(events.NewContentStartText(promptID, textID, events.RoleSystem))
	s.send(events.NewTextInput(promptID, textID, s.systemPrompt))
	s.send(events.NewContentEnd(promptID, textID))
	// Chat history replay would slot in here when includeHistory is acted
	// on; the flag is accepted but inert for now.
	s.send(events.NewContentStartAudio(promptID, audioID))
}

// supervisorToolConfig declares the one tool the server may invoke: the
// supervisor agent that answers photo and memory queries.
func supervisorToolConfig() *events.ToolConfiguration {
	return &events.ToolConfiguration{Tools: []events.Tool{{
		ToolSpec: events.ToolSpec{
			Name:        "supervisorAgent",
			Description: "Routes photo and memory queries to the supervisor agent and returns its answer.",
			InputSchema: events.ToolInputSchema{
				JSON: `{"type":"object","properties":{"query":{"type":"string","description":"The user's photo or memory question"}},"required":["query"]}`,
			},
		},
	}}}
}

// send encodes and queues one outbound envelope. Best effort: when the
// transport is down or the queue is full the envelope is dropped with a log
// line.
func (s *Session) send(msg *events.Message) {
	data, err := events.Encode(msg)
	if err != nil {
		s.log.Errorf("encode %s: %v", msg.Event.Tag(), err)
		return
	}

	s.mu.RLock()
	if !s.transportUp || s.writeChan == nil {
		s.mu.RUnlock()
		return
	}
	select {
	case s.writeChan <- data:
	default:
		s.log.Warnf("⚠️ write queue full, dropping %s", msg.Event.Tag())
	}
	s.mu.RUnlock()

	s.record(msg, events.DirectionOut)
}

// writePump is the single writer on the connection. It drains the channel
// until it is closed, then sends the close frame.
func (s *Session) writePump(conn Conn, ch chan []byte, done chan struct{}) {
	defer close(done)

	for data := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.log.Warnf("⚠️ write failed: %v", err)
			for range ch {
				// Drain so teardown never blocks on a dead transport.
			}
			return
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		s.log.Debugf("close frame: %v", err)
	}
}

// captureGate admits microphone windows only while active.
func (s *Session) captureGate() bool {
	return s.Status() == StatusActive
}

// emitAudio forwards one encoded capture frame onto the audio sub-channel.
func (s *Session) emitAudio(encoded string) {
	s.mu.RLock()
	active := s.status == StatusActive
	promptID, contentID := s.promptID, s.audioContentID
	s.mu.RUnlock()

	if !active {
		return
	}
	s.send(events.NewAudioInput(promptID, contentID, encoded))
}

// SendAudioFrame pushes one pre-encoded base64 PCM16 frame. Only valid while
// the session is active.
func (s *Session) SendAudioFrame(encoded string) error {
	s.mu.RLock()
	active := s.status == StatusActive
	promptID, contentID := s.promptID, s.audioContentID
	s.mu.RUnlock()

	if !active {
		return ErrNotActive
	}
	s.send(events.NewAudioInput(promptID, contentID, encoded))
	return nil
}

// readLoop pulls inbound messages until the transport fails or is closed.
func (s *Session) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.RLock()
			expected := s.closing || s.status == StatusDisconnected
			s.mu.RUnlock()
			if expected {
				return
			}
			if a := classifyClose(err); a != nil {
				s.alerts.set(a)
			}
			s.teardown(false)
			return
		}

		msg, derr := events.Decode(data)
		if derr != nil {
			s.log.Warnf("⚠️ dropping malformed event: %v", derr)
			continue
		}
		s.dispatch(msg)
	}
}

// classifyClose maps a read error to a user-facing alert. A clean remote
// close produces none.
func classifyClose(err error) *Alert {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		switch ce.Code {
		case websocket.CloseNormalClosure:
			return nil
		case websocket.CloseNoStatusReceived:
			return &Alert{
				Type:          AlertWarning,
				Message:       "Connection lost unexpectedly. Please restart your conversation.",
				Dismissible:   true,
				OffersRestart: true,
			}
		default:
			return &Alert{
				Type:          AlertError,
				Message:       fmt.Sprintf("Connection closed abnormally (code %d). Please restart your conversation.", ce.Code),
				Dismissible:   true,
				OffersRestart: true,
			}
		}
	}
	return &Alert{
		Type:          AlertError,
		Message:       "WebSocket connection error. Please restart your conversation.",
		Dismissible:   true,
		OffersRestart: true,
	}
}

// dispatch routes one inbound envelope. Unknown tags are recorded for
// diagnostics and otherwise ignored.
func (s *Session) dispatch(msg *events.Message) {
	s.record(msg, events.DirectionIn)

	switch e := &msg.Event; e.Tag() {
	case "textOutput":
		s.handleTextOutput(msg, e.TextOutput)
	case "audioOutput":
		s.handleAudioOutput(e.AudioOutput)
	case "contentStart":
		if e.ContentStart.Type == events.ContentTypeText {
			stage := events.GenerationStage(e.ContentStart.AdditionalModelFields)
			t := s.turns.start(e.ContentStart.ContentID, e.ContentStart.Role, stage, msg)
			s.notifyTurn(t)
		}
	case "contentEnd":
		if e.ContentEnd.Type == events.ContentTypeText {
			if t, ok := s.turns.finish(e.ContentEnd.ContentID, e.ContentEnd.StopReason, msg); ok {
				s.notifyTurn(t)
			}
		}
	case "streamStatus":
		s.handleStreamStatus(e.StreamStatus)
	case "streamRecovery":
		s.log.Warnf("⚠️ stream recovery: %s", e.StreamRecovery.Message)
		s.alerts.set(&Alert{
			Type:          AlertWarning,
			Message:       e.StreamRecovery.Message + " Please restart your conversation.",
			Dismissible:   true,
			OffersRestart: true,
		})
		s.teardown(true)
	case "toolUse":
		s.log.Debugf("🔧 tool use event received")
	}
}

func (s *Session) handleTextOutput(msg *events.Message, p *events.TextOutputPayload) {
	if p.Role == events.RoleAssistant && events.IsInterruptionMarker(p.Content) {
		s.log.Info("🤫 interruption detected, clearing playback")
		s.player.BargeIn()
	}

	if t, ok := s.turns.setText(p.ContentID, p.Role, p.Content, msg); ok {
		s.notifyTurn(t)
	}
}

// handleAudioOutput enforces the chunk ceiling, advances the running receive
// counter, and hands decoded samples to the player.
func (s *Session) handleAudioOutput(p *events.AudioOutputPayload) {
	size := len(p.Content)
	if size > events.MaxChunkBytes {
		s.log.Warnf("⚠️ dropping oversized audio chunk (%d bytes)", size)
		return
	}

	s.mu.Lock()
	s.recvBytes += size
	if s.recvBytes > events.MaxBufferBytes {
		s.recvBytes = size
	}
	s.mu.Unlock()

	samples, err := audio.DecodeFrame(p.Content)
	if err != nil {
		s.log.Warnf("⚠️ dropping undecodable audio chunk: %v", err)
		return
	}
	if err := s.player.PlayAudio(samples); err != nil {
		s.log.Errorf("playback: %v", err)
	}
}

func (s *Session) handleStreamStatus(p *events.StreamStatusPayload) {
	switch p.Status {
	case events.StreamReconnecting:
		s.alerts.set(&Alert{Type: AlertInfo, Message: p.Message})

	case events.StreamConnected:
		// The server considers the prior stream finished; end locally and
		// offer a fresh start.
		s.alerts.set(&Alert{
			Type:          AlertSuccess,
			Message:       p.Message,
			Dismissible:   true,
			OffersRestart: true,
		})
		s.teardown(true)
		s.alerts.dismissAfter(s.dismissDelay)

	case events.StreamError:
		s.alerts.set(&Alert{
			Type:          AlertError,
			Message:       p.Message,
			Dismissible:   true,
			OffersRestart: true,
		})
		s.teardown(true)

	default:
		s.log.Warnf("⚠️ unknown stream status %q", p.Status)
	}
}

func (s *Session) notifyTurn(t Turn) {
	if s.OnTurnUpdate != nil {
		s.OnTurnUpdate(t)
	}
}

func (s *Session) record(msg *events.Message, dir events.Direction) {
	g := s.correlator.Record(msg, dir)
	if g != nil && s.OnGroup != nil {
		s.OnGroup(g)
	}
}

// teardown is the single exit path. Capture stops first so no frame chases a
// closing transport; the closing events go out best effort when the
// transport is still believed healthy; identifiers are cleared so stale
// frames can never attach to a future session.
func (s *Session) teardown(transportAlive bool) {
	s.mu.Lock()
	if s.closing || s.status == StatusIdle || s.status == StatusDisconnected {
		s.mu.Unlock()
		return
	}
	s.closing = true
	capture := s.capture
	s.mu.Unlock()

	if capture != nil {
		capture.Stop()
	}

	s.mu.Lock()
	s.transportUp = false
	ch := s.writeChan
	conn := s.conn
	pumpDone := s.pumpDone
	promptID, audioID := s.promptID, s.audioContentID
	elapsed := time.Since(s.startedAt)

	var closingSent []*events.Message
	if transportAlive && ch != nil && promptID != "" {
		for _, msg := range []*events.Message{
			events.NewContentEnd(promptID, audioID),
			events.NewPromptEnd(promptID),
			events.NewSessionEnd(),
		} {
			if data, err := events.Encode(msg); err == nil {
				select {
				case ch <- data:
					closingSent = append(closingSent, msg)
				default:
				}
			}
		}
	}
	if ch != nil {
		close(ch)
	}
	s.writeChan = nil
	s.pumpDone = nil
	s.conn = nil
	s.promptID = ""
	s.textContentID = ""
	s.audioContentID = ""
	s.recvBytes = 0
	s.status = StatusDisconnected
	s.mu.Unlock()

	for _, msg := range closingSent {
		s.record(msg, events.DirectionOut)
	}

	if pumpDone != nil {
		select {
		case <-pumpDone:
		case <-time.After(s.writeTimeout):
			s.log.Warn("⚠️ write pump did not drain in time")
		}
	}
	if conn != nil {
		_ = conn.Close()
	}
	if s.player != nil {
		s.player.Stop()
	}

	s.notifyStatus(StatusDisconnected)
	s.log.Infof("🔌 session ended after %s", elapsed.Round(time.Millisecond))
}
