package audio

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrNotStarted is reported when PlayAudio is called before Start has
// completed (or after Stop).
var ErrNotStarted = errors.New("audio player not started")

// OutputSink receives rendered PCM16 little-endian bytes at the playback
// rate.
type OutputSink interface {
	WritePCM(b []byte) error
	Close() error
}

// StreamSink is a low-latency render graph: it buffers pushed samples
// internally and can discard everything queued or in flight on Clear.
type StreamSink interface {
	OutputSink
	Clear()
}

// SinkOpener acquires output sinks. OpenStream yields the streaming render
// graph; OpenBuffered yields the degraded whole-buffer fallback used when
// streaming is unavailable.
type SinkOpener interface {
	OpenStream(sampleRate int) (StreamSink, error)
	OpenBuffered(sampleRate int) (OutputSink, error)
}

// Player renders inbound audio frames and supports immediate cancellation.
type Player interface {
	// Start lazily initializes the output graph. Idempotent.
	Start() error
	// PlayAudio enqueues decoded samples for rendering. Calling before
	// Start (or after Stop) is an error.
	PlayAudio(samples []float32) error
	// BargeIn discards all queued and in-flight audio immediately. No-op
	// when nothing is queued or the player is not started.
	BargeIn()
	// Stop releases the output graph. Idempotent.
	Stop()
}

// renderer is one playback strategy. The engine picks exactly one at Start
// and never branches per call afterwards.
type renderer interface {
	play(samples []float32) error
	bargeIn()
	stop()
}

// Engine implements Player over a SinkOpener, preferring the streaming
// renderer and degrading to buffered playback when streaming init fails.
type Engine struct {
	opener SinkOpener
	log    *zap.SugaredLogger

	mu   sync.Mutex
	impl renderer
}

// NewEngine builds an unstarted playback engine.
func NewEngine(opener SinkOpener, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{opener: opener, log: log}
}

func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.impl != nil {
		return nil
	}

	stream, err := e.opener.OpenStream(PlaybackRate)
	if err == nil {
		e.impl = &streamRenderer{sink: stream, log: e.log}
		e.log.Infof("🔊 playback engine started (streaming, %d Hz)", PlaybackRate)
		return nil
	}

	e.log.Warnf("⚠️ streaming playback unavailable, falling back to buffered mode: %v", err)
	buffered, err := e.opener.OpenBuffered(PlaybackRate)
	if err != nil {
		return fmt.Errorf("open playback sink: %w", err)
	}
	e.impl = &bufferRenderer{sink: buffered, log: e.log}
	e.log.Infof("🔊 playback engine started (buffered fallback, %d Hz)", PlaybackRate)
	return nil
}

func (e *Engine) PlayAudio(samples []float32) error {
	e.mu.Lock()
	impl := e.impl
	e.mu.Unlock()

	if impl == nil {
		return ErrNotStarted
	}
	return impl.play(samples)
}

func (e *Engine) BargeIn() {
	e.mu.Lock()
	impl := e.impl
	e.mu.Unlock()

	if impl != nil {
		impl.bargeIn()
	}
}

func (e *Engine) Stop() {
	e.mu.Lock()
	impl := e.impl
	e.impl = nil
	e.mu.Unlock()

	if impl != nil {
		impl.stop()
	}
}

// streamRenderer forwards samples straight into the render graph, which
// owns the buffering. Barge-in forwards Clear before any later write, so it
// is a hard preemption point rather than a request queued behind audio.
type streamRenderer struct {
	sink StreamSink
	log  *zap.SugaredLogger
	once sync.Once
}

func (r *streamRenderer) play(samples []float32) error {
	pcm := PCM16Bytes(QuantizePCM16(samples))
	if err := r.sink.WritePCM(pcm); err != nil {
		return fmt.Errorf("streaming playback write: %w", err)
	}
	return nil
}

func (r *streamRenderer) bargeIn() {
	r.sink.Clear()
}

func (r *streamRenderer) stop() {
	r.once.Do(func() {
		if err := r.sink.Close(); err != nil {
			r.log.Warnf("playback sink close: %v", err)
		}
	})
}

// bufferRenderer is the fallback mode: each frame is scheduled as one whole
// buffer write. Interactivity is reduced; barge-in cannot reach into
// buffers already handed over.
type bufferRenderer struct {
	sink OutputSink
	log  *zap.SugaredLogger
	once sync.Once
}

func (r *bufferRenderer) play(samples []float32) error {
	pcm := PCM16Bytes(QuantizePCM16(samples))
	if err := r.sink.WritePCM(pcm); err != nil {
		return fmt.Errorf("buffered playback write: %w", err)
	}
	return nil
}

func (r *bufferRenderer) bargeIn() {
	r.log.Debug("barge-in called (buffered mode)")
}

func (r *bufferRenderer) stop() {
	r.once.Do(func() {
		if err := r.sink.Close(); err != nil {
			r.log.Warnf("playback sink close: %v", err)
		}
	})
}
