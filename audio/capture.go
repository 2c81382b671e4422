package audio

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// CaptureOptions mirror the device constraints requested when acquiring the
// microphone.
type CaptureOptions struct {
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// DefaultCaptureOptions enables the full voice processing chain.
var DefaultCaptureOptions = CaptureOptions{
	EchoCancellation: true,
	NoiseSuppression: true,
	AutoGainControl:  true,
}

// WindowSize is the fixed number of samples delivered per capture callback.
const WindowSize = 512

// InputDevice delivers live microphone audio in fixed-size float windows at
// the device's native rate. Start begins delivery; Stop releases the device
// and must be idempotent.
type InputDevice interface {
	Start(callback func(window []float32)) error
	Stop()
}

// Pipeline turns device windows into protocol-ready base64 frames while the
// owning session is active. The transform itself is pure (EncodeFrame); the
// pipeline adds the gate, the size guard, and device lifecycle.
type Pipeline struct {
	device  InputDevice
	srcRate int
	log     *zap.SugaredLogger

	mu      sync.Mutex
	running bool
}

// NewPipeline wraps an input device running at srcRate.
func NewPipeline(device InputDevice, srcRate int, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{device: device, srcRate: srcRate, log: log}
}

// Start acquires the device and begins emitting frames. gate is consulted
// per window; when it reports false the window is discarded without being
// encoded. emit receives each encoded frame in capture order.
func (p *Pipeline) Start(gate func() bool, emit func(encoded string)) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("capture pipeline already running")
	}
	p.running = true
	p.mu.Unlock()

	err := p.device.Start(func(window []float32) {
		if !gate() {
			return
		}
		encoded, err := EncodeFrame(window, p.srcRate)
		if err != nil {
			// Oversized frames are dropped, never sent.
			p.log.Warnf("⚠️ dropping capture frame: %v", err)
			return
		}
		emit(encoded)
	})
	if err != nil {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		return fmt.Errorf("start input device: %w", err)
	}

	p.log.Infof("🎤 capture pipeline started (%d Hz -> %d Hz)", p.srcRate, InputRate)
	return nil
}

// Stop disconnects the device. Safe to call when already stopped, and safe
// to call concurrently with in-flight capture callbacks.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.device.Stop()
	p.log.Info("🎤 capture pipeline stopped")
}
