package audio

import (
	"sync"
	"testing"
)

// fakeDevice drives the pipeline by hand instead of from hardware.
type fakeDevice struct {
	mu       sync.Mutex
	callback func([]float32)
	stops    int
}

func (d *fakeDevice) Start(cb func([]float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callback = cb
	return nil
}

func (d *fakeDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
}

func (d *fakeDevice) push(window []float32) {
	d.mu.Lock()
	cb := d.callback
	d.mu.Unlock()
	if cb != nil {
		cb(window)
	}
}

func TestPipelineEmitsOnlyWhenGateOpen(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPipeline(dev, InputRate, nil)

	gateOpen := true
	var emitted []string
	err := p.Start(
		func() bool { return gateOpen },
		func(enc string) { emitted = append(emitted, enc) },
	)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	window := make([]float32, WindowSize)
	dev.push(window)
	gateOpen = false
	dev.push(window)

	if len(emitted) != 1 {
		t.Errorf("emitted %d frames, want 1", len(emitted))
	}
}

func TestPipelineDropsOversizedFrames(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPipeline(dev, InputRate, nil)

	var emitted int
	if err := p.Start(func() bool { return true }, func(string) { emitted++ }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	dev.push(make([]float32, 64*1024)) // would encode past the chunk ceiling
	if emitted != 0 {
		t.Errorf("oversized frame was emitted")
	}

	dev.push(make([]float32, WindowSize))
	if emitted != 1 {
		t.Errorf("normal frame after oversized one not emitted")
	}
}

func TestPipelineStopIdempotent(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPipeline(dev, InputRate, nil)
	if err := p.Start(func() bool { return true }, func(string) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	p.Stop()
	p.Stop()
	p.Stop()

	if dev.stops != 1 {
		t.Errorf("device stopped %d times, want 1", dev.stops)
	}
}

func TestPipelineStopBeforeStart(t *testing.T) {
	p := NewPipeline(&fakeDevice{}, InputRate, nil)
	p.Stop() // must not panic or touch the device
}

func TestPipelineDoubleStart(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPipeline(dev, InputRate, nil)
	if err := p.Start(func() bool { return true }, func(string) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(func() bool { return true }, func(string) {}); err == nil {
		t.Error("second Start should fail while running")
	}
}
