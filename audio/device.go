package audio

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
)

// soxRawArgs builds the raw PCM16 mono format arguments shared by the sox
// subprocess devices.
func soxRawArgs(rate int) []string {
	return []string{
		"-t", "raw",
		"-r", fmt.Sprint(rate),
		"-b", "16",
		"-c", "1",
		"-e", "signed-integer",
	}
}

// SoxOpener opens speaker sinks backed by a sox subprocess (`sox ... -d`).
type SoxOpener struct {
	Log *zap.SugaredLogger
}

func (o *SoxOpener) logger() *zap.SugaredLogger {
	if o.Log == nil {
		return zap.NewNop().Sugar()
	}
	return o.Log
}

// OpenStream spawns sox and feeds it from an internal queue, so writes never
// block the caller and Clear can discard everything still queued.
func (o *SoxOpener) OpenStream(sampleRate int) (StreamSink, error) {
	stdin, cmd, err := spawnSoxPlayer(sampleRate)
	if err != nil {
		return nil, err
	}
	s := &soxStreamSink{
		stdin: stdin,
		cmd:   cmd,
		log:   o.logger(),
		queue: make(chan []byte, 256),
		done:  make(chan struct{}),
	}
	go s.pump()
	return s, nil
}

// OpenBuffered spawns sox and writes each buffer synchronously. Used when
// the streaming path is unavailable; scheduling granularity is whole
// buffers.
func (o *SoxOpener) OpenBuffered(sampleRate int) (OutputSink, error) {
	stdin, cmd, err := spawnSoxPlayer(sampleRate)
	if err != nil {
		return nil, err
	}
	return &soxBufferedSink{stdin: stdin, cmd: cmd}, nil
}

func spawnSoxPlayer(sampleRate int) (io.WriteCloser, *exec.Cmd, error) {
	args := append(soxRawArgs(sampleRate), "-", "-d")
	cmd := exec.Command("sox", args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("sox stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start sox (is sox installed?): %w", err)
	}
	return stdin, cmd, nil
}

type soxStreamSink struct {
	stdin io.WriteCloser
	cmd   *exec.Cmd
	log   *zap.SugaredLogger

	mu     sync.Mutex
	closed bool
	queue  chan []byte
	done   chan struct{}
}

func (s *soxStreamSink) pump() {
	for {
		select {
		case <-s.done:
			return
		case b := <-s.queue:
			if b == nil {
				continue
			}
			if _, err := s.stdin.Write(b); err != nil {
				s.log.Warnf("sox write: %v", err)
				return
			}
		}
	}
}

func (s *soxStreamSink) WritePCM(b []byte) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("sink closed")
	}
	select {
	case s.queue <- b:
		return nil
	default:
		// The device cannot keep up; dropping beats stalling the session.
		s.log.Warn("⚠️ speaker queue full, dropping frame")
		return nil
	}
}

// Clear discards every queued buffer. Audio already inside sox's own device
// buffer is beyond reach; the queue is sized so that window stays small.
func (s *soxStreamSink) Clear() {
	for {
		select {
		case <-s.queue:
		default:
			return
		}
	}
}

func (s *soxStreamSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Wait()
	}
	return nil
}

type soxBufferedSink struct {
	mu     sync.Mutex
	closed bool
	stdin  io.WriteCloser
	cmd    *exec.Cmd
}

func (s *soxBufferedSink) WritePCM(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sink closed")
	}
	_, err := s.stdin.Write(b)
	return err
}

func (s *soxBufferedSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Wait()
	}
	return nil
}

// SoxInput captures microphone audio through a `rec` subprocess, delivering
// fixed windows at the device rate. Echo cancellation, noise suppression and
// gain control ride on the OS input path; the options are kept for parity
// with the device contract.
type SoxInput struct {
	Rate    int
	Options CaptureOptions
	Log     *zap.SugaredLogger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stopped bool
}

func NewSoxInput(rate int, opts CaptureOptions, log *zap.SugaredLogger) *SoxInput {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SoxInput{Rate: rate, Options: opts, Log: log}
}

func (d *SoxInput) Start(callback func(window []float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cmd != nil {
		return fmt.Errorf("input device already started")
	}

	args := append(soxRawArgs(d.Rate), "-")
	cmd := exec.Command("rec", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("rec stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start rec (is sox installed?): %w", err)
	}
	d.cmd = cmd
	d.stopped = false

	go d.read(stdout, callback)
	return nil
}

func (d *SoxInput) read(r io.Reader, callback func([]float32)) {
	buf := make([]byte, WindowSize*2)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			d.mu.Lock()
			stopped := d.stopped
			d.mu.Unlock()
			if !stopped {
				d.Log.Warnf("microphone read ended: %v", err)
			}
			return
		}
		callback(Float32FromPCM16(DecodePCM16(buf)))
	}
}

// Stop releases the device. Idempotent.
func (d *SoxInput) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || d.cmd == nil {
		d.stopped = true
		return
	}
	d.stopped = true
	if d.cmd.Process != nil {
		d.cmd.Process.Kill()
		d.cmd.Wait()
	}
	d.cmd = nil
}

// FileInput replays a raw PCM or WAV file as if it were a microphone,
// pacing windows at real time. Useful for driving a session without audio
// hardware.
type FileInput struct {
	Path string
	Rate int
	Log  *zap.SugaredLogger

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

func NewFileInput(path string, rate int, log *zap.SugaredLogger) *FileInput {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FileInput{Path: path, Rate: rate, Log: log}
}

func (f *FileInput) Start(callback func(window []float32)) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("read audio file: %w", err)
	}
	// WAV files start with RIFF; skip the 44-byte standard header.
	if len(data) > 44 && string(data[0:4]) == "RIFF" {
		f.Log.Info("📁 detected WAV file, skipping header")
		data = data[44:]
	}

	f.mu.Lock()
	f.stopped = false
	f.done = make(chan struct{})
	done := f.done
	f.mu.Unlock()

	interval := time.Duration(WindowSize) * time.Second / time.Duration(f.Rate)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		samples := DecodePCM16(data)
		for off := 0; off < len(samples); off += WindowSize {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			end := off + WindowSize
			if end > len(samples) {
				end = len(samples)
			}
			callback(Float32FromPCM16(samples[off:end]))
		}
		f.Log.Info("📁 audio file exhausted")
	}()
	return nil
}

func (f *FileInput) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	f.stopped = true
	if f.done != nil {
		close(f.done)
	}
}
