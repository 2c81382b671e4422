package session

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/voicewire/voicewire/config"
)

// Without REDIS_URL the manager runs registry-free and purely delegates.
func TestManagerDelegatesLifecycle(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn)

	var (
		mu       sync.Mutex
		statuses []Status
	)
	s.OnStatus = func(st Status) {
		mu.Lock()
		statuses = append(statuses, st)
		mu.Unlock()
	}

	m := NewManager(&config.Config{VoiceID: "matthew"}, s, zap.NewNop().Sugar())
	defer m.Close()

	if m.Session() != s {
		t.Fatal("manager lost its session")
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "handshake", func() bool { return conn.sentCount() >= 6 })

	m.End()
	if s.Status() != StatusDisconnected {
		t.Errorf("status = %s", s.Status())
	}

	// The original status callback still fires through the manager's chain.
	mu.Lock()
	defer mu.Unlock()
	var sawActive, sawDisconnected bool
	for _, st := range statuses {
		switch st {
		case StatusActive:
			sawActive = true
		case StatusDisconnected:
			sawDisconnected = true
		}
	}
	if !sawActive || !sawDisconnected {
		t.Errorf("chained statuses = %v", statuses)
	}
}
