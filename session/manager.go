package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/voicewire/voicewire/config"
)

// Manager owns the single live session and mirrors its status into an
// optional redis registry so operators can see which clients are talking.
// Redis is strictly best effort: when it is unreachable the manager runs
// without it.
type Manager struct {
	cfg *config.Config
	log *zap.SugaredLogger

	rdb *redis.Client

	mu      sync.Mutex
	session *Session
	regKey  string
}

// NewManager wires the session into the registry. The session's status
// callback is chained so forced teardowns also clean up the registry entry.
func NewManager(cfg *config.Config, sess *Session, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	m := &Manager{cfg: cfg, log: log, session: sess}

	if cfg.RedisURL != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warnf("⚠️ redis unavailable, session registry disabled: %v", err)
			_ = client.Close()
		} else {
			m.rdb = client
			log.Info("📡 session registry connected")
		}
	}

	prev := sess.OnStatus
	sess.OnStatus = func(st Status) {
		if st == StatusDisconnected {
			m.deregister()
		}
		if prev != nil {
			prev(st)
		}
	}
	return m
}

// Session returns the managed session.
func (m *Manager) Session() *Session {
	return m.session
}

// Start begins the conversation and registers it.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.session.Start(ctx); err != nil {
		return err
	}
	m.register(ctx)
	return nil
}

// End stops the conversation. The registry entry is removed through the
// status callback.
func (m *Manager) End() {
	m.session.End()
}

// Close releases the registry connection.
func (m *Manager) Close() {
	m.mu.Lock()
	rdb := m.rdb
	m.rdb = nil
	m.mu.Unlock()

	if rdb != nil {
		_ = rdb.Close()
	}
}

func (m *Manager) register(ctx context.Context) {
	m.mu.Lock()
	rdb := m.rdb
	if rdb == nil {
		m.mu.Unlock()
		return
	}
	key := "s2s:session:" + uuid.New().String()
	m.regKey = key
	m.mu.Unlock()

	fields := map[string]any{
		"status":     string(StatusActive),
		"voice":      m.cfg.VoiceID,
		"started_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := rdb.HSet(ctx, key, fields).Err(); err != nil {
		m.log.Warnf("⚠️ registry write failed: %v", err)
		return
	}
	if err := rdb.Expire(ctx, key, 24*time.Hour).Err(); err != nil {
		m.log.Warnf("⚠️ registry expire failed: %v", err)
	}
}

func (m *Manager) deregister() {
	m.mu.Lock()
	rdb := m.rdb
	key := m.regKey
	m.regKey = ""
	m.mu.Unlock()

	if rdb == nil || key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Del(ctx, key).Err(); err != nil {
		m.log.Warnf("⚠️ registry cleanup failed: %v", err)
	}
}
