package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "ws://localhost:8080" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.VoiceID != "matthew" {
		t.Errorf("VoiceID = %q", cfg.VoiceID)
	}
	if cfg.SystemPrompt != DefaultSystemPrompt {
		t.Error("SystemPrompt default not applied")
	}
	if cfg.CaptureRate != 48000 {
		t.Errorf("CaptureRate = %d", cfg.CaptureRate)
	}
}

func TestLoadRejectsUnknownVoice(t *testing.T) {
	t.Setenv("S2S_VOICE_ID", "nonexistent")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown voice")
	}
}

func TestLoadRejectsBadCaptureRate(t *testing.T) {
	t.Setenv("S2S_CAPTURE_RATE", "100")
	if _, err := Load(); err == nil {
		t.Error("expected error for sub-8kHz capture rate")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("S2S_SERVER_URL", "wss://example.com/s2s")
	t.Setenv("S2S_VOICE_ID", "amy")
	t.Setenv("S2S_SYSTEM_PROMPT", "be brief")
	t.Setenv("S2S_INCLUDE_CHAT_HISTORY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "wss://example.com/s2s" || cfg.VoiceID != "amy" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.SystemPrompt != "be brief" {
		t.Errorf("SystemPrompt = %q", cfg.SystemPrompt)
	}
	if !cfg.IncludeChatHistory {
		t.Error("IncludeChatHistory not parsed")
	}
}
