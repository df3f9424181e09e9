package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SF_USERNAME", "ops@propensia.ai")
	t.Setenv("SF_PASSWORD", "secret")
	t.Setenv("SF_CLIENT_ID", "client")
	t.Setenv("SF_CLIENT_SECRET", "client-secret")
	t.Setenv("EMAIL_ENABLED", "false")
	t.Setenv("POLLER_EMBEDDED", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetPollInterval() != 5*time.Minute {
		t.Fatalf("expected 5m poll interval, got %s", cfg.GetPollInterval())
	}
	if cfg.GetPollErrorBackoff() != time.Minute {
		t.Fatalf("expected 1m error backoff, got %s", cfg.GetPollErrorBackoff())
	}
	if cfg.GetStaleAfterDays() != 7 {
		t.Fatalf("expected 7 stale days, got %d", cfg.GetStaleAfterDays())
	}
	if cfg.IsAIEnabled() {
		t.Fatalf("expected AI to be disabled without OPENAI_API_KEY")
	}
	if !cfg.UsesDevSecret() {
		t.Fatalf("expected development secret fallback")
	}
	if !cfg.IsPollerEmbedded() {
		t.Fatalf("expected the poller to run inside the web process by default")
	}
}

func TestLoadRequiresSalesforceCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SF_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when SF_PASSWORD is missing")
	}
}

func TestLoadLegacyTokenAndSenderFallbacks(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SF_SECURITY_TOKEN", "")
	t.Setenv("SF_TOKEN", "legacy-token")
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("SENDGRID_API_KEY", "sg-key")
	t.Setenv("EMAIL_FROM_ADDRESS", "")
	t.Setenv("SENDGRID_FROM_EMAIL", "sales@propensia.ai")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetSFSecurityToken() != "legacy-token" {
		t.Fatalf("expected SF_TOKEN fallback, got %q", cfg.GetSFSecurityToken())
	}
	if !cfg.GetEmailEnabled() {
		t.Fatalf("expected email to be enabled")
	}
	if cfg.GetEmailFromAddress() != "sales@propensia.ai" {
		t.Fatalf("expected SENDGRID_FROM_EMAIL fallback, got %q", cfg.GetEmailFromAddress())
	}
}

func TestLoadInvalidDurationsFallBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POLL_INTERVAL", "soon")
	t.Setenv("DRAFT_TTL", "-5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetPollInterval() != 5*time.Minute {
		t.Fatalf("expected fallback poll interval, got %s", cfg.GetPollInterval())
	}
	if cfg.GetDraftTTL() != time.Hour {
		t.Fatalf("expected fallback draft ttl, got %s", cfg.GetDraftTTL())
	}
}
