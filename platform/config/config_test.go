package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leadflow")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "http://localhost:4200, https://app.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetTxTimeout() != 5*time.Second {
		t.Fatalf("expected 5s tx timeout, got %s", cfg.GetTxTimeout())
	}
	if len(cfg.GetCORSOrigins()) != 2 {
		t.Fatalf("expected two CORS origins, got %v", cfg.GetCORSOrigins())
	}
	if cfg.IsMinIOEnabled() {
		t.Fatal("minio should be disabled without an endpoint")
	}
	if cfg.GetAsynqQueueName() != "default" {
		t.Fatalf("unexpected queue %q", cfg.GetAsynqQueueName())
	}
}

func TestLoadRejectsWildcardWithCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leadflow")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected wildcard CORS with credentials to be rejected")
	}
}

func TestLoadEmailRequiresSMTPHost(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leadflow")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("EMAIL_FROM_ADDRESS", "noreply@example.com")

	if _, err := Load(); err == nil {
		t.Fatal("expected enabled email without SMTP_HOST to be rejected")
	}

	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("APP_BASE_URL", "https://app.example.com/")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetAppBaseURL() != "https://app.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.GetAppBaseURL())
	}
	if cfg.GetSMTPPort() != 587 {
		t.Fatalf("expected default port 587, got %d", cfg.GetSMTPPort())
	}
}
