package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "3000" || cfg.PushAddr != ":3001" || cfg.MongoDatabase != "pitchreview" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.NotificationRetention != 2160*time.Hour || cfg.NotificationListLimit != 200 {
		t.Errorf("retention defaults: %v / %d", cfg.NotificationRetention, cfg.NotificationListLimit)
	}
	if cfg.PushWorkers != 8 || cfg.PushTimeout != 10*time.Second {
		t.Errorf("push defaults: %d / %v", cfg.PushWorkers, cfg.PushTimeout)
	}
	if cfg.JWTSecret == "" {
		t.Error("development should fall back to a secret")
	}
	if cfg.AllowedOrigins() != nil {
		t.Errorf("origins = %v", cfg.AllowedOrigins())
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "8080")
	t.Setenv("NOTIFICATION_RETENTION", "24h")
	t.Setenv("NOTIFICATION_LIST_LIMIT", "50")
	t.Setenv("PUSH_WORKERS", "2")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.NotificationRetention != 24*time.Hour || cfg.NotificationListLimit != 50 || cfg.PushWorkers != 2 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if got := cfg.AllowedOrigins(); len(got) != 2 || got[1] != "https://b.example" {
		t.Errorf("origins = %v", got)
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"secret outside development", map[string]string{"APP_ENV": "production", "JWT_SECRET": ""}, "JWT_SECRET"},
		{"bad duration", map[string]string{"PUSH_TIMEOUT": "soon"}, "PUSH_TIMEOUT"},
		{"bad integer", map[string]string{"PUSH_WORKERS": "many"}, "PUSH_WORKERS"},
		{"zero workers", map[string]string{"PUSH_WORKERS": "0"}, "PUSH_WORKERS"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error mentioning %s", err, tt.want)
			}
		})
	}
}
