package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEFAULT_COURSE_ID", "3")
	t.Setenv("DEFAULT_SESSION_PERIOD_ID", "4")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultCourseID != 3 || cfg.DefaultSessionPeriodID != 4 {
		t.Fatalf("defaults = %d/%d, want 3/4", cfg.DefaultCourseID, cfg.DefaultSessionPeriodID)
	}
	if cfg.JWTTTL != 2*time.Hour {
		t.Fatalf("JWTTTL = %v", cfg.JWTTTL)
	}
	if cfg.RegistrationPrefix != "STU" {
		t.Fatalf("RegistrationPrefix = %q, want STU", cfg.RegistrationPrefix)
	}
	if cfg.Database.LogLevel != cfg.LogLevel {
		t.Fatal("database log level should follow LOG_LEVEL")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"DEFAULT_COURSE_ID":         "zero",
		"DEFAULT_SESSION_PERIOD_ID": "0",
		"JWT_TTL":                   "soon",
		"RATE_LIMIT_SUBMISSION":     "often",
		"REGISTRATION_PREFIX":       "  ",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestOrigins(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"https://a.test, https://b.test", []string{"https://a.test", "https://b.test"}},
		{"https://a.test,,", []string{"https://a.test"}},
		{"", []string{"http://localhost:3000"}},
	}

	for _, tc := range cases {
		got := (&Config{AllowedOrigins: tc.in}).Origins()
		if len(got) != len(tc.want) {
			t.Fatalf("Origins(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("Origins(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}
