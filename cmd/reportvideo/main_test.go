package main

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestGetEnvReturnsValueWhenSet(t *testing.T) {
	t.Setenv("TEST_GETENV_SET", "custom-value")

	if got := getEnv("TEST_GETENV_SET", "fallback"); got != "custom-value" {
		t.Errorf("expected %q, got %q", "custom-value", got)
	}
}

func TestGetEnvReturnsFallbackWhenEmpty(t *testing.T) {
	t.Setenv("TEST_GETENV_EMPTY", "")

	if got := getEnv("TEST_GETENV_EMPTY", "default-value"); got != "default-value" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestGetEnvInt64(t *testing.T) {
	t.Setenv("TEST_GETENV_INT", "42")
	t.Setenv("TEST_GETENV_INT_BAD", "forty-two")

	if got := getEnvInt64("TEST_GETENV_INT", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if got := getEnvInt64("TEST_GETENV_INT_BAD", 7); got != 7 {
		t.Errorf("expected fallback 7 for unparsable value, got %d", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 24 * time.Hour},
		{"2h", 2 * time.Hour},
		{"90m", 90 * time.Minute},
		{"soon", 24 * time.Hour},
		{"-1h", 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Setenv("TEST_GETENV_DURATION", tt.value)
		if got := getEnvDuration("TEST_GETENV_DURATION", 24*time.Hour); got != tt.want {
			t.Errorf("value %q: got %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{"", true, true},
		{"false", true, false},
		{"0", true, false},
		{"true", false, true},
		{"yes", false, false},
	}
	for _, tt := range tests {
		t.Setenv("TEST_GETENV_BOOL", tt.value)
		if got := getEnvBool("TEST_GETENV_BOOL", tt.fallback); got != tt.want {
			t.Errorf("value %q fallback %v: got %v, want %v", tt.value, tt.fallback, got, tt.want)
		}
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_GETENV_LIST", " post, video ,,page ")

	want := []string{"post", "video", "page"}
	if got := getEnvList("TEST_GETENV_LIST"); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := getEnvList("TEST_GETENV_LIST_UNSET"); got != nil {
		t.Errorf("expected nil for unset list, got %v", got)
	}
}

func TestReportConfigFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"REPORT_POST_TYPES", "REPORT_AUTO_APPEND", "REPORT_FIELD_PREFIX", "REPORT_RECIPIENT", "REPORT_FROM", "SITE_LANGUAGE"} {
		t.Setenv(key, "")
	}

	cfg := reportConfigFromEnv()
	if !reflect.DeepEqual(cfg.PostTypes, []string{"post"}) {
		t.Errorf("unexpected post types %v", cfg.PostTypes)
	}
	if !cfg.AutoAppend {
		t.Error("expected auto-append on by default")
	}
	if cfg.Prefix != "rbv" {
		t.Errorf("unexpected prefix %q", cfg.Prefix)
	}
	if cfg.Hooks.Recipient != nil || cfg.Hooks.From != nil {
		t.Error("expected no hooks without overrides")
	}
}

func TestReportConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("REPORT_POST_TYPES", "post,video")
	t.Setenv("REPORT_AUTO_APPEND", "false")
	t.Setenv("REPORT_FIELD_PREFIX", "bvr")
	t.Setenv("REPORT_RECIPIENT", "video-team@example.test")
	t.Setenv("REPORT_FROM", "Blog <noreply@example.test>")
	t.Setenv("SITE_NAME", "Example")

	cfg := reportConfigFromEnv()
	if !reflect.DeepEqual(cfg.PostTypes, []string{"post", "video"}) {
		t.Errorf("unexpected post types %v", cfg.PostTypes)
	}
	if cfg.AutoAppend {
		t.Error("expected auto-append off")
	}
	if cfg.Prefix != "bvr" {
		t.Errorf("unexpected prefix %q", cfg.Prefix)
	}
	if got := cfg.Hooks.Recipient("admin@example.test"); got != "video-team@example.test" {
		t.Errorf("recipient hook returned %q", got)
	}
	if got := cfg.Hooks.From("From: [RBV] Example <admin@example.test>"); got != "From: Blog <noreply@example.test>" {
		t.Errorf("from hook returned %q", got)
	}
}

func TestValidateReportConfig(t *testing.T) {
	cfg := reportConfigFromEnv()
	cfg.SiteName = "Example"
	cfg.AdminEmail = "admin@example.test"
	if msg := validateReportConfig(cfg); msg != "" {
		t.Errorf("expected valid config, got %q", msg)
	}

	cfg.AdminEmail = "not-an-address"
	if msg := validateReportConfig(cfg); !strings.HasPrefix(msg, "ADMIN_EMAIL") {
		t.Errorf("expected ADMIN_EMAIL error, got %q", msg)
	}

	cfg.AdminEmail = ""
	cfg.SiteName = strings.Repeat("x", 201)
	if msg := validateReportConfig(cfg); !strings.HasPrefix(msg, "SITE_NAME") {
		t.Errorf("expected SITE_NAME error, got %q", msg)
	}
}

func TestVideoBaseURL(t *testing.T) {
	if got := videoBaseURL("https://storage.example.com/", "videos"); got != "https://storage.example.com/videos" {
		t.Errorf("unexpected url %q", got)
	}
	if got := videoBaseURL("", "videos"); got != "" {
		t.Errorf("expected empty url without endpoint, got %q", got)
	}
}
