package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func clearClassifierKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("HUGGINGFACE_API_KEY", "")
	t.Setenv("CLASSIFIER_PROVIDER", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	clearClassifierKeyEnv(t)
	t.Setenv("TWITTER_BEARER_TOKEN", "")
	t.Setenv("SLACK_BOT_TOKEN", "")

	cfg := LoadConfig()

	if cfg.TargetHandle != "YourBankSupport" {
		t.Fatalf("unexpected target handle default: %q", cfg.TargetHandle)
	}
	if cfg.MaxPostsPerFetch != 20 {
		t.Fatalf("unexpected max posts default: %d", cfg.MaxPostsPerFetch)
	}
	if cfg.ConfidenceThreshold != 0.6 {
		t.Fatalf("unexpected threshold default: %f", cfg.ConfidenceThreshold)
	}
	if cfg.ClassifyTimeoutSeconds != 30 {
		t.Fatalf("unexpected classify timeout default: %d", cfg.ClassifyTimeoutSeconds)
	}
	if cfg.ClassifyWorkers != 1 {
		t.Fatalf("unexpected classify workers default: %d", cfg.ClassifyWorkers)
	}
	if cfg.DBPath != "./tickets.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.TicketPrefix != "TKT" {
		t.Fatalf("unexpected ticket prefix default: %q", cfg.TicketPrefix)
	}
	if cfg.LanguageCode != "en" || cfg.SourceChannel != "twitter" {
		t.Fatalf("unexpected language/channel defaults: %q %q", cfg.LanguageCode, cfg.SourceChannel)
	}
	if cfg.ExternalHTTPTimeoutSeconds != int(defaultExternalHTTPTimeout/time.Second) {
		t.Fatalf("unexpected external HTTP timeout default: %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	// No API keys configured: provider falls back to the keyword backend.
	if cfg.ClassifierProvider != "keyword" {
		t.Fatalf("unexpected provider fallback: %q", cfg.ClassifierProvider)
	}
}

func TestLoadConfigProviderAutoPick(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	clearClassifierKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg := LoadConfig()
	if cfg.ClassifierProvider != "anthropic" {
		t.Fatalf("expected anthropic provider with key present, got %q", cfg.ClassifierProvider)
	}

	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("HUGGINGFACE_API_KEY", "hf-test")
	cfg = LoadConfig()
	if cfg.ClassifierProvider != "huggingface" {
		t.Fatalf("expected huggingface provider with key present, got %q", cfg.ClassifierProvider)
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
twitter_bearer_token: "yaml-bearer"
target_handle: "YamlBank"
max_posts_per_fetch: 50
classifier_provider: "keyword"
confidence_threshold: 0.7
db_path: "/tmp/yaml-tickets.db"
ticket_prefix: "YML"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_PATH", cfgPath)
	clearClassifierKeyEnv(t)
	t.Setenv("CLASSIFIER_PROVIDER", "keyword")
	t.Setenv("TARGET_HANDLE", "EnvBank")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.8")
	t.Setenv("EXTERNAL_HTTP_TIMEOUT_SECONDS", "120")
	t.Setenv("TWITTER_BEARER_TOKEN", "")
	t.Setenv("SLACK_BOT_TOKEN", "")

	cfg := LoadConfig()

	if cfg.TargetHandle != "EnvBank" {
		t.Fatalf("expected handle from env override, got %q", cfg.TargetHandle)
	}
	if cfg.ConfidenceThreshold != 0.8 {
		t.Fatalf("expected threshold from env override, got %f", cfg.ConfidenceThreshold)
	}
	if cfg.TwitterBearerToken != "yaml-bearer" {
		t.Fatalf("expected bearer token from yaml, got %q", cfg.TwitterBearerToken)
	}
	if cfg.MaxPostsPerFetch != 50 {
		t.Fatalf("expected max posts from yaml, got %d", cfg.MaxPostsPerFetch)
	}
	if cfg.DBPath != "/tmp/yaml-tickets.db" || cfg.TicketPrefix != "YML" {
		t.Fatalf("expected db path and prefix from yaml, got %q %q", cfg.DBPath, cfg.TicketPrefix)
	}
	if cfg.ExternalHTTPTimeoutSeconds != 120 {
		t.Fatalf("expected external HTTP timeout from env override, got %d", cfg.ExternalHTTPTimeoutSeconds)
	}
}

func TestEnvOverrideHelpers(t *testing.T) {
	s := "initial"
	t.Setenv("TTC_TEST_STR", "value")
	envOverride(&s, "TTC_TEST_STR")
	if s != "value" {
		t.Fatalf("envOverride failed, got %q", s)
	}

	i := 1
	t.Setenv("TTC_TEST_INT", "42")
	envOverrideInt(&i, "TTC_TEST_INT")
	if i != 42 {
		t.Fatalf("envOverrideInt failed, got %d", i)
	}

	f := 0.1
	t.Setenv("TTC_TEST_FLOAT", "0.75")
	envOverrideFloat(&f, "TTC_TEST_FLOAT")
	if f != 0.75 {
		t.Fatalf("envOverrideFloat failed, got %f", f)
	}
}

func TestLoadConfigInvalidThresholdFatal(t *testing.T) {
	if os.Getenv("TEST_INVALID_THRESHOLD_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("CLASSIFIER_PROVIDER", "keyword")
		_ = os.Setenv("CONFIDENCE_THRESHOLD", "1.5")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigInvalidThresholdFatal")
	cmd.Env = append(os.Environ(), "TEST_INVALID_THRESHOLD_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}
