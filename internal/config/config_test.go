package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{"OLLAMA_HOST", "OLLA_HOST", "OLLA_MODEL", "OLLA_TIMEOUT", "OLLA_TIMEOUT_SECONDS", "OLLA_MAX_STEPS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Host != DefaultHost || cfg.Model != DefaultModel || cfg.MaxSteps != DefaultMaxSteps || cfg.Timeout != DefaultTimeout {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := isolate(t)
	base := filepath.Join(dir, AppName)
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "model: qwen2.5\ntimeout: 30s\nmax_steps: 3\noutput_format: json\n"
	if err := os.WriteFile(filepath.Join(base, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OLLAMA_HOST", "gpu-box:11434")
	t.Setenv("OLLA_MODEL", "mistral")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "mistral" {
		t.Fatalf("expected env to override file, got %q", cfg.Model)
	}
	if cfg.Host != "gpu-box:11434" {
		t.Fatalf("expected OLLAMA_HOST, got %q", cfg.Host)
	}
	if cfg.Timeout != 30*time.Second || cfg.MaxSteps != 3 || !cfg.JSON {
		t.Fatalf("unexpected file values: %+v", cfg)
	}
}

func TestLoadFlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv("OLLA_MODEL", "mistral")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("model", DefaultModel, "")
	cmd.Flags().String("host", DefaultHost, "")
	cmd.Flags().String("timeout", DefaultTimeout.String(), "")
	if err := cmd.Flags().Parse([]string{"--model", "phi3", "--host", "https://ollama.internal", "--timeout", "5s"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "phi3" || cfg.Host != "https://ollama.internal" || cfg.Timeout != 5*time.Second {
		t.Fatalf("expected flags to win: %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	isolate(t)
	t.Setenv("OLLA_TIMEOUT", "soon")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected invalid timeout error")
	}

	isolate(t)
	t.Setenv("OLLA_HOST", "ftp://nope")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected invalid host error")
	}
}

func TestLoadTimeoutFlagBeatsSecondsEnv(t *testing.T) {
	isolate(t)
	t.Setenv("OLLA_TIMEOUT_SECONDS", "90")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timeout != 90*time.Second {
		t.Fatalf("expected env timeout, got %s", cfg.Timeout)
	}

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("timeout", DefaultTimeout.String(), "")
	if err := cmd.Flags().Parse([]string{"--timeout", "5s"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err = Load(cmd)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected flag to win, got %s", cfg.Timeout)
	}
}
