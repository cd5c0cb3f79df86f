package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestSaveDefaultConfigCreatesExampleTemplate(t *testing.T) {
	t.Cleanup(func() {
		cfgFile = ""
		viper.Reset()
	})

	tmpConfig := filepath.Join(t.TempDir(), "nested", "create-template.yaml")
	cfgFile = tmpConfig
	viper.Reset()

	if err := saveDefaultConfig(); err != nil {
		t.Fatalf("unexpected error creating config: %v", err)
	}

	content, err := os.ReadFile(tmpConfig)
	if err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	text := string(content)
	if !strings.Contains(text, "# timeboard configuration") {
		t.Fatalf("expected example header in config file, got:\n%s", text)
	}
	if !strings.Contains(text, "toggl:") || !strings.Contains(text, "base_url: \"https://api.tempo.io\"") {
		t.Fatalf("expected provider sections in config file, got:\n%s", text)
	}

	info, err := os.Stat(tmpConfig)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected config file mode 0600, got %o", info.Mode().Perm())
	}
}

func TestSaveDefaultConfigDoesNotOverwriteExistingFile(t *testing.T) {
	t.Cleanup(func() {
		cfgFile = ""
		viper.Reset()
	})

	tmpConfig := filepath.Join(t.TempDir(), "existing.yaml")
	original := "toggl:\n  api_token: \"secret\"\n"
	if err := os.WriteFile(tmpConfig, []byte(original), 0o644); err != nil {
		t.Fatalf("failed writing initial config: %v", err)
	}

	cfgFile = tmpConfig
	viper.Reset()

	if err := saveDefaultConfig(); err != nil {
		t.Fatalf("unexpected error creating config: %v", err)
	}

	content, err := os.ReadFile(tmpConfig)
	if err != nil {
		t.Fatalf("failed reading existing config after create: %v", err)
	}
	if string(content) != original {
		t.Fatalf("expected existing config to remain unchanged")
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Run("uses explicit flag first", func(t *testing.T) {
		got, err := resolveConfigPath("./custom.yaml", "/tmp/active.yaml")
		if err != nil || got != "./custom.yaml" {
			t.Fatalf("expected explicit config path, got %q (%v)", got, err)
		}
	})

	t.Run("uses active config when flag is empty", func(t *testing.T) {
		got, err := resolveConfigPath("", "/tmp/active.yaml")
		if err != nil || got != "/tmp/active.yaml" {
			t.Fatalf("expected active config path, got %q (%v)", got, err)
		}
	})

	t.Run("falls back to home config path", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		got, err := resolveConfigPath("", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := filepath.Join(home, ".timeboard.yaml"); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":                 "(not set)",
		"short":            "****",
		"0123456789abcdef": "****cdef",
	}
	for value, want := range tests {
		if got := maskSecret(value); got != want {
			t.Fatalf("maskSecret(%q) = %q, want %q", value, got, want)
		}
	}
}
