package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestValidateYAMLContent_ExampleIsValid(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(ExampleYAML()))
	if err != nil {
		t.Fatalf("example config must validate: %v", err)
	}
	if cfg.Cache.TTL != 10*time.Minute || cfg.Sync.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected durations: ttl=%s timeout=%s", cfg.Cache.TTL, cfg.Sync.RequestTimeout)
	}
	if cfg.Server.Port != 8080 || cfg.Import.MatrixDateLayout != "2006-01-02" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("blank timezone must resolve to UTC, got %v (%v)", loc, err)
	}
}

func TestValidateYAMLContent_DefaultsFillMissingKeys(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte("toggl:\n  api_token: \" abc \"\ntimezone: \"Asia/Seoul\"\n"))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Toggl.APIToken != "abc" {
		t.Fatalf("expected trimmed token, got %q", cfg.Toggl.APIToken)
	}
	if cfg.Toggl.BaseURL != "https://api.track.toggl.com" || cfg.Database.Path != "./timeboard.db" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Asia/Seoul" {
		t.Fatalf("unexpected location %v (%v)", loc, err)
	}
}

func TestValidateYAMLContent_Rejects(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"bad timezone":      "timezone: \"Mars/Olympus\"\n",
		"bad log level":     "log:\n  level: \"loud\"\n",
		"bad port":          "server:\n  port: 70000\n",
		"bad base url":      "tempo:\n  base_url: \"not a url\"\n",
		"jira without auth": "tempo:\n  jira_base_url: \"https://example.atlassian.net\"\n",
		"zero ttl":          "cache:\n  ttl: \"0s\"\n",
	}

	for name, content := range tests {
		if _, err := ValidateYAMLContent([]byte(content)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		} else if !strings.Contains(err.Error(), "validation failed") {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
	}
}

func TestBindEnv_OverridesNestedKeys(t *testing.T) {
	t.Setenv("TIMEBOARD_TEMPO_API_TOKEN", "from-env")
	t.Setenv("TIMEBOARD_SERVER_PORT", "9191")

	v := viper.New()
	setDefaults(v)
	BindEnv(v)

	cfg, err := loadAndValidateFromViper(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tempo.APIToken != "from-env" || cfg.Server.Port != 9191 {
		t.Fatalf("expected env overrides, got token=%q port=%d", cfg.Tempo.APIToken, cfg.Server.Port)
	}
}
