package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"timeboard/internal/timeutil"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "TIMEBOARD"

	KeyDatabasePath           = "database.path"
	KeyCacheDir               = "cache.dir"
	KeyCacheTTL               = "cache.ttl"
	KeyServerPort             = "server.port"
	KeyTimezone               = "timezone"
	KeySyncRequestTimeout     = "sync.request_timeout"
	KeyTogglAPIToken          = "toggl.api_token"
	KeyTogglBaseURL           = "toggl.base_url"
	KeyTempoAPIToken          = "tempo.api_token"
	KeyTempoBaseURL           = "tempo.base_url"
	KeyTempoJiraBaseURL       = "tempo.jira_base_url"
	KeyTempoJiraEmail         = "tempo.jira_email"
	KeyTempoJiraAPIToken      = "tempo.jira_api_token"
	KeyImportMatrixDateLayout = "import.matrix_date_layout"
	KeyLogLevel               = "log.level"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Timezone string         `mapstructure:"timezone" validate:"omitempty,timezone"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Toggl    TogglConfig    `mapstructure:"toggl"`
	Tempo    TempoConfig    `mapstructure:"tempo"`
	Import   ImportConfig   `mapstructure:"import"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type CacheConfig struct {
	Dir string        `mapstructure:"dir" validate:"required"`
	TTL time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type SyncConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

type TogglConfig struct {
	APIToken string `mapstructure:"api_token"`
	BaseURL  string `mapstructure:"base_url" validate:"required,url"`
}

type TempoConfig struct {
	APIToken     string `mapstructure:"api_token"`
	BaseURL      string `mapstructure:"base_url" validate:"required,url"`
	JiraBaseURL  string `mapstructure:"jira_base_url" validate:"omitempty,url"`
	JiraEmail    string `mapstructure:"jira_email" validate:"omitempty,email"`
	JiraAPIToken string `mapstructure:"jira_api_token"`
}

type ImportConfig struct {
	MatrixDateLayout string `mapstructure:"matrix_date_layout" validate:"required"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
}

// Location resolves Timezone; blank means UTC.
func (c Config) Location() (*time.Location, error) {
	return timeutil.LoadLocation(c.Timezone)
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// BindEnv maps TIMEBOARD_<SECTION>_<KEY> environment variables onto config keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# timeboard configuration
database:
  path: "./timeboard.db"

cache:
  dir: "` + defaultCacheDir() + `"
  ttl: "10m"

server:
  port: 8080

# IANA zone used to read wall-clock dates in imported files; blank means UTC.
timezone: ""

sync:
  request_timeout: "30s"

toggl:
  api_token: ""
  base_url: "https://api.track.toggl.com"

tempo:
  api_token: ""
  base_url: "https://api.tempo.io"
  # Optional Jira lookup of issue keys and project names.
  jira_base_url: ""
  jira_email: ""
  jira_api_token: ""

import:
  matrix_date_layout: "2006-01-02"

log:
  level: "info"
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Toggl.APIToken = strings.TrimSpace(cfg.Toggl.APIToken)
	cfg.Tempo.APIToken = strings.TrimSpace(cfg.Tempo.APIToken)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateJira(cfg.Tempo); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, "./timeboard.db")
	v.SetDefault(KeyCacheDir, defaultCacheDir())
	v.SetDefault(KeyCacheTTL, "10m")
	v.SetDefault(KeyServerPort, 8080)
	v.SetDefault(KeyTimezone, "")
	v.SetDefault(KeySyncRequestTimeout, "30s")
	v.SetDefault(KeyTogglAPIToken, "")
	v.SetDefault(KeyTogglBaseURL, "https://api.track.toggl.com")
	v.SetDefault(KeyTempoAPIToken, "")
	v.SetDefault(KeyTempoBaseURL, "https://api.tempo.io")
	v.SetDefault(KeyTempoJiraBaseURL, "")
	v.SetDefault(KeyTempoJiraEmail, "")
	v.SetDefault(KeyTempoJiraAPIToken, "")
	v.SetDefault(KeyImportMatrixDateLayout, "2006-01-02")
	v.SetDefault(KeyLogLevel, "info")
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", ".timeboard", "cache")
	}
	return filepath.Join(home, ".timeboard", "cache")
}

func validateJira(tempo TempoConfig) error {
	if strings.TrimSpace(tempo.JiraBaseURL) == "" {
		return nil
	}
	if strings.TrimSpace(tempo.JiraEmail) == "" || strings.TrimSpace(tempo.JiraAPIToken) == "" {
		return fmt.Errorf("validation failed: tempo.jira_base_url requires tempo.jira_email and tempo.jira_api_token")
	}
	return nil
}
