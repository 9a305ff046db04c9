package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures the target instance, filter rules, output files, and limits.
type Config struct {
	Instance    InstanceConfig    `yaml:"instance"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Filters     FiltersConfig     `yaml:"filters"`
	Files       FilesConfig       `yaml:"files"`
	Limits      LimitsConfig      `yaml:"limits"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type InstanceConfig struct {
	// Base URL of the Mastodon instance, e.g. https://mastodon.social
	BaseURL string `yaml:"baseUrl"`
}

type CredentialsConfig struct {
	// Access token. Never stored in the config file by default; read from
	// env MASTOGONE_TOKEN or prompted interactively.
	AccessToken string `yaml:"-"`
}

type FiltersConfig struct {
	// Statuses older than this many days are eligible.
	Days int `yaml:"days"`
	// Optional date range bounds (YYYY-MM-DD or RFC 3339).
	After  string `yaml:"after"`
	Before string `yaml:"before"`
	// Keyword or regex patterns; a status qualifies if it matches any.
	Match []string `yaml:"match"`
	// Interpret Match entries as regular expressions.
	Regex bool `yaml:"regex"`
	// Replies and reblogs are excluded unless enabled.
	IncludeReplies bool `yaml:"includeReplies"`
	IncludeReblogs bool `yaml:"includeReblogs"`
}

type FilesConfig struct {
	// Log file path; defaults depend on preview vs delete mode.
	Log string `yaml:"log"`
	// JSONL backup of deleted statuses.
	Backup string `yaml:"backup"`
}

type LimitsConfig struct {
	// Statuses fetched per page.
	PageSize int `yaml:"pageSize"`
	// Successful deletes before a cooldown pause.
	DeleteBatchSize int `yaml:"deleteBatchSize"`
	// Cooldown duration in minutes.
	CooldownMinutes int `yaml:"cooldownMinutes"`
}

type StorageConfig struct {
	// Optional SQLite purge archive. Empty disables it.
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	// Optional Prometheus listen address, e.g. ":9090". Empty disables it.
	Addr string `yaml:"addr"`
}

// Defaults mirrored from the upstream rate-limit behavior.
const (
	DefaultPageSize        = 40
	DefaultDeleteBatchSize = 30
	DefaultCooldownMinutes = 30

	DefaultPreviewLog = "preview_log.txt"
	DefaultDeleteLog  = "deleted_statuses_log.txt"
	DefaultBackup     = "deleted_statuses_backup.jsonl"
)

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Instance: InstanceConfig{BaseURL: ""},
		Filters: FiltersConfig{
			Days:           30,
			IncludeReplies: false,
			IncludeReblogs: false,
		},
		Files: FilesConfig{Log: "", Backup: ""},
		Limits: LimitsConfig{
			PageSize:        DefaultPageSize,
			DeleteBatchSize: DefaultDeleteBatchSize,
			CooldownMinutes: DefaultCooldownMinutes,
		},
		Storage: StorageConfig{DBPath: ""},
		Metrics: MetricsConfig{Addr: ""},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Credentials.AccessToken == "" {
		c.Credentials.AccessToken = os.Getenv("MASTOGONE_TOKEN")
	}
	if c.Instance.BaseURL == "" {
		c.Instance.BaseURL = os.Getenv("MASTOGONE_INSTANCE")
	}
}

// Normalize backfills zero-valued limits with defaults.
func (c *Config) Normalize() {
	if c.Limits.PageSize <= 0 {
		c.Limits.PageSize = DefaultPageSize
	}
	if c.Limits.DeleteBatchSize <= 0 {
		c.Limits.DeleteBatchSize = DefaultDeleteBatchSize
	}
	if c.Limits.CooldownMinutes <= 0 {
		c.Limits.CooldownMinutes = DefaultCooldownMinutes
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	cfg.Normalize()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
