package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// GraphConfig holds Microsoft Graph credentials and the target mailbox.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	UserID       string `yaml:"user_id"`
	BaseURL      string `yaml:"base_url"`
}

// MailConfig controls mailbox fetching.
type MailConfig struct {
	Folder     string `yaml:"folder"`
	FetchLimit int    `yaml:"fetch_limit"`
}

// TasksConfig identifies the target to-do list.
type TasksConfig struct {
	ListID string `yaml:"list_id"`
}

// ContactsConfig identifies the whitelist source. Exactly one of CSVPath
// or CSVInline must be set; inline text takes precedence.
type ContactsConfig struct {
	CSVPath   string `yaml:"csv_path"`
	CSVInline string `yaml:"csv_inline"`
}

// PollConfig controls the scheduler.
type PollConfig struct {
	IntervalSeconds     int `yaml:"interval_seconds"`
	CycleTimeoutSeconds int `yaml:"cycle_timeout_seconds"`
	MaxRetries          int `yaml:"max_retries"`
}

// ServerConfig controls the liveness HTTP server.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// StorageConfig controls local attachment persistence.
type StorageConfig struct {
	AttachmentDir string `yaml:"attachment_dir"`
}

type Config struct {
	Graph    GraphConfig    `yaml:"graph"`
	Mail     MailConfig     `yaml:"mail"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Contacts ContactsConfig `yaml:"contacts"`
	Poll     PollConfig     `yaml:"poll"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
}

// Load reads config.yaml (path overridable via CONFIG_PATH), applies
// defaults and environment overrides, and validates the result. Secrets
// may come from a .env file in the working directory.
func Load() (*Config, error) {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		// No config file: run on defaults plus environment.
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Graph.BaseURL == "" {
		cfg.Graph.BaseURL = "https://graph.microsoft.com/v1.0"
	}
	if cfg.Mail.Folder == "" {
		cfg.Mail.Folder = "inbox"
	}
	if cfg.Mail.FetchLimit <= 0 {
		cfg.Mail.FetchLimit = 10
	}
	if cfg.Poll.IntervalSeconds <= 0 {
		cfg.Poll.IntervalSeconds = 90
	}
	if cfg.Poll.CycleTimeoutSeconds <= 0 {
		cfg.Poll.CycleTimeoutSeconds = 60
	}
	if cfg.Poll.MaxRetries <= 0 {
		cfg.Poll.MaxRetries = 5
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Storage.AttachmentDir == "" {
		cfg.Storage.AttachmentDir = "attachments"
	}
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("GRAPH_TENANT_ID"); v != "" {
		cfg.Graph.TenantID = v
	}
	if v := os.Getenv("GRAPH_CLIENT_ID"); v != "" {
		cfg.Graph.ClientID = v
	}
	if v := os.Getenv("GRAPH_CLIENT_SECRET"); v != "" {
		cfg.Graph.ClientSecret = v
	}
	if v := os.Getenv("GRAPH_USER_ID"); v != "" {
		cfg.Graph.UserID = v
	}
	if v := os.Getenv("TASK_LIST_ID"); v != "" {
		cfg.Tasks.ListID = v
	}
	if v := os.Getenv("CONTACTS_CSV_PATH"); v != "" {
		cfg.Contacts.CSVPath = v
	}
	if v := os.Getenv("CONTACTS_CSV"); v != "" {
		cfg.Contacts.CSVInline = v
	}
	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poll.IntervalSeconds = n
		}
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("ATTACHMENT_DIR"); v != "" {
		cfg.Storage.AttachmentDir = v
	}
}

// Validate rejects configurations the service cannot safely run with.
// Missing credentials or a missing whitelist source is fatal at startup.
func (c *Config) Validate() error {
	if c.Graph.TenantID == "" || c.Graph.ClientID == "" || c.Graph.ClientSecret == "" {
		return fmt.Errorf("graph credentials incomplete: tenant_id, client_id and client_secret are required")
	}
	if c.Graph.UserID == "" {
		return fmt.Errorf("graph user_id is required")
	}
	if c.Tasks.ListID == "" {
		return fmt.Errorf("tasks list_id is required")
	}
	if c.Contacts.CSVPath == "" && c.Contacts.CSVInline == "" {
		return fmt.Errorf("contacts source missing: set csv_path or csv_inline")
	}
	return nil
}
