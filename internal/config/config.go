package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultEnv           = "local"
	defaultAddr          = "localhost:8080"
	defaultTimeout       = 4 * time.Second
	defaultIdleTimeout   = 60 * time.Second
	defaultFrappeURL     = "http://localhost:8000"
	defaultPageLength    = 20
	defaultFrappeTimeout = 30 * time.Second
	defaultMaxSessions   = 1024
	defaultCookieName    = "user_admin_session"
	defaultRetention     = 720 * time.Hour
)

type Config struct {
	Env      string   `yaml:"env"`
	DBURL    string   `yaml:"db_url"`
	Frappe   Frappe   `yaml:"frappe"`
	Sessions Sessions `yaml:"sessions"`
	Audit    Audit    `yaml:"audit"`

	HTTPServer `yaml:"http_server"`
}

type HTTPServer struct {
	Addr        string        `yaml:"addr"`
	Timeout     time.Duration `yaml:"timeout"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type Frappe struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	PageLength int    `yaml:"page_length"`
	// Timeout of nil means the default; an explicit 0 disables it.
	Timeout *time.Duration `yaml:"timeout"`
}

type Sessions struct {
	Max        int    `yaml:"max"`
	CookieName string `yaml:"cookie_name"`
}

type Audit struct {
	Retention time.Duration `yaml:"retention"`
}

func (f Frappe) RequestTimeout() time.Duration {
	if f.Timeout == nil {
		return defaultFrappeTimeout
	}
	return *f.Timeout
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	return config
}

func LoadConfig() (*Config, error) {
	configPath, ok := getConfigPath()
	if !ok {
		return nil, errors.New("config path is not set")
	}
	return LoadConfigFile(configPath)
}

func LoadConfigFile(configPath string) (*Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(configData)
}

// Parse decodes YAML config, applies defaults and the environment
// overrides.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if url := os.Getenv("FRAPPE_URL"); url != "" {
		config.Frappe.URL = url
	}
	config.applyDefaults()

	switch config.Env {
	case "local", "dev", "prod":
	default:
		return nil, fmt.Errorf("unknown env %q", config.Env)
	}
	if config.Frappe.PageLength < 0 {
		return nil, errors.New("frappe.page_length cannot be negative")
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = defaultEnv
	}
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.Frappe.URL == "" {
		c.Frappe.URL = defaultFrappeURL
	}
	if c.Frappe.PageLength == 0 {
		c.Frappe.PageLength = defaultPageLength
	}
	if c.Sessions.Max <= 0 {
		c.Sessions.Max = defaultMaxSessions
	}
	if c.Sessions.CookieName == "" {
		c.Sessions.CookieName = defaultCookieName
	}
	if c.Audit.Retention <= 0 {
		c.Audit.Retention = defaultRetention
	}
}

func getConfigPath() (configPath string, ok bool) {
	flag.StringVar(&configPath, "config_path", "", "path to config")
	flag.Parse()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	return configPath, configPath != ""
}
