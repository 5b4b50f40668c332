package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath     string  `json:"db_path" yaml:"db_path"`
	Addr       string  `json:"addr" yaml:"addr"`
	PageSize   int     `json:"page_size" yaml:"page_size"`
	AuthSecret string  `json:"auth_secret" yaml:"auth_secret"`
	TokenTTL   string  `json:"token_ttl" yaml:"token_ttl"`
	ServerURL  string  `json:"server_url,omitempty" yaml:"server_url,omitempty"`
	Token      string  `json:"token,omitempty" yaml:"token,omitempty"`
	User       string  `json:"user,omitempty" yaml:"user,omitempty"`
	LogLevel   string  `json:"log_level" yaml:"log_level"`
	LogFormat  string  `json:"log_format" yaml:"log_format"`
	RateLimit  float64 `json:"rate_limit" yaml:"rate_limit"`
	RateBurst  int     `json:"rate_burst" yaml:"rate_burst"`
}

func Default() Config {
	return Config{
		Addr:      "127.0.0.1:8080",
		PageSize:  15,
		TokenTTL:  "720h",
		LogLevel:  "info",
		LogFormat: "auto",
		RateLimit: 20,
		RateBurst: 40,
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "listkeeper", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load reads path over the defaults. JSON files may carry comments and
// trailing commas; .yaml and .yml files are parsed as YAML. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func (c Config) Validate() error {
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if _, err := c.TTL(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "auto", "text", "json":
	default:
		return fmt.Errorf("log_format must be auto, text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c Config) TTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("token_ttl: %w", err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("token_ttl must be positive")
	}
	return ttl, nil
}
