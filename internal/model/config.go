package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServerConfig holds settings for the todo API server.
type ServerConfig struct {
	// Addr is the host:port the HTTP server listens on.
	Addr string `mapstructure:"addr" yaml:"addr"`

	// DBPath is the SQLite database file.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// AuthToken, when set, must be presented as a bearer token on every request.
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token"`
}

// ClientConfig holds settings shared by the three shells.
type ClientConfig struct {
	// Endpoint is the base URL of the todo API server.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Token is the bearer token sent to the server. Falls back to the keyring.
	Token string `mapstructure:"token" yaml:"token"`

	// RequestTimeoutSec bounds each remote call.
	RequestTimeoutSec int `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`

	// ReconnectDelaySec is the pause before re-opening a dropped live subscription.
	ReconnectDelaySec int `mapstructure:"reconnect_delay_sec" yaml:"reconnect_delay_sec"`

	// LogFile receives shell logs; empty discards them.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Client ClientConfig `mapstructure:"client" yaml:"client"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/todolist/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "todolist", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:   "localhost:8080",
			DBPath: "todos.db",
		},
		Client: ClientConfig{
			Endpoint:          "http://localhost:8080",
			RequestTimeoutSec: 10,
			ReconnectDelaySec: 2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	d := defaultAppConfig()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.db_path", d.Server.DBPath)
	v.SetDefault("server.auth_token", "")
	v.SetDefault("client.endpoint", d.Client.Endpoint)
	v.SetDefault("client.token", "")
	v.SetDefault("client.request_timeout_sec", d.Client.RequestTimeoutSec)
	v.SetDefault("client.reconnect_delay_sec", d.Client.ReconnectDelaySec)
	v.SetDefault("client.log_file", "")
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	// TODO_ENDPOINT, TODO_SERVER_ADDR, ...
	v.SetEnvPrefix("TODO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The endpoint is the one setting every shell needs, so it also
	// answers to the shorter TODO_ENDPOINT and TODO_TOKEN.
	_ = v.BindEnv("client.endpoint", "TODO_CLIENT_ENDPOINT", "TODO_ENDPOINT")
	_ = v.BindEnv("client.token", "TODO_CLIENT_TOKEN", "TODO_TOKEN")

	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// then layers TODO_* environment variables and any flags in bindings on top.
// bindings maps config keys (e.g. "client.endpoint") to flag names.
// If the file does not exist, defaults are used.
func LoadConfig(path string, flags *pflag.FlagSet, bindings map[string]string) (*AppConfig, error) {
	v := newViper()
	v.SetConfigFile(path)

	for key, name := range bindings {
		if flags == nil {
			break
		}
		f := flags.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("binding %s: no flag named %q", key, name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Client.RequestTimeoutSec <= 0 {
		cfg.Client.RequestTimeoutSec = 10
	}
	if cfg.Client.ReconnectDelaySec <= 0 {
		cfg.Client.ReconnectDelaySec = 2
	}
	cfg.Client.Endpoint = strings.TrimRight(cfg.Client.Endpoint, "/")

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. Tokens are never written; they
// belong in the keyring.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	server := cfg.Server
	server.AuthToken = ""
	client := cfg.Client
	client.Token = ""

	v.Set("server", server)
	v.Set("client", client)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
