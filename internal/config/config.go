// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultRPCURL      = "https://mainnet.helius-rpc.com/"
	DefaultMetadataURL = "https://api.helius.xyz/v0/token-metadata"
	DefaultHolderQuery = "program-accounts-v2"
	DefaultRPCTimeout  = 30 * time.Second
	DefaultHTTPAddr    = ":8080"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	DefaultWatchDelay  = 15 * time.Second
)

// Config is the service configuration. Every field is bound to the
// upper-cased mapstructure key as an environment variable.
type Config struct {
	RPCURL        string        `mapstructure:"rpc_url" validate:"required,url"`
	HeliusAPIKey  string        `mapstructure:"helius_api_key"`
	MetadataURL   string        `mapstructure:"metadata_url" validate:"required,url"`
	HolderQuery   string        `mapstructure:"holder_query" validate:"oneof=program-accounts-v2 program-accounts largest-accounts"`
	LinkHolders   int           `mapstructure:"link_holders" validate:"min=0,max=100"`
	RPCTimeout    time.Duration `mapstructure:"rpc_timeout" validate:"min=0"`
	HTTPAddr      string        `mapstructure:"http_addr" validate:"required"`
	PostgresDSN   string        `mapstructure:"postgres_dsn" validate:"omitempty,url"`
	ClickHouseDSN string        `mapstructure:"clickhouse_dsn" validate:"omitempty,url"`
	StateDir      string        `mapstructure:"state_dir"`
	LogLevel      string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat     string        `mapstructure:"log_format" validate:"oneof=console json"`
	WatchToken    bool          `mapstructure:"watch_token"`
	WSURL         string        `mapstructure:"ws_url" validate:"omitempty,url"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce" validate:"min=0"`
}

var defaults = map[string]interface{}{
	"rpc_url":        DefaultRPCURL,
	"helius_api_key": "",
	"metadata_url":   DefaultMetadataURL,
	"holder_query":   DefaultHolderQuery,
	"link_holders":   0,
	"rpc_timeout":    DefaultRPCTimeout,
	"http_addr":      DefaultHTTPAddr,
	"postgres_dsn":   "",
	"clickhouse_dsn": "",
	"state_dir":      "",
	"log_level":      DefaultLogLevel,
	"log_format":     DefaultLogFormat,
	"watch_token":    false,
	"ws_url":         "",
	"watch_debounce": DefaultWatchDelay,
}

// Load reads the given dotenv files (".env" when none are given), then the
// environment, applies defaults and validates the result.
// Variables already present in the environment take precedence over dotenv files.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotenv(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotenv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err == nil {
			continue
		}
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return fmt.Errorf("load %s: %w", f, err)
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// RPCEndpoint returns the JSON-RPC URL with the API key appended.
func (c *Config) RPCEndpoint() string {
	return withAPIKey(c.RPCURL, c.HeliusAPIKey)
}

// MetadataEndpoint returns the token-metadata URL with the API key appended.
func (c *Config) MetadataEndpoint() string {
	return withAPIKey(c.MetadataURL, c.HeliusAPIKey)
}

// WSEndpoint returns the websocket URL with the API key appended, or "" when
// WS_URL is unset and the URL should be derived from the RPC endpoint.
func (c *Config) WSEndpoint() string {
	if c.WSURL == "" {
		return ""
	}
	return withAPIKey(c.WSURL, c.HeliusAPIKey)
}

func withAPIKey(raw, key string) string {
	if key == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("api-key", key)
	u.RawQuery = q.Encode()
	return u.String()
}

// Redacted returns a copy safe for logging.
func (c *Config) Redacted() Config {
	r := *c
	if r.HeliusAPIKey != "" {
		r.HeliusAPIKey = "***"
	}
	r.PostgresDSN = redactDSN(r.PostgresDSN)
	r.ClickHouseDSN = redactDSN(r.ClickHouseDSN)
	return r
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
