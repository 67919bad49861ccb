// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads arxiv-engine configuration via Viper. Values come,
// in increasing precedence, from built-in defaults, a YAML config file,
// ARXIV_ENGINE_* environment variables, and command-line flags bound by
// the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-engine/pkg/types"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// ARXIV_ENGINE_CLIENT_PAGE_SIZE.
const EnvPrefix = "ARXIV_ENGINE"

// Name is the config file stem searched for when no path is given.
const Name = "arxiv-engine"

// Defaults for the server and download sections.
const (
	DefaultAddr            = ":8080"
	DefaultRequestTimeout  = 2 * time.Minute
	DefaultShutdownTimeout = 10 * time.Second
	DefaultServerMax       = 50
	DefaultDownloadTimeout = 5 * time.Minute
	DefaultDownloadDelay   = time.Second
)

// New returns a Viper instance with defaults, the environment prefix and
// the config search path set up. Flags may be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads the config file at path, or searches ./arxiv-engine.yaml and
// ~/.config/arxiv-engine/config.yaml when path is empty. A missing file is
// only an error when path was given explicitly. It returns the normalised
// config and the file used ("" if none).
func Load(v *viper.Viper, path string) (types.Config, string, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return types.Config{}, "", fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, "", fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, "", err
	}
	cfg.Client = cfg.Client.Normalize()
	return cfg, v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper) {
	c := types.DefaultClientConfig()
	v.SetDefault("client.base_url", c.BaseURL)
	v.SetDefault("client.page_size", c.PageSize)
	v.SetDefault("client.delay", c.Delay)
	v.SetDefault("client.num_retries", c.NumRetries)
	v.SetDefault("client.retry_backoff", c.RetryBackoff)
	v.SetDefault("client.max_retry_backoff", c.MaxRetryBackoff)
	v.SetDefault("client.timeout", c.Timeout)
	v.SetDefault("client.user_agent", c.UserAgent)

	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.request_timeout", DefaultRequestTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.max_results", DefaultServerMax)

	v.SetDefault("download.dir", ".")
	v.SetDefault("download.delay", DefaultDownloadDelay)
	v.SetDefault("download.timeout", DefaultDownloadTimeout)
	v.SetDefault("download.user_agent", types.DefaultUserAgent)

	v.SetDefault("logging.development", false)
}

// Validate rejects settings that cannot be normalised into something
// sensible. Values arXiv limits (page size, delay) are clamped, not
// rejected.
func Validate(cfg types.Config) error {
	var errs []error
	if cfg.Client.NumRetries < 0 {
		errs = append(errs, fmt.Errorf("client.num_retries must be >= 0, got %d", cfg.Client.NumRetries))
	}
	if cfg.Client.RetryBackoff < 0 {
		errs = append(errs, fmt.Errorf("client.retry_backoff must be >= 0, got %s", cfg.Client.RetryBackoff))
	}
	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if cfg.Server.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("server.max_results must be > 0, got %d", cfg.Server.MaxResults))
	}
	if cfg.Server.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must be > 0, got %s", cfg.Server.RequestTimeout))
	}
	if cfg.Download.Delay < 0 {
		errs = append(errs, fmt.Errorf("download.delay must be >= 0, got %s", cfg.Download.Delay))
	}
	return errors.Join(errs...)
}
