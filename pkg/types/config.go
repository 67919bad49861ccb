// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Provider limits imposed by arXiv. PageSize is never sent above
// MaxPageSize and consecutive requests are never closer than MinDelay.
const (
	MaxPageSize = 2000
	MinDelay    = 3 * time.Second

	DefaultBaseURL         = "https://export.arxiv.org/api/query"
	DefaultPageSize        = 100
	DefaultNumRetries      = 3
	DefaultRetryBackoff    = 1 * time.Second
	DefaultMaxRetryBackoff = 30 * time.Second
	DefaultTimeout         = 30 * time.Second
	DefaultUserAgent       = "arxiv-engine/0.1"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout. A timeout surfaces as a
	// transient fetch error.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ClientConfig configures the arXiv search client.
type ClientConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the arXiv query endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// PageSize is the number of results requested per page (default 100,
	// at most MaxPageSize).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// Delay is the minimum time between two requests made by one client
	// (at least MinDelay).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// NumRetries is how many times a failed page is re-requested before the
	// stream fails.
	NumRetries int `json:"num_retries" yaml:"num_retries" mapstructure:"num_retries"`

	// RetryBackoff is the base of the exponential wait between retries of
	// the same page. Zero disables the extra wait; the Delay still applies.
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff" mapstructure:"retry_backoff"`

	// MaxRetryBackoff caps the exponential wait.
	MaxRetryBackoff time.Duration `json:"max_retry_backoff" yaml:"max_retry_backoff" mapstructure:"max_retry_backoff"`
}

// DefaultClientConfig returns the configuration used when nothing is set.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   DefaultTimeout,
			UserAgent: DefaultUserAgent,
		},
		BaseURL:         DefaultBaseURL,
		PageSize:        DefaultPageSize,
		Delay:           MinDelay,
		NumRetries:      DefaultNumRetries,
		RetryBackoff:    DefaultRetryBackoff,
		MaxRetryBackoff: DefaultMaxRetryBackoff,
	}
}

// Normalize returns a copy with provider limits enforced and unset fields
// defaulted. A zero PageSize means the default; a zero Delay is raised to MinDelay.
func (c ClientConfig) Normalize() ClientConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	switch {
	case c.PageSize <= 0:
		c.PageSize = DefaultPageSize
	case c.PageSize > MaxPageSize:
		c.PageSize = MaxPageSize
	}
	if c.Delay < MinDelay {
		c.Delay = MinDelay
	}
	if c.NumRetries < 0 {
		c.NumRetries = 0
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	if c.MaxRetryBackoff <= 0 {
		c.MaxRetryBackoff = DefaultMaxRetryBackoff
	}
	return c
}

// ServerConfig configures the backend HTTP service.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// APIKey, when set, is required in the X-API-Key header of every
	// /papers request.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// RequestTimeout bounds one endpoint call, including all upstream pages.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// MaxResults caps how many papers one endpoint call may request.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// DownloadConfig configures the download command.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Dir is the directory downloads are written to.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Delay is the pause between consecutive downloads.
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `json:"development" yaml:"development" mapstructure:"development"`
}

// Config groups all configuration sections.
type Config struct {
	Client   ClientConfig   `json:"client" yaml:"client" mapstructure:"client"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Download DownloadConfig `json:"download" yaml:"download" mapstructure:"download"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" mapstructure:"logging"`
}
