package config

import (
	"os"

	"github.com/spf13/viper"
)

const (
	DefaultRegion     = "us-east-1"
	DefaultObjectName = "index.html"
	DefaultKeepCount  = 5
)

const EnvDiscordWebhook = "VELSWEEPER_DISCORD_WEBHOOK_URL"

const (
	LockBackendLocal = "local"
	LockBackendS3    = "s3"
)

type Config struct {
	S3            *S3Config            `mapstructure:"s3" yaml:"s3,omitempty"`
	Cleanup       *CleanupConfig       `mapstructure:"cleanup" yaml:"cleanup,omitempty"`
	Lock          *LockConfig          `mapstructure:"lock" yaml:"lock,omitempty"`
	Schedule      *ScheduleConfig      `mapstructure:"schedule" yaml:"schedule,omitempty"`
	Notifications *NotificationsConfig `mapstructure:"notifications" yaml:"notifications,omitempty"`
}

type S3Config struct {
	Endpoint                string     `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Region                  string     `mapstructure:"region" yaml:"region,omitempty"`
	AccessKey               string     `mapstructure:"access_key" yaml:"access_key,omitempty"`
	SecretKey               string     `mapstructure:"secret_key" yaml:"secret_key,omitempty"`
	Bucket                  string     `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Prefix                  string     `mapstructure:"prefix" yaml:"prefix,omitempty"`
	PathStyle               *bool      `mapstructure:"path_style" yaml:"path_style,omitempty"`
	DisableRequestChecksums bool       `mapstructure:"disable_request_checksums" yaml:"disable_request_checksums,omitempty"`
	TLS                     *TLSConfig `mapstructure:"tls" yaml:"tls,omitempty"`
}

type TLSConfig struct {
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify,omitempty"`
}

// CleanupConfig controls which deployments a sweep targets and how many of
// them survive it.
type CleanupConfig struct {
	ObjectName string `mapstructure:"object_name" yaml:"object_name,omitempty"`
	KeepCount  int    `mapstructure:"keep_count" yaml:"keep_count"`
	SkipSize   bool   `mapstructure:"skip_size" yaml:"skip_size,omitempty"`
}

type LockConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Backend    string `mapstructure:"backend" yaml:"backend,omitempty"`
	Dir        string `mapstructure:"dir" yaml:"dir,omitempty"`
	TTLMinutes int    `mapstructure:"ttl_minutes" yaml:"ttl_minutes,omitempty"`
}

type ScheduleConfig struct {
	Period        string `mapstructure:"period" yaml:"period,omitempty"`
	Times         int    `mapstructure:"times" yaml:"times,omitempty"`
	JitterMinutes int    `mapstructure:"jitter_minutes" yaml:"jitter_minutes,omitempty"`
}

type NotificationsConfig struct {
	Enabled *bool          `mapstructure:"enabled" yaml:"enabled,omitempty"`
	Discord *DiscordConfig `mapstructure:"discord" yaml:"discord,omitempty"`
}

type DiscordConfig struct {
	Enabled        bool             `mapstructure:"enabled" yaml:"enabled"`
	WebhookURL     string           `mapstructure:"webhook_url" yaml:"webhook_url,omitempty"`
	TimeoutSeconds int              `mapstructure:"timeout_seconds" yaml:"timeout_seconds,omitempty"`
	Events         []string         `mapstructure:"events" yaml:"events,omitempty"`
	Retry          *DiscordRetry    `mapstructure:"retry" yaml:"retry,omitempty"`
	Mentions       *DiscordMentions `mapstructure:"mentions" yaml:"mentions,omitempty"`
}

type DiscordRetry struct {
	Attempts  int `mapstructure:"attempts" yaml:"attempts,omitempty"`
	BackoffMs int `mapstructure:"backoff_ms" yaml:"backoff_ms,omitempty"`
}

type DiscordMentions struct {
	OnError string `mapstructure:"on_error" yaml:"on_error,omitempty"`
}

func Unmarshal(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SetDefaults registers the built-in defaults so a minimal config file still
// unmarshals into a runnable configuration.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("s3.region", DefaultRegion)
	v.SetDefault("cleanup.object_name", DefaultObjectName)
	v.SetDefault("cleanup.keep_count", DefaultKeepCount)
}

func NotificationsEnabled(n *NotificationsConfig) bool {
	if n == nil {
		return false
	}
	if n.Enabled == nil {
		return true
	}
	return *n.Enabled
}

// S3PathStyle reports whether the client should use path-style addressing.
// Unset means path style follows the presence of a custom endpoint.
func S3PathStyle(s *S3Config) bool {
	if s == nil {
		return false
	}
	if s.PathStyle != nil {
		return *s.PathStyle
	}
	return s.Endpoint != ""
}

func S3DisableRequestChecksums(s *S3Config) bool {
	return s != nil && s.DisableRequestChecksums
}

// ResolveDiscordWebhook fills WebhookURL from the environment when the
// config file leaves it empty.
func ResolveDiscordWebhook(d *DiscordConfig) {
	if d != nil && d.WebhookURL == "" {
		d.WebhookURL = os.Getenv(EnvDiscordWebhook)
	}
}
