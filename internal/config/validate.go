package config

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAccessKey   = errors.New("s3 access key is required")
	ErrMissingSecretKey   = errors.New("s3 secret key is required")
	ErrMissingBucket      = errors.New("s3 bucket is required")
	ErrMissingObjectName  = errors.New("cleanup object name must not be empty")
	ErrInvalidKeepCount   = errors.New("cleanup keep count must be -1 or greater")
	ErrInvalidLockBackend = errors.New("lock backend must be 'local' or 's3'")
)

// Validate checks the resolved configuration before any storage call is
// made. It also normalizes the S3 prefix in place.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.S3 == nil {
		return fmt.Errorf("s3 configuration is required")
	}
	if cfg.S3.AccessKey == "" {
		return ErrMissingAccessKey
	}
	if cfg.S3.SecretKey == "" {
		return ErrMissingSecretKey
	}
	if cfg.S3.Bucket == "" {
		return ErrMissingBucket
	}
	cfg.S3.Prefix = NormalizePrefix(cfg.S3.Prefix)

	if cfg.Cleanup != nil {
		if cfg.Cleanup.ObjectName == "" {
			return ErrMissingObjectName
		}
		if cfg.Cleanup.KeepCount < -1 {
			return fmt.Errorf("%w: got %d", ErrInvalidKeepCount, cfg.Cleanup.KeepCount)
		}
	}

	if cfg.Lock != nil && cfg.Lock.Enabled {
		switch cfg.Lock.Backend {
		case "", LockBackendLocal, LockBackendS3:
		default:
			return fmt.Errorf("%w: got %q", ErrInvalidLockBackend, cfg.Lock.Backend)
		}
		if cfg.Lock.TTLMinutes < 0 {
			return fmt.Errorf("lock ttl_minutes must not be negative: got %d", cfg.Lock.TTLMinutes)
		}
	}

	return nil
}
