package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"VelSweeper/internal/config"
	"VelSweeper/internal/lock"
	"VelSweeper/internal/s3"
	"VelSweeper/internal/sweep"

	"github.com/spf13/cobra"
)

var (
	cleanAccessKey  string
	cleanSecretKey  string
	cleanEndpoint   string
	cleanRegion     string
	cleanBucket     string
	cleanPrefix     string
	cleanObjectName string
	cleanKeepCount  int
	cleanDryRun     bool
	cleanSkipSize   bool
	cleanLock       bool
)

func init() {
	rootCmd.AddCommand(cleanCmd)
	f := cleanCmd.Flags()
	f.StringVar(&cleanAccessKey, "aws-access-key-id", "", "S3 access key (or set AWS_ACCESS_KEY_ID)")
	f.StringVar(&cleanSecretKey, "aws-secret-access-key", "", "S3 secret key (or set AWS_SECRET_ACCESS_KEY)")
	f.StringVar(&cleanEndpoint, "aws-endpoint-url", "", "Custom S3 endpoint, e.g. a MinIO URL")
	f.StringVar(&cleanRegion, "aws-region", config.DefaultRegion, "S3 region")
	f.StringVar(&cleanBucket, "bucket", "", "Bucket holding the deployments")
	f.StringVar(&cleanPrefix, "prefix", "", "Only sweep keys under this prefix")
	f.StringVar(&cleanObjectName, "object-name", config.DefaultObjectName, "Marker object that identifies a deployment")
	f.IntVar(&cleanKeepCount, "keep-count", config.DefaultKeepCount, "How many of the newest deployments to keep (-1 keeps all)")
	f.BoolVar(&cleanDryRun, "dry-run", false, "Report what would be deleted without deleting anything")
	f.BoolVar(&cleanSkipSize, "skip-size", false, "Skip size accounting (one request less per deployment)")
	f.BoolVar(&cleanLock, "lock", false, "Take the run lock first (implied by lock.enabled in the config)")
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete stale deployments, keeping the newest ones",
	Long:  "Clean lists the bucket, finds deployments whose key contains the marker object name, keeps the newest keep-count of them and deletes everything under the top-level prefix of each older one.",
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	client, err := s3ClientFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	locker, err := lockerFromConfig(cfg, client)
	if err != nil {
		return err
	}
	if locker != nil {
		if err := locker.Acquire(ctx); err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		defer func() {
			if err := locker.Release(context.Background()); err != nil {
				cmd.PrintErrln("Warning: release lock:", err)
			}
		}()
	}

	notif := NotifierFromConfig(cfg, func(msg string) { cmd.PrintErrln("Warning:", msg) })
	if notif != nil {
		_ = notif.NotifyStart(ctx, cfg.S3.Bucket)
	}

	start := time.Now()
	report, err := sweep.Run(ctx, client, sweep.RunOptions{
		NameFilter: cfg.Cleanup.ObjectName,
		KeepCount:  cfg.Cleanup.KeepCount,
		DryRun:     cleanDryRun,
		SkipSize:   cfg.Cleanup.SkipSize,
		Out:        cmd.OutOrStdout(),
	})
	if err != nil {
		var noMatch *sweep.NoMatchError
		if errors.As(err, &noMatch) {
			err = fmt.Errorf("%w (bucket %s)", err, client.URI(""))
		}
		if notif != nil {
			_ = notif.NotifyError(ctx, cfg.S3.Bucket, err)
		}
		return err
	}

	if len(report.Failures) > 0 {
		for _, f := range report.Failures {
			cmd.PrintErrf("Failed: %s: %v\n", client.URI(f.Prefix), f.Err)
		}
		msg := fmt.Sprintf("%d deployments could not be deleted", len(report.Failures))
		if notif != nil {
			_ = notif.NotifyWarning(ctx, cfg.S3.Bucket, msg)
		}
		return errors.New(msg)
	}

	if notif != nil {
		_ = notif.NotifySuccess(ctx, cfg.S3.Bucket, report.Deployments, report.TotalBytes, time.Since(start), report.DryRun)
	}
	return nil
}

// resolveConfig merges the config file, environment and the calling command's
// flags, in ascending precedence, then validates the result. Commands only
// bind the flags they actually define.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	v, err := config.Load(false)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	for key, name := range map[string]string{
		"s3.access_key":       "aws-access-key-id",
		"s3.secret_key":       "aws-secret-access-key",
		"s3.endpoint":         "aws-endpoint-url",
		"s3.region":           "aws-region",
		"s3.bucket":           "bucket",
		"s3.prefix":           "prefix",
		"cleanup.object_name": "object-name",
		"cleanup.keep_count":  "keep-count",
		"cleanup.skip_size":   "skip-size",
	} {
		if flag := flags.Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	for key, env := range map[string]string{
		"s3.access_key": "AWS_ACCESS_KEY_ID",
		"s3.secret_key": "AWS_SECRET_ACCESS_KEY",
		"s3.endpoint":   "AWS_ENDPOINT_URL",
		"s3.region":     "AWS_REGION",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg, err := config.Unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func s3ClientFromConfig(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	return s3.New(ctx, s3.Options{
		Endpoint:                cfg.S3.Endpoint,
		Region:                  cfg.S3.Region,
		AccessKey:               cfg.S3.AccessKey,
		SecretKey:               cfg.S3.SecretKey,
		Bucket:                  cfg.S3.Bucket,
		Prefix:                  cfg.S3.Prefix,
		PathStyle:               config.S3PathStyle(cfg.S3),
		DisableRequestChecksums: config.S3DisableRequestChecksums(cfg.S3),
		InsecureSkipVerify:      cfg.S3.TLS != nil && cfg.S3.TLS.InsecureSkipVerify,
	})
}

// lockerFromConfig returns a nil Locker when neither the config nor the
// --lock flag asks for one. The bare flag takes the S3 lock, so two hosts
// sweeping the same bucket exclude each other; a configured lock keeps its
// configured backend.
func lockerFromConfig(cfg *config.Config, client *s3.Client) (lock.Locker, error) {
	lockCfg := cfg.Lock
	if lockCfg == nil {
		if !cleanLock {
			return nil, nil
		}
		lockCfg = &config.LockConfig{Backend: config.LockBackendS3, TTLMinutes: 60}
	} else if !cleanLock && !lockCfg.Enabled {
		return nil, nil
	}

	ttl := time.Duration(lockCfg.TTLMinutes) * time.Minute
	if lockCfg.Backend == config.LockBackendS3 {
		return lock.NewS3(lock.S3Options{Client: client, Name: "sweep", TTL: ttl})
	}
	return lock.NewLocal(lock.LocalOptions{Dir: lockCfg.Dir, Name: "sweep", TTL: ttl})
}
