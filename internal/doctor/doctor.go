package doctor

import (
	"context"
	"fmt"
	"time"

	"VelSweeper/internal/config"
	"VelSweeper/internal/lock"
	"VelSweeper/internal/notifier"
	"VelSweeper/internal/s3"
)

type CheckResult struct {
	Name   string
	OK     bool
	Detail string
}

func Run(ctx context.Context, cfg *config.Config) []CheckResult {
	var results []CheckResult

	results = append(results, CheckResult{
		Name:   "config",
		OK:     cfg != nil,
		Detail: "configuration loaded",
	})

	if cfg != nil && cfg.S3 != nil {
		ok, detail := checkS3(ctx, cfg)
		results = append(results, CheckResult{Name: "s3", OK: ok, Detail: detail})
	} else {
		results = append(results, CheckResult{Name: "s3", OK: false, Detail: "s3 not configured"})
	}

	ok, detail := checkLockDir(cfg)
	results = append(results, CheckResult{Name: "lock dir", OK: ok, Detail: detail})

	ok, detail = checkNotifications(cfg)
	results = append(results, CheckResult{Name: "notifications", OK: ok, Detail: detail})

	return results
}

func checkS3(ctx context.Context, cfg *config.Config) (bool, string) {
	client, err := s3.New(ctx, s3.Options{
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
	if err != nil {
		return false, fmt.Sprintf("s3 client init failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = client.ListObjects(ctx, "", 1)
	if err != nil {
		return false, fmt.Sprintf("s3 list failed: %v", err)
	}
	return true, fmt.Sprintf("s3 OK (bucket=%s, prefix=%s)", cfg.S3.Bucket, cfg.S3.Prefix)
}

func checkLockDir(cfg *config.Config) (bool, string) {
	dir := lock.DefaultLockDir
	if cfg != nil && cfg.Lock != nil && cfg.Lock.Dir != "" {
		dir = cfg.Lock.Dir
	}
	l, err := lock.NewLocal(lock.LocalOptions{Dir: dir, Name: "doctor"})
	if err != nil {
		return false, fmt.Sprintf("local lock init failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Acquire(ctx); err != nil {
		return false, fmt.Sprintf("local lock acquire failed: %v", err)
	}
	if err := l.Release(context.Background()); err != nil {
		return false, fmt.Sprintf("local lock release failed: %v", err)
	}
	return true, fmt.Sprintf("lock dir accessible (%s)", dir)
}

func checkNotifications(cfg *config.Config) (bool, string) {
	if cfg == nil || !config.NotificationsEnabled(cfg.Notifications) ||
		cfg.Notifications.Discord == nil || !cfg.Notifications.Discord.Enabled {
		return true, "notifications not configured"
	}
	config.ResolveDiscordWebhook(cfg.Notifications.Discord)
	if _, err := notifier.NewDiscordNotifier(cfg.Notifications.Discord); err != nil {
		return false, fmt.Sprintf("discord: %v", err)
	}
	return true, "discord webhook configured"
}
