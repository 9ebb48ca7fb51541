package notifier

import (
	"context"
	"time"
)

type Notifier interface {
	NotifyStart(ctx context.Context, bucket string) error
	NotifySuccess(ctx context.Context, bucket string, deployments int, freedBytes int64, duration time.Duration, dryRun bool) error
	NotifyWarning(ctx context.Context, bucket, message string) error
	NotifyError(ctx context.Context, bucket string, err error) error
}
