package sweep

import (
	"context"

	"VelSweeper/internal/s3"
)

// Storage is the subset of S3 operations used by the sweep engine.
// *s3.Client implements this interface.
type Storage interface {
	ListAllObjects(ctx context.Context) ([]s3.ObjectInfo, error)
	SizeUnderPrefix(ctx context.Context, prefix string) (int64, error)
	DeleteUnderPrefix(ctx context.Context, prefix string) error
	URI(relative string) string
}
