package sweep

import (
	"context"
	"fmt"
	"io"

	"VelSweeper/internal/s3"
)

type RunOptions struct {
	NameFilter string
	KeepCount  int
	DryRun     bool
	SkipSize   bool
	Out        io.Writer
}

// ExcludeLockArea drops objects under the run-lock prefix. The lock marker
// lives inside the swept bucket area and must never count as a deployment.
func ExcludeLockArea(objects []s3.ObjectInfo) []s3.ObjectInfo {
	kept := make([]s3.ObjectInfo, 0, len(objects))
	for _, obj := range objects {
		if s3.TopLevelPrefix(obj.Key) == s3.LocksPrefix {
			continue
		}
		kept = append(kept, obj)
	}
	return kept
}

// Run lists the bucket, selects the deployments to delete and executes the
// sweep. It returns a *NoMatchError when nothing matches the name filter.
func Run(ctx context.Context, store Storage, opts RunOptions) (*Report, error) {
	objects, err := store.ListAllObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	selection, err := SelectForDeletion(ExcludeLockArea(objects), opts.NameFilter, opts.KeepCount)
	if err != nil {
		return nil, err
	}

	return Execute(ctx, store, selection, ExecuteOptions{
		DryRun:   opts.DryRun,
		SkipSize: opts.SkipSize,
		Out:      opts.Out,
	}), nil
}
