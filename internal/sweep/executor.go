package sweep

import (
	"context"
	"fmt"
	"io"

	"VelSweeper/internal/s3"
)

type ExecuteOptions struct {
	DryRun   bool
	SkipSize bool
	Out      io.Writer
}

// Failure records a prefix that could not be fully processed.
type Failure struct {
	Prefix string
	Err    error
}

// Report summarizes one sweep. Deployments and TotalBytes cover only the
// prefixes that were processed without error.
type Report struct {
	Deployments int
	TotalBytes  int64
	DryRun      bool
	Failures    []Failure
}

// Execute removes the deployments identified by the selected marker objects.
// Each marker's top-level prefix is swept once, in order of first appearance,
// even when several markers share a prefix. Size lookups run in dry-run mode
// too, so a dry run reports the same totals as a real run against an
// unchanged bucket. A failing prefix is recorded and does not halt the run;
// context cancellation does.
func Execute(ctx context.Context, store Storage, selection []s3.ObjectInfo, opts ExecuteOptions) *Report {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	prefixes := make([]string, 0, len(selection))
	seen := make(map[string]struct{}, len(selection))
	for _, obj := range selection {
		prefix := s3.TopLevelPrefix(obj.Key)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		prefixes = append(prefixes, prefix)
	}

	report := &Report{DryRun: opts.DryRun}
	fmt.Fprintf(out, "Deleting %d old deployments from %s:\n\n", len(prefixes), store.URI(""))

	for _, prefix := range prefixes {
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, Failure{Prefix: prefix, Err: err})
			break
		}
		fmt.Fprintf(out, " Deleting %s\n", store.URI(prefix))

		var size int64
		if !opts.SkipSize {
			var err error
			size, err = store.SizeUnderPrefix(ctx, prefix)
			if err != nil {
				report.Failures = append(report.Failures, Failure{Prefix: prefix, Err: fmt.Errorf("size lookup: %w", err)})
				continue
			}
		}
		if !opts.DryRun {
			if err := store.DeleteUnderPrefix(ctx, prefix); err != nil {
				report.Failures = append(report.Failures, Failure{Prefix: prefix, Err: fmt.Errorf("delete: %w", err)})
				continue
			}
		}
		report.Deployments++
		report.TotalBytes += size
	}

	fmt.Fprintf(out, "\nDeletion finished.\n")
	fmt.Fprintf(out, "Total Deleted Deployments: %d\n", report.Deployments)
	if !opts.SkipSize {
		fmt.Fprintf(out, "Total Deleted Data: %d KB\n", report.TotalBytes/1024)
	}
	if opts.DryRun {
		fmt.Fprintf(out, "\n!!! Dry run enabled, no data has been deleted. !!!\n")
	}
	return report
}
