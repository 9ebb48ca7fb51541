package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"VelSweeper/internal/config"
	"VelSweeper/internal/sweep"

	"github.com/spf13/cobra"
)

var (
	listAccessKey  string
	listSecretKey  string
	listEndpoint   string
	listRegion     string
	listBucket     string
	listPrefix     string
	listObjectName string
	listKeepCount  int
)

func init() {
	rootCmd.AddCommand(listCmd)
	f := listCmd.Flags()
	f.StringVar(&listAccessKey, "aws-access-key-id", "", "S3 access key (or set AWS_ACCESS_KEY_ID)")
	f.StringVar(&listSecretKey, "aws-secret-access-key", "", "S3 secret key (or set AWS_SECRET_ACCESS_KEY)")
	f.StringVar(&listEndpoint, "aws-endpoint-url", "", "Custom S3 endpoint, e.g. a MinIO URL")
	f.StringVar(&listRegion, "aws-region", config.DefaultRegion, "S3 region")
	f.StringVar(&listBucket, "bucket", "", "Bucket holding the deployments")
	f.StringVar(&listPrefix, "prefix", "", "Only list keys under this prefix")
	f.StringVar(&listObjectName, "object-name", config.DefaultObjectName, "Marker object that identifies a deployment")
	f.IntVar(&listKeepCount, "keep-count", config.DefaultKeepCount, "Annotate which deployments a clean run would keep")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List deployments and what a clean run would do to them",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	client, err := s3ClientFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	objects, err := client.ListAllObjects(ctx)
	if err != nil {
		return fmt.Errorf("list objects: %w", err)
	}
	objects = sweep.ExcludeLockArea(objects)

	// Selecting with keep-count 0 yields every match, oldest first.
	matched, err := sweep.SelectForDeletion(objects, cfg.Cleanup.ObjectName, 0)
	if err != nil {
		var noMatch *sweep.NoMatchError
		if errors.As(err, &noMatch) {
			cmd.Printf("No deployments matching %q in %s\n", cfg.Cleanup.ObjectName, client.URI(""))
			return nil
		}
		return err
	}
	doomed, err := sweep.SelectForDeletion(objects, cfg.Cleanup.ObjectName, cfg.Cleanup.KeepCount)
	if err != nil {
		return err
	}
	toDelete := make(map[string]bool, len(doomed))
	for _, obj := range doomed {
		toDelete[obj.Key] = true
	}

	cmd.Printf("Deployments in %s matching %q, oldest first (keep-count %d):\n\n", client.URI(""), cfg.Cleanup.ObjectName, cfg.Cleanup.KeepCount)
	for _, obj := range matched {
		status := "keep"
		if toDelete[obj.Key] {
			status = "delete"
		}
		cmd.Printf("  %-8s %s  %s\n", status, obj.LastModified.UTC().Format(time.RFC3339), obj.Key)
	}
	cmd.Printf("\n%d deployments, %d to delete.\n", len(matched), len(doomed))
	return nil
}
