package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "velsweeper",
	Short: "Clean up stale deployments in S3-compatible storage",
	Long:  "VelSweeper lists a bucket, finds deployments by a marker object, keeps the newest N and deletes the rest prefix by prefix.",
}

func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}
