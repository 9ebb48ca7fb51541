package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"VelSweeper/internal/config"

	"github.com/spf13/cobra"
)

var (
	initPath  string
	initForce bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initPath, "path", "", "Where to write the config (default "+config.DefaultConfigDir+"/"+config.DefaultConfigName+")")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive wizard to create the configuration file",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := initPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	reader := bufio.NewReader(os.Stdin)
	cmd.Println("VelSweeper setup. Enter keeps the value in brackets.")
	cmd.Println()

	s3cfg := &config.S3Config{
		Endpoint:  promptString(cmd, reader, "S3 endpoint (empty for AWS)", ""),
		Region:    promptString(cmd, reader, "Region", config.DefaultRegion),
		AccessKey: promptString(cmd, reader, "Access key (empty to rely on AWS_ACCESS_KEY_ID)", ""),
		SecretKey: promptString(cmd, reader, "Secret key (empty to rely on AWS_SECRET_ACCESS_KEY)", ""),
	}
	s3cfg.Bucket = promptString(cmd, reader, "Bucket (required)", "")
	if s3cfg.Bucket == "" {
		return config.ErrMissingBucket
	}
	s3cfg.Prefix = config.NormalizePrefix(promptString(cmd, reader, "Key prefix (empty for whole bucket)", ""))
	if s3cfg.Endpoint != "" && confirm(reader, "Endpoint speaks path-style S3 (MinIO and friends)?", true) {
		s3cfg.PathStyle = boolPtr(true)
	}

	keep := promptInt(cmd, reader, "Deployments to keep (-1 keeps all)", config.DefaultKeepCount)
	for keep < -1 {
		cmd.Println("Keep count must be -1 or greater.")
		keep = promptInt(cmd, reader, "Deployments to keep (-1 keeps all)", config.DefaultKeepCount)
	}
	cleanup := &config.CleanupConfig{
		ObjectName: promptString(cmd, reader, "Marker object name", config.DefaultObjectName),
		KeepCount:  keep,
	}

	cfg := &config.Config{S3: s3cfg, Cleanup: cleanup}

	if confirm(reader, "Guard runs with a lock?", true) {
		ttl := promptInt(cmd, reader, "Lock TTL in minutes (0 never breaks)", 60)
		for ttl < 0 {
			cmd.Println("TTL must not be negative.")
			ttl = promptInt(cmd, reader, "Lock TTL in minutes (0 never breaks)", 60)
		}
		cfg.Lock = &config.LockConfig{
			Enabled:    true,
			Backend:    config.LockBackendLocal,
			TTLMinutes: ttl,
		}
	}

	if confirm(reader, "Send Discord notifications?", false) {
		cfg.Notifications = &config.NotificationsConfig{
			Discord: &config.DiscordConfig{
				Enabled:    true,
				WebhookURL: promptString(cmd, reader, "Discord webhook URL (empty to rely on "+config.EnvDiscordWebhook+")", ""),
			},
		}
	}

	// Credentials may intentionally stay empty and come from the
	// environment at run time.
	if err := config.Validate(cfg); err != nil &&
		!errors.Is(err, config.ErrMissingAccessKey) && !errors.Is(err, config.ErrMissingSecretKey) {
		return err
	}
	if err := config.Write(cfg, path); err != nil {
		return err
	}
	cmd.Printf("\nConfiguration written to %s\n", path)
	cmd.Println("Next steps:")
	cmd.Println("  velsweeper doctor                # check S3 connectivity")
	cmd.Println("  velsweeper clean --dry-run       # preview a sweep")
	cmd.Println("  velsweeper install-systemd       # schedule periodic sweeps")
	return nil
}

func promptString(cmd *cobra.Command, reader *bufio.Reader, label, def string) string {
	if def != "" {
		cmd.Printf("%s [%s]: ", label, def)
	} else {
		cmd.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func promptInt(cmd *cobra.Command, reader *bufio.Reader, label string, def int) int {
	for {
		raw := promptString(cmd, reader, label, strconv.Itoa(def))
		n, err := strconv.Atoi(raw)
		if err != nil {
			cmd.Printf("Not a number: %q\n", raw)
			continue
		}
		return n
	}
}

func confirm(reader *bufio.Reader, label string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Printf("%s [%s]: ", label, hint)
	line, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}
