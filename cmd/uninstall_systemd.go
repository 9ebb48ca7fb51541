package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"VelSweeper/internal/systemd"

	"github.com/spf13/cobra"
)

var uninstallSystemdUnitDir string

func init() {
	rootCmd.AddCommand(uninstallSystemdCmd)
	uninstallSystemdCmd.Flags().StringVar(&uninstallSystemdUnitDir, "unit-dir", systemd.DefaultUnitDir, "Directory for systemd unit files")
}

var uninstallSystemdCmd = &cobra.Command{
	Use:   "uninstall-systemd",
	Short: "Remove systemd service and timer units",
	RunE:  runUninstallSystemd,
}

// Deliberately does not load the config: uninstalling must work even when
// the config file is gone or broken.
func runUninstallSystemd(cmd *cobra.Command, args []string) error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("uninstall-systemd is only supported on Linux")
	}

	svcName, timerName := systemd.UnitFileNames()
	svcPath := filepath.Join(uninstallSystemdUnitDir, svcName)
	timerPath := filepath.Join(uninstallSystemdUnitDir, timerName)

	_ = exec.Command("systemctl", "disable", "--now", timerName).Run()

	removed := 0
	for _, path := range []string{timerPath, svcPath} {
		err := os.Remove(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		cmd.Printf("Removed %s\n", path)
		removed++
	}
	if removed == 0 {
		cmd.Println("No units to remove")
		return nil
	}

	if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w", err)
	}
	cmd.Println("Reloaded systemd daemon")
	return nil
}
