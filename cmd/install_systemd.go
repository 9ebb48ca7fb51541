package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"VelSweeper/internal/config"
	"VelSweeper/internal/schedule"
	"VelSweeper/internal/systemd"

	"github.com/spf13/cobra"
)

var (
	installSystemdUnitDir   string
	installSystemdBinary    string
	installSystemdHardening bool
	installSystemdEnable    bool
)

func init() {
	rootCmd.AddCommand(installSystemdCmd)
	f := installSystemdCmd.Flags()
	f.StringVar(&installSystemdUnitDir, "unit-dir", systemd.DefaultUnitDir, "Directory for systemd unit files")
	f.StringVar(&installSystemdBinary, "binary", "", "Path to the velsweeper binary (default: the running executable)")
	f.BoolVar(&installSystemdHardening, "hardening", true, "Add sandboxing directives to the service unit")
	f.BoolVar(&installSystemdEnable, "enable", true, "Enable and start the timer after installing")
}

var installSystemdCmd = &cobra.Command{
	Use:   "install-systemd",
	Short: "Install systemd service and timer units for periodic sweeps",
	RunE:  runInstallSystemd,
}

func runInstallSystemd(cmd *cobra.Command, args []string) error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("install-systemd is only supported on Linux")
	}

	cfg, err := loadConfigForEdit()
	if err != nil {
		return err
	}
	sched := cfg.Schedule
	if sched == nil {
		sched = &config.ScheduleConfig{Period: "day", Times: 1}
		cmd.Println("No schedule configured, defaulting to once per day")
	}

	binary := installSystemdBinary
	if binary == "" {
		binary, err = os.Executable()
		if err != nil {
			binary = systemd.DefaultBinary
		}
	}

	units, err := systemd.Generate(sched, systemd.GeneratorOptions{
		Binary:     binary,
		ConfigPath: config.ResolveConfigPath(),
		UnitDir:    installSystemdUnitDir,
		Hardening:  installSystemdHardening,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(installSystemdUnitDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", installSystemdUnitDir, err)
	}

	svcName, timerName := systemd.UnitFileNames()
	svcPath := filepath.Join(installSystemdUnitDir, svcName)
	timerPath := filepath.Join(installSystemdUnitDir, timerName)
	if err := os.WriteFile(svcPath, []byte(units.Service), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", svcPath, err)
	}
	if err := os.WriteFile(timerPath, []byte(units.Timer), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", timerPath, err)
	}
	cmd.Printf("Wrote %s\n", svcPath)
	cmd.Printf("Wrote %s\n", timerPath)

	if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w", err)
	}
	if installSystemdEnable {
		if err := exec.Command("systemctl", "enable", "--now", timerName).Run(); err != nil {
			return fmt.Errorf("systemctl enable --now %s: %w", timerName, err)
		}
		cmd.Printf("Enabled %s\n", timerName)
	} else {
		cmd.Printf("Run 'systemctl enable --now %s' to start the timer\n", timerName)
	}
	if next, desc := schedule.NextRun(sched, time.Now()); !next.IsZero() {
		cmd.Printf("Next sweep (%s): %s\n", desc, next.Format(time.RFC1123))
	}
	return nil
}
