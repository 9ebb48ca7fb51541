package systemd

import (
	"fmt"
	"strings"

	"VelSweeper/internal/config"
)

const (
	DefaultUnitDir    = "/etc/systemd/system"
	DefaultBinary     = "/usr/bin/velsweeper"
	DefaultConfigPath = "/etc/velsweeper/config.yaml"

	ServiceName = "velsweeper-clean.service"
	TimerName   = "velsweeper-clean.timer"
)

type GeneratorOptions struct {
	Binary     string
	ConfigPath string
	UnitDir    string
	Hardening  bool
}

type GeneratedUnits struct {
	Service string
	Timer   string
}

func UnitFileNames() (service, timer string) {
	return ServiceName, TimerName
}

// Generate renders the oneshot service and timer units that run the sweep on
// the configured schedule.
func Generate(schedule *config.ScheduleConfig, opts GeneratorOptions) (*GeneratedUnits, error) {
	if schedule == nil {
		return nil, fmt.Errorf("schedule is required")
	}
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}

	execStart := fmt.Sprintf("%s clean", opts.Binary)

	service := buildService(execStart, opts.ConfigPath, opts.Hardening)
	timer := buildTimer(schedule)

	return &GeneratedUnits{Service: service, Timer: timer}, nil
}

func buildService(execStart, configPath string, hardening bool) string {
	var b strings.Builder

	b.WriteString("[Unit]\n")
	b.WriteString("Description=VelSweeper stale deployment cleanup\n")
	b.WriteString("After=network-online.target\n")
	b.WriteString("Wants=network-online.target\n\n")

	b.WriteString("[Service]\n")
	b.WriteString("Type=oneshot\n")
	b.WriteString(fmt.Sprintf("ExecStart=%s\n", execStart))
	b.WriteString("Environment=" + config.EnvConfigPath + "=" + configPath + "\n")

	if hardening {
		b.WriteString("ProtectSystem=full\n")
		b.WriteString("ProtectHome=read-only\n")
		b.WriteString("PrivateTmp=yes\n")
		b.WriteString("NoNewPrivileges=yes\n")
		b.WriteString("ProtectKernelTunables=yes\n")
		b.WriteString("ProtectKernelModules=yes\n")
		b.WriteString("ProtectControlGroups=yes\n")
		b.WriteString("RestrictRealtime=yes\n")
		b.WriteString("RestrictSUIDSGID=yes\n")
		b.WriteString("LockPersonality=yes\n")
		b.WriteString("PrivateMounts=yes\n")
		b.WriteString("ProtectClock=yes\n")
		b.WriteString("ProtectHostname=yes\n")
		b.WriteString("ProtectKernelLogs=yes\n")
		b.WriteString("ProtectProc=invisible\n")
		b.WriteString("ProcSubset=pid\n")
		b.WriteString("RestrictNamespaces=yes\n")
		b.WriteString("RestrictAddressFamilies=AF_UNIX AF_INET AF_INET6\n")
	}

	b.WriteString("\n[Install]\n")
	b.WriteString("WantedBy=multi-user.target\n")

	return b.String()
}

func buildTimer(schedule *config.ScheduleConfig) string {
	var b strings.Builder

	b.WriteString("[Unit]\n")
	b.WriteString("Description=VelSweeper cleanup timer\n")
	b.WriteString("Requires=" + ServiceName + "\n\n")

	b.WriteString("[Timer]\n")
	for _, c := range buildOnCalendar(schedule) {
		b.WriteString("OnCalendar=" + c + "\n")
	}
	jitterSec := schedule.JitterMinutes * 60
	if jitterSec < 0 {
		jitterSec = 0
	}
	if jitterSec > 0 {
		b.WriteString(fmt.Sprintf("RandomizedDelaySec=%d\n", jitterSec))
	}
	b.WriteString("Persistent=yes\n\n")

	b.WriteString("[Install]\n")
	b.WriteString("WantedBy=timers.target\n")

	return b.String()
}

func buildOnCalendar(s *config.ScheduleConfig) []string {
	times := s.Times
	if times < 1 {
		times = 1
	}
	if times > 5 {
		times = 5
	}

	switch s.Period {
	case "week":
		// weekdays: Mon=1, Tue=2, Wed=3, Thu=4, Fri=5
		days := [][]int{{1}, {1, 4}, {1, 3, 5}, {1, 2, 4, 5}, {1, 2, 3, 4, 5}}
		idx := times - 1
		var out []string
		for _, d := range days[idx] {
			dayName := []string{"", "Mon", "Tue", "Wed", "Thu", "Fri"}[d]
			out = append(out, fmt.Sprintf("%s *-*-* 03:00:00", dayName))
		}
		return out
	case "month":
		days := [][]int{{1}, {1, 15}, {1, 10, 20}, {1, 8, 15, 22}, {1, 7, 14, 21, 28}}
		idx := times - 1
		var out []string
		for _, d := range days[idx] {
			out = append(out, fmt.Sprintf("*-*-%02d 03:00:00", d))
		}
		return out
	default:
		// day: spread across 24h
		hours := [][]int{{3}, {3, 15}, {3, 11, 19}, {3, 9, 15, 21}, {3, 7, 13, 19, 23}}
		idx := times - 1
		var out []string
		for _, h := range hours[idx] {
			out = append(out, fmt.Sprintf("*-*-* %02d:00:00", h))
		}
		return out
	}
}
