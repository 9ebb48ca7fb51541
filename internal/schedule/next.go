package schedule

import (
	"fmt"
	"time"

	"VelSweeper/internal/config"
)

// NextRun returns the next sweep time after now for the given schedule, and
// a short description. Mirrors the OnCalendar lines the systemd generator
// emits: daily runs start at 03:00, weekly runs hit Mon..Fri at 03:00,
// monthly runs hit fixed days at 03:00. Jitter shifts the result by the
// full configured delay.
func NextRun(s *config.ScheduleConfig, now time.Time) (next time.Time, desc string) {
	if s == nil {
		return time.Time{}, "no schedule"
	}
	times := s.Times
	if times < 1 {
		times = 1
	}
	if times > 5 {
		times = 5
	}

	const hour = 3
	jitterMin := s.JitterMinutes
	if jitterMin < 0 {
		jitterMin = 0
	}
	jitter := time.Duration(jitterMin) * time.Minute

	switch s.Period {
	case "week":
		days := [][]int{{1}, {1, 4}, {1, 3, 5}, {1, 2, 4, 5}, {1, 2, 3, 4, 5}}[times-1]
		member := make(map[int]bool, len(days))
		for _, d := range days {
			member[d] = true
		}
		for ahead := 0; ahead <= 7; ahead++ {
			day := now.AddDate(0, 0, ahead)
			wd := int(day.Weekday()) // Sun=0, shift to Mon=1..Sun=7
			if wd == 0 {
				wd = 7
			}
			if !member[wd] {
				continue
			}
			cand := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, now.Location())
			if cand.After(now) {
				return cand.Add(jitter), fmt.Sprintf("weekly %d×", times)
			}
		}

	case "month":
		days := [][]int{{1}, {1, 15}, {1, 10, 20}, {1, 8, 15, 22}, {1, 7, 14, 21, 28}}[times-1]
		member := make(map[int]bool, len(days))
		for _, d := range days {
			member[d] = true
		}
		for ahead := 0; ahead <= 62; ahead++ {
			day := now.AddDate(0, 0, ahead)
			if !member[day.Day()] {
				continue
			}
			cand := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, now.Location())
			if cand.After(now) {
				return cand.Add(jitter), fmt.Sprintf("monthly %d×", times)
			}
		}

	default:
		// day
		hours := [][]int{{3}, {3, 15}, {3, 11, 19}, {3, 9, 15, 21}, {3, 7, 13, 19, 23}}[times-1]
		for ahead := 0; ahead <= 1; ahead++ {
			day := now.AddDate(0, 0, ahead)
			for _, h := range hours {
				cand := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, now.Location())
				if cand.After(now) {
					return cand.Add(jitter), fmt.Sprintf("daily %d×", times)
				}
			}
		}
	}

	return time.Time{}, "no schedule"
}
