package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Schedule is a parsed subset of cron: "m h * * *" runs daily at h:m,
// "m * * * *" runs hourly at minute m, and "*/n * * * *" runs every n
// minutes. Anything richer is out of scope for the sweeps we run.
type Schedule struct {
	// EveryMinutes, when non-zero, runs the job on a fixed interval and
	// the Minute/Hour fields are ignored
	EveryMinutes int
	Minute       int
	// Hour of -1 means every hour
	Hour int
}

// ParseSchedule parses the supported cron subset
func ParseSchedule(expr string) (Schedule, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return Schedule{}, fmt.Errorf("%w: %q", ErrInvalidSchedule, expr)
	}
	for _, p := range parts[2:] {
		if p != "*" {
			return Schedule{}, fmt.Errorf("%w: day/month fields must be *, got %q", ErrInvalidSchedule, expr)
		}
	}

	if step, ok := strings.CutPrefix(parts[0], "*/"); ok {
		n, err := parsePositiveInt(step)
		if err != nil || n == 0 || n > 59 {
			return Schedule{}, fmt.Errorf("%w: bad minute step in %q", ErrInvalidSchedule, expr)
		}
		if parts[1] != "*" {
			return Schedule{}, fmt.Errorf("%w: minute steps require hour *, got %q", ErrInvalidSchedule, expr)
		}
		return Schedule{EveryMinutes: n}, nil
	}

	minute, err := parsePositiveInt(parts[0])
	if err != nil || minute > 59 {
		return Schedule{}, fmt.Errorf("%w: bad minute in %q", ErrInvalidSchedule, expr)
	}

	if parts[1] == "*" {
		return Schedule{Minute: minute, Hour: -1}, nil
	}
	hour, err := parsePositiveInt(parts[1])
	if err != nil || hour > 23 {
		return Schedule{}, fmt.Errorf("%w: bad hour in %q", ErrInvalidSchedule, expr)
	}
	return Schedule{Minute: minute, Hour: hour}, nil
}

// Next returns the first run time strictly after from
func (s Schedule) Next(from time.Time) time.Time {
	if s.EveryMinutes > 0 {
		return from.Truncate(time.Minute).Add(time.Duration(s.EveryMinutes) * time.Minute)
	}

	if s.Hour < 0 {
		next := time.Date(from.Year(), from.Month(), from.Day(), from.Hour(), s.Minute, 0, 0, from.Location())
		if !next.After(from) {
			next = next.Add(time.Hour)
		}
		return next
	}

	next := time.Date(from.Year(), from.Month(), from.Day(), s.Hour, s.Minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func parsePositiveInt(s string) (int, error) {
	if s == "" {
		return 0, ErrInvalidSchedule
	}
	val := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ErrInvalidSchedule
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}
