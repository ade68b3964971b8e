package monitor

import (
	"fmt"
	"strings"
	"time"
)

// ParsedSchedule is a normalized poll trigger: either a cron expression
// (robfig/cron, including @-descriptors) or a fixed interval.
type ParsedSchedule struct {
	Cron  string
	Every time.Duration
}

// ParseSchedule accepts either a crontab.guru-style expression
// ("*/30 * * * *", "@hourly", "@every 30m") or a plain Go duration ("30m").
func ParseSchedule(raw string) (ParsedSchedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ParsedSchedule{}, fmt.Errorf("schedule required")
	}

	// Whitespace or a leading '@' means cron syntax.
	if strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@") {
		return ParsedSchedule{Cron: s}, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return ParsedSchedule{}, fmt.Errorf("schedule %q is neither a cron expression nor a duration", raw)
	}
	if d < time.Minute {
		return ParsedSchedule{}, fmt.Errorf("schedule %q: polling more often than once a minute hammers the API", raw)
	}
	return ParsedSchedule{Every: d}, nil
}
