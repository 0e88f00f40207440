package reminders

import (
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule normalizes a user-supplied schedule into a cron spec.
// Accepted forms:
//   - standard 5-field cron ("0 9 * * *") or a descriptor ("@daily")
//   - a plain Go duration ("6h", "90m"), normalized to "@every <d>"
func ParseSchedule(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("schedule is empty")
	}

	if d, err := time.ParseDuration(s); err == nil {
		if d < time.Minute {
			return "", errors.New("schedule interval must be at least 1m")
		}
		s = "@every " + d.String()
	}

	if _, err := scheduleParser.Parse(s); err != nil {
		return "", err
	}
	return s, nil
}
