// Package rotation implements scheduled credential rotation (spec §4.6
// step 6c), shared by the OAuth2Client and ServiceAccount controllers.
package rotation

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Parser is a cron parser configured for standard 5-field cron
// expressions.
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule parses a cron expression into a schedule.
func ParseSchedule(expr string) (cron.Schedule, error) {
	schedule, err := Parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid rotation schedule %q: %w", expr, err)
	}
	return schedule, nil
}

// Due reports whether a scheduled rotation is due: expr is empty means
// no schedule is configured, and a rotation is never due by schedule
// alone; otherwise it is due once now is past the first scheduled time
// on or after lastRotated (or immediately, if lastRotated is zero).
func Due(expr string, lastRotated, now time.Time) (bool, error) {
	if expr == "" {
		return false, nil
	}
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return false, err
	}
	if lastRotated.IsZero() {
		return true, nil
	}
	next := schedule.Next(lastRotated)
	return !now.Before(next), nil
}
