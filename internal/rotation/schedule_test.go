package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueWithNoScheduleIsNeverDue(t *testing.T) {
	due, err := Due("", time.Now(), time.Now())
	require.NoError(t, err)
	assert.False(t, due)
}

func TestDueWithNoPriorRotationIsImmediatelyDue(t *testing.T) {
	due, err := Due("0 0 * * *", time.Time{}, time.Now())
	require.NoError(t, err)
	assert.True(t, due)
}

func TestDueBeforeNextScheduledTimeIsNotDue(t *testing.T) {
	lastRotated := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := lastRotated.Add(1 * time.Hour)
	due, err := Due("0 0 * * *", lastRotated, now)
	require.NoError(t, err)
	assert.False(t, due)
}

func TestDueAfterNextScheduledTimeIsDue(t *testing.T) {
	lastRotated := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := lastRotated.AddDate(0, 0, 1).Add(time.Minute)
	due, err := Due("0 0 * * *", lastRotated, now)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestDueRejectsInvalidExpression(t *testing.T) {
	_, err := Due("not a cron expression", time.Time{}, time.Now())
	assert.Error(t, err)
}
