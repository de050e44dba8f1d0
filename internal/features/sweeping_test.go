package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeSweeping_EmptyScheduleHasNoSweeping(t *testing.T) {
	feat := ComputeSweeping("", time.Now())
	assert.Equal(t, 0.0, feat["sweeping_today"])
	assert.Equal(t, -1.0, feat["minutes_until_next_sweeping"])
	assert.Equal(t, 0.0, feat["sweeping_frequency_per_week"])
}

func TestComputeSweeping_DetectsActiveWindow(t *testing.T) {
	schedule := "Tue 8:00AM-10:00AM"
	// Tuesday 2026-08-04, 9:00am local.
	ts := time.Date(2026, 8, 4, 9, 0, 0, 0, time.UTC)
	feat := ComputeSweeping(schedule, ts)

	assert.Equal(t, 1.0, feat["is_sweeping_now"])
	assert.Equal(t, 1.0, feat["sweeping_today"])
	assert.Equal(t, 1.0, feat["sweeping_frequency_per_week"])
}

func TestComputeSweeping_OutsideWindowSameDay(t *testing.T) {
	schedule := "Tue 8:00AM-10:00AM"
	ts := time.Date(2026, 8, 4, 11, 0, 0, 0, time.UTC)
	feat := ComputeSweeping(schedule, ts)

	assert.Equal(t, 0.0, feat["is_sweeping_now"])
	assert.Equal(t, 1.0, feat["sweeping_today"])
	// Today's window has passed, so the next one is the same window a week
	// later: 7*1440 + 480 - 660 minutes.
	assert.Equal(t, 9900.0, feat["minutes_until_next_sweeping"])
}

func TestComputeSweeping_CountsMultipleWindowsPerWeek(t *testing.T) {
	schedule := "Mon 8:00AM-10:00AM, Thu 1:00PM-3:00PM"
	feat := ComputeSweeping(schedule, time.Date(2026, 8, 4, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, 2.0, feat["sweeping_frequency_per_week"])
}

func TestComputeSweeping_FindsNextWindowOnFutureDay(t *testing.T) {
	schedule := "Fri 8:00AM-10:00AM"
	// Tuesday, next Friday window should be a few days out.
	ts := time.Date(2026, 8, 4, 9, 0, 0, 0, time.UTC)
	feat := ComputeSweeping(schedule, ts)

	assert.Equal(t, 0.0, feat["sweeping_today"])
	assert.Greater(t, feat["minutes_until_next_sweeping"], 0.0)
}
