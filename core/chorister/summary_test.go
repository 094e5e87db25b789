package chorister

import (
	"testing"
	"time"

	"JNChoral/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 18, 0, 0, 0, time.UTC)
}

func confirmed(startsAt time.Time) model.AttendanceEntry {
	at := startsAt.Add(time.Hour)
	return model.AttendanceEntry{
		AttendanceRecord:  model.AttendanceRecord{ConfirmedAt: &at},
		RehearsalStartsAt: startsAt,
	}
}

func TestSummarize(t *testing.T) {
	now := day(2026, time.February, 20)
	rehearsals := []model.Rehearsal{
		{StartsAt: day(2026, time.March, 1)}, // 尚未举行
		{StartsAt: day(2026, time.February, 8)},
		{StartsAt: day(2026, time.February, 1)},
		{StartsAt: day(2026, time.January, 25)},
		{StartsAt: day(2025, time.December, 21)},
		{StartsAt: day(2025, time.December, 14)},
		{StartsAt: day(2025, time.December, 7)},
	}
	attendance := []model.AttendanceEntry{
		confirmed(day(2026, time.February, 8)),
		confirmed(day(2025, time.December, 21)),
		confirmed(day(2025, time.December, 14)),
		{RehearsalStartsAt: day(2026, time.February, 1)}, // 未确认
	}

	sum := Summarize(rehearsals, attendance, now)
	assert.Equal(t, 6, sum.Completed)
	assert.Equal(t, 3, sum.Confirmed)
	assert.Equal(t, 50, sum.Percent)

	require.Len(t, sum.Monthly, 3)
	assert.Equal(t, MonthlyAttendance{Label: "Dec 25", Total: 3, Attended: 2, Percent: 67}, sum.Monthly[0])
	assert.Equal(t, MonthlyAttendance{Label: "Jan 26", Total: 1, Attended: 0, Percent: 0}, sum.Monthly[1])
	assert.Equal(t, MonthlyAttendance{Label: "Feb 26", Total: 2, Attended: 1, Percent: 50}, sum.Monthly[2])
}

func TestSummarizeKeepsLatestMonths(t *testing.T) {
	var rehearsals []model.Rehearsal
	for m := 0; m < 12; m++ {
		rehearsals = append(rehearsals, model.Rehearsal{StartsAt: day(2025, time.January, 10).AddDate(0, m, 0)})
	}

	sum := Summarize(rehearsals, nil, day(2026, time.January, 1))
	assert.Equal(t, 12, sum.Completed)
	assert.Zero(t, sum.Percent)
	require.Len(t, sum.Monthly, trendMonths)
	assert.Equal(t, "May 25", sum.Monthly[0].Label)
	assert.Equal(t, "Dec 25", sum.Monthly[trendMonths-1].Label)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil, nil, time.Now())
	assert.Zero(t, sum.Completed)
	assert.Zero(t, sum.Percent)
	assert.NotNil(t, sum.Monthly)
	assert.Empty(t, sum.Monthly)
}
