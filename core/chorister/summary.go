package chorister

import (
	"math"
	"sort"
	"time"

	"JNChoral/model"
)

// trendMonths is how many months the attendance trend keeps.
const trendMonths = 8

// AttendanceSummary compares confirmed attendance with rehearsals already held.
type AttendanceSummary struct {
	Completed int                 `json:"completedRehearsals"`
	Confirmed int                 `json:"confirmedAttendance"`
	Percent   int                 `json:"percent"`
	Monthly   []MonthlyAttendance `json:"monthly"`
}

type MonthlyAttendance struct {
	Label    string `json:"label"`
	Total    int    `json:"total"`
	Attended int    `json:"attended"`
	Percent  int    `json:"percent"`
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func monthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Summarize counts rehearsals started by now and the confirmed records, overall and per month.
// The trend holds the latest months in calendar order.
func Summarize(rehearsals []model.Rehearsal, attendance []model.AttendanceEntry, now time.Time) AttendanceSummary {
	var sum AttendanceSummary
	months := map[time.Time]*MonthlyAttendance{}
	bucket := func(t time.Time) *MonthlyAttendance {
		key := monthOf(t)
		m, ok := months[key]
		if !ok {
			m = &MonthlyAttendance{Label: key.Format("Jan 06")}
			months[key] = m
		}
		return m
	}

	for _, r := range rehearsals {
		if r.StartsAt.After(now) {
			continue
		}
		sum.Completed++
		bucket(r.StartsAt).Total++
	}
	for _, a := range attendance {
		if a.ConfirmedAt == nil {
			continue
		}
		sum.Confirmed++
		bucket(a.RehearsalStartsAt).Attended++
	}
	sum.Percent = percent(sum.Confirmed, sum.Completed)

	keys := make([]time.Time, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	if len(keys) > trendMonths {
		keys = keys[len(keys)-trendMonths:]
	}

	sum.Monthly = make([]MonthlyAttendance, 0, len(keys))
	for _, k := range keys {
		m := months[k]
		m.Percent = percent(m.Attended, m.Total)
		sum.Monthly = append(sum.Monthly, *m)
	}
	return sum
}
