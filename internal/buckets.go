package internal

import "time"

// Temporal bucket keys are small comparable value types instead of
// formatted strings, so bucketing can never drift with locale or
// formatting changes. All bucketing happens in UTC.

type HourKey struct {
	Year  int
	Month int
	Day   int
	Hour  int
}

type DayKey struct {
	Year  int
	Month int
	Day   int
}

// WeekKey uses the ISO-8601 week; Year is the ISO week-year, which can
// differ from the calendar year around January 1st.
type WeekKey struct {
	Year int
	Week int
}

type MonthKey struct {
	Year  int
	Month int
}

func hourKeyAt(t time.Time) HourKey {
	t = t.UTC()
	return HourKey{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour()}
}

func dayKeyAt(t time.Time) DayKey {
	t = t.UTC()
	return DayKey{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func weekKeyAt(t time.Time) WeekKey {
	year, week := t.UTC().ISOWeek()
	return WeekKey{Year: year, Week: week}
}

func monthKeyAt(t time.Time) MonthKey {
	t = t.UTC()
	return MonthKey{Year: t.Year(), Month: int(t.Month())}
}

func recordTime(rec *MemoryRecord) time.Time {
	return time.UnixMilli(rec.Timestamp).UTC()
}
