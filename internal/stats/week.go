package stats

import "time"

// DayBounds returns the first and last millisecond of t's calendar day in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// WeekBounds returns midnight of the Monday on or before t and the last
// millisecond of the following Sunday, both in loc.
func WeekBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7 // days since Monday
	monday := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, loc)
	end := monday.AddDate(0, 0, 7).Add(-time.Millisecond)
	return monday, end
}
