package stats

import (
	"fmt"
	"time"
)

// UnknownLesson labels notes whose lesson no longer exists.
const UnknownLesson = "UNKNOWN"

var dayNames = map[time.Weekday]string{
	time.Monday:    "Pazartesi",
	time.Tuesday:   "Salı",
	time.Wednesday: "Çarşamba",
	time.Thursday:  "Perşembe",
	time.Friday:    "Cuma",
	time.Saturday:  "Cumartesi",
	time.Sunday:    "Pazar",
}

var monthNames = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// FormatSeconds renders a whole-second count as zero-padded HH:MM:SS.
// Hours are not wrapped at 24.
func FormatSeconds(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// DayName returns the weekday name, e.g. "Pazartesi".
func DayName(t time.Time) string {
	return dayNames[t.Weekday()]
}

// FormatDate returns a day-and-month label, e.g. "06 Ocak".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d %s", t.Day(), monthNames[t.Month()-1])
}

// FormatMonth returns a month-and-year label, e.g. "Ocak 2024".
func FormatMonth(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}
