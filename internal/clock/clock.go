// Package clock formats the kiosk's local date line: Indonesian Gregorian
// date, Javanese weekday with pasaran, and the Hijri date.
package clock

import (
	"fmt"
	"time"
)

var (
	dayNames = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

	monthNames = [...]string{"", "Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember"}

	hijriMonthNames = [...]string{"", "Muharram", "Safar", "Rabi'ul Awal", "Rabi'ul Akhir",
		"Jumadil Awal", "Jumadil Akhir", "Rajab", "Sya'ban",
		"Ramadhan", "Syawal", "Dzulkaidah", "Dzulhijjah"}

	pasaranNames = [...]string{"Legi", "Pahing", "Pon", "Wage", "Kliwon"}
)

// pasaranEpoch is a Wednesday Legi. The cycle index is offset by one day
// to agree with printed Javanese calendars.
var pasaranEpoch = time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)

// Info is the formatted clock line for one instant.
type Info struct {
	Local     time.Time
	Time      string // "15:04"
	Weekday   string // "Senin"
	Gregorian string // "Senin, 12 Januari 2026"
	Javanese  string // "Senin Wage"
	Hijri     string // "23 Rajab 1447 H"
}

// Calendar converts instants to Info at a fixed UTC offset.
type Calendar struct {
	// Offset is seconds east of UTC (25200 for WIB).
	Offset int
	// JavaDays and HijriDays shift the respective calendars by whole days.
	JavaDays  int
	HijriDays int
}

func (c Calendar) location() *time.Location {
	h := c.Offset / 3600
	return time.FixedZone(fmt.Sprintf("UTC%+d", h), c.Offset)
}

// At formats t in the calendar's zone.
func (c Calendar) At(t time.Time) Info {
	local := t.In(c.location())
	day := dayNames[local.Weekday()]
	date := civil(local)
	return Info{
		Local:     local,
		Time:      local.Format("15:04"),
		Weekday:   day,
		Gregorian: fmt.Sprintf("%s, %d %s %d", day, local.Day(), monthNames[local.Month()], local.Year()),
		Javanese:  day + " " + Pasaran(date.AddDate(0, 0, c.JavaDays)),
		Hijri:     FormatHijri(date.AddDate(0, 0, c.HijriDays)),
	}
}

// civil drops the clock and zone, keeping the local calendar date.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Pasaran returns the five-day market week name of the calendar date d.
func Pasaran(d time.Time) string {
	days := int(civil(d).Sub(pasaranEpoch).Hours() / 24)
	idx := ((days-1)%5 + 5) % 5
	return pasaranNames[idx]
}

// Hijri converts a Gregorian calendar date with the tabular (arithmetic)
// Islamic calendar. It can differ by a day from sighting based calendars;
// Calendar.HijriDays corrects for that locally.
func Hijri(d time.Time) (year, month, day int) {
	jd := julianDay(d.Year(), int(d.Month()), d.Day())
	l := jd - 1948440 + 10632
	n := (l - 1) / 10631
	l = l - 10631*n + 354
	j := ((10985-l)/5316)*((50*l)/17719) + (l/5670)*((43*l)/15238)
	l = l - ((30-j)/15)*((17719*j)/50) - (j/16)*((15238*j)/43) + 29
	month = (24 * l) / 709
	day = l - (709*month)/24
	year = 30*n + j - 30
	return year, month, day
}

// FormatHijri renders d as "1 Ramadhan 1445 H".
func FormatHijri(d time.Time) string {
	y, m, dd := Hijri(d)
	if m < 1 || m > 12 {
		return ""
	}
	return fmt.Sprintf("%d %s %d H", dd, hijriMonthNames[m], y)
}

func julianDay(y, m, d int) int {
	a := (14 - m) / 12
	yy := y + 4800 - a
	mm := m + 12*a - 3
	return d + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
}
