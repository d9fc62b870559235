package tidal

import "time"

// DateToJulianDay returns the Julian Day Number of t's UTC calendar date
// using the proleptic Gregorian calendar. The time of day is ignored.
func DateToJulianDay(t time.Time) int {
	y, m, d := t.UTC().Date()
	a := (14 - int(m)) / 12
	yy := y + 4800 - a
	mm := int(m) + 12*a - 3
	return d + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
}

// JulianDayToDate is the inverse of DateToJulianDay. The result is midnight UTC.
func JulianDayToDate(jd int) time.Time {
	a := jd + 32044
	b := (4*a + 3) / 146097
	c := a - 146097*b/4
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153

	day := e - (153*m+2)/5 + 1
	month := m + 3 - 12*(m/10)
	year := 100*b + d - 4800 + m/10
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
