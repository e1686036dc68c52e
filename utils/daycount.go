package utils

import (
	"time"
)

// DayCount names a day count convention.
type DayCount string

const (
	Act360  DayCount = "ACT/360"
	Act365F DayCount = "ACT/365F"
	// Thirty360 is the US bond basis 30/360.
	Thirty360 DayCount = "30/360"
	// Thirty360E is the Eurobond basis 30E/360.
	Thirty360E DayCount = "30E/360"
)

// Valid reports whether dc is a supported convention.
func (dc DayCount) Valid() bool {
	switch dc {
	case Act360, Act365F, Thirty360, Thirty360E:
		return true
	default:
		return false
	}
}

// DayCountBetween returns the number of days between start and end under dc.
func DayCountBetween(start, end time.Time, dc DayCount) float64 {
	switch dc {
	case Thirty360:
		d1, d2 := start.Day(), end.Day()
		if d1 == 31 {
			d1 = 30
		}
		if d2 == 31 && d1 == 30 {
			d2 = 30
		}
		return thirtyDays(start, end, d1, d2)
	case Thirty360E:
		d1, d2 := start.Day(), end.Day()
		if d1 > 30 {
			d1 = 30
		}
		if d2 > 30 {
			d2 = 30
		}
		return thirtyDays(start, end, d1, d2)
	default:
		return Days(start, end)
	}
}

func thirtyDays(start, end time.Time, d1, d2 int) float64 {
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1) + 30*(m2-m1) + (d2 - d1))
}

// YearFraction computes year fraction between two dates using the specified day count convention.
// Unknown conventions fall back to ACT/365F.
func YearFraction(start, end time.Time, dc DayCount) float64 {
	switch dc {
	case Act360:
		return Days(start, end) / 360.0
	case Act365F:
		return Days(start, end) / 365.0
	case Thirty360, Thirty360E:
		return DayCountBetween(start, end, dc) / 360.0
	default:
		return Days(start, end) / 365.0
	}
}
