package curve

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/bondmodel/utils"
)

// TimeUnit of a tenor label.
type TimeUnit byte

const (
	Days   TimeUnit = 'D'
	Weeks  TimeUnit = 'W'
	Months TimeUnit = 'M'
	Years  TimeUnit = 'Y'
)

// Tenor is a period such as 3M or 10Y.
type Tenor struct {
	N    int
	Unit TimeUnit
}

func (t Tenor) String() string {
	return fmt.Sprintf("%d%c", t.N, t.Unit)
}

// ParseTenor converts tenor strings like "1W", "3M", "10Y" to a Tenor.
func ParseTenor(label string) (Tenor, error) {
	s := strings.TrimSpace(strings.ToUpper(label))
	if len(s) < 2 {
		return Tenor{}, fmt.Errorf("ParseTenor: invalid tenor %q", label)
	}
	unit := TimeUnit(s[len(s)-1])
	switch unit {
	case Days, Weeks, Months, Years:
	default:
		return Tenor{}, fmt.Errorf("ParseTenor: unknown unit in tenor %q", label)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return Tenor{}, fmt.Errorf("ParseTenor: invalid length in tenor %q", label)
	}
	return Tenor{N: n, Unit: unit}, nil
}

// AddTo returns d shifted by the tenor. Month and year tenors clamp to month end.
func (t Tenor) AddTo(d time.Time) time.Time {
	switch t.Unit {
	case Days:
		return d.AddDate(0, 0, t.N)
	case Weeks:
		return d.AddDate(0, 0, 7*t.N)
	case Months:
		return utils.AddMonth(d, t.N)
	case Years:
		return utils.AddMonth(d, 12*t.N)
	default:
		return d
	}
}

// Years returns the tenor as an approximate year fraction.
func (t Tenor) Years() float64 {
	switch t.Unit {
	case Days:
		return float64(t.N) / 365.0
	case Weeks:
		return float64(t.N) * 7.0 / 365.0
	case Months:
		return float64(t.N) / 12.0
	case Years:
		return float64(t.N)
	default:
		return 0
	}
}
