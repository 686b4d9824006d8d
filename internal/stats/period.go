package stats

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPeriod is returned by ParsePeriod for tokens outside the closed
// period enumeration.
var ErrInvalidPeriod = errors.New("invalid period")

// Period is a symbolic look-back window ending now.
type Period string

const (
	PeriodWeek     Period = "1W"
	PeriodMonth    Period = "1M"
	PeriodQuarter  Period = "3M"
	PeriodHalfYear Period = "6M"
	PeriodYear     Period = "1Y"
	PeriodAll      Period = "ALL"
)

// DefaultPeriod is used by the transports when no period is given.
const DefaultPeriod = PeriodMonth

// Periods lists every period, shortest first.
var Periods = []Period{PeriodWeek, PeriodMonth, PeriodQuarter, PeriodHalfYear, PeriodYear, PeriodAll}

// ParsePeriod converts a token such as "3m" or "ALL".
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodHalfYear, PeriodYear, PeriodAll:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q (want one of 1W, 1M, 3M, 6M, 1Y, ALL)", ErrInvalidPeriod, s)
}

// Since returns the inclusive lower bound on started_at, or nil for PeriodAll.
// Month arithmetic uses calendar months in now's location.
func (p Period) Since(now time.Time) *time.Time {
	var t time.Time
	switch p {
	case PeriodWeek:
		t = now.AddDate(0, 0, -7)
	case PeriodMonth:
		t = now.AddDate(0, -1, 0)
	case PeriodQuarter:
		t = now.AddDate(0, -3, 0)
	case PeriodHalfYear:
		t = now.AddDate(0, -6, 0)
	case PeriodYear:
		t = now.AddDate(-1, 0, 0)
	default:
		return nil
	}
	return &t
}

// Midpoint returns the instant splitting the window into an early and a late
// half for trend detection. It is nil for PeriodAll, whose midpoint depends on
// the data (see allTimeMidpoint).
func (p Period) Midpoint(now time.Time) *time.Time {
	var t time.Time
	switch p {
	case PeriodWeek:
		t = now.AddDate(0, 0, -3)
	case PeriodMonth:
		t = now.AddDate(0, 0, -15)
	case PeriodQuarter:
		t = now.AddDate(0, -1, -15)
	case PeriodHalfYear:
		t = now.AddDate(0, -3, 0)
	case PeriodYear:
		t = now.AddDate(0, -6, 0)
	default:
		return nil
	}
	return &t
}

// allTimeMidpoint bisects [earliest, now].
func allTimeMidpoint(earliest, now time.Time) time.Time {
	return earliest.Add(now.Sub(earliest) / 2)
}
