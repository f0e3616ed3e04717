package models

import (
	"fmt"
	"time"
)

// dateLayout is the wire format for request dates.
const dateLayout = "2006-01-02"

// DateWindow is a half-open [Start, End) interval of calendar dates.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewWindow parses the optional raw date strings and applies defaults: end
// falls back to today, start to end minus lookbackDays. An explicit
// start >= end is rejected rather than passed through to the provider.
func NewWindow(rawStart, rawEnd string, lookbackDays int) (DateWindow, error) {
	return newWindowAt(rawStart, rawEnd, lookbackDays, time.Now().UTC())
}

// newWindowAt is the clock-injected implementation backing NewWindow.
func newWindowAt(rawStart, rawEnd string, lookbackDays int, now time.Time) (DateWindow, error) {
	end := now.Truncate(24 * time.Hour)
	if rawEnd != "" {
		parsed, err := time.Parse(dateLayout, rawEnd)
		if err != nil {
			return DateWindow{}, E(CodeInvalidWindow, fmt.Sprintf("date_end %q is not YYYY-MM-DD", rawEnd), err)
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -lookbackDays)
	if rawStart != "" {
		parsed, err := time.Parse(dateLayout, rawStart)
		if err != nil {
			return DateWindow{}, E(CodeInvalidWindow, fmt.Sprintf("date_start %q is not YYYY-MM-DD", rawStart), err)
		}
		start = parsed
	}

	if !start.Before(end) {
		return DateWindow{}, E(CodeInvalidWindow,
			fmt.Sprintf("date_start %s must be before date_end %s", start.Format(dateLayout), end.Format(dateLayout)), nil)
	}
	return DateWindow{Start: start, End: end}, nil
}

// StartDate returns the inclusive start formatted for the provider.
func (w DateWindow) StartDate() string { return w.Start.Format(dateLayout) }

// EndDate returns the exclusive end formatted for the provider.
func (w DateWindow) EndDate() string { return w.End.Format(dateLayout) }

// Days returns the window length in whole days.
func (w DateWindow) Days() int { return int(w.End.Sub(w.Start).Hours() / 24) }
