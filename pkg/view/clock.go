// Package view turns backend payloads into display rows. It holds the
// presentation rules shared by the desktop app and the CLI and knows nothing
// about either.
package view

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // display zones must resolve on hosts without a zoneinfo database

	"github.com/NicolasHaas/medscribe/pkg/model"
)

// DefaultZone is the display timezone used when settings name none.
const DefaultZone = "Asia/Kolkata"

const (
	dateLayout = "2 Jan 2006"
	timeLayout = "03:04 pm"
)

// Clock formats backend timestamps in the viewer's timezone.
type Clock struct {
	Location *time.Location
}

// NewClock loads the named zone; "" selects DefaultZone.
func NewClock(zone string) (Clock, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Clock{}, fmt.Errorf("view: load zone %q: %w", zone, err)
	}
	return Clock{Location: loc}, nil
}

// ParseServerTime parses a backend timestamp. The backend stores UTC but
// omits the zone, so a value without one is read as UTC.
func ParseServerTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s+"Z")
	if err != nil {
		return time.Time{}, fmt.Errorf("view: parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func (c Clock) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Date formats the calendar date, e.g. "1 May 2024".
func (c Clock) Date(t time.Time) string {
	return t.In(c.loc()).Format(dateLayout)
}

// Time formats the wall clock time, e.g. "03:50 pm".
func (c Clock) Time(t time.Time) string {
	return t.In(c.loc()).Format(timeLayout)
}

// Stamp formats a raw backend timestamp as date and time. Unparseable input
// is returned verbatim as the date with an empty time.
func (c Clock) Stamp(ts model.Timestamp) (date, clock string) {
	t, err := ParseServerTime(string(ts))
	if err != nil {
		return string(ts), ""
	}
	return c.Date(t), c.Time(t)
}
