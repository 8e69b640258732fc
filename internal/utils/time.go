package contextutils

import (
	"time"
)

// DateLayout is the wire format for calendar dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// LoadLocationOrUTC resolves an IANA timezone name, falling back to UTC when the
// name is empty or unknown. The effective timezone name is returned alongside.
func LoadLocationOrUTC(timezone string) (*time.Location, string) {
	if timezone == "" {
		return time.UTC, "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC, "UTC"
	}
	return loc, timezone
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc. Errors are wrapped with
// "invalid date format".
func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	date, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, WrapError(err, "invalid date format")
	}
	return date, nil
}

// IsAfterDay reports whether date falls on a calendar day later than now, with both
// compared as local days in loc.
func IsAfterDay(date, now time.Time, loc *time.Location) bool {
	dy, dm, dd := date.In(loc).Date()
	ny, nm, nd := now.In(loc).Date()
	return time.Date(dy, dm, dd, 0, 0, 0, 0, loc).After(time.Date(ny, nm, nd, 0, 0, 0, 0, loc))
}
