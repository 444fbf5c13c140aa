package coerce

import (
	"fmt"
	"time"
)

// DateLayout is the remote "Month Day, Year" date format.
const DateLayout = "January 2, 2006"

// ParseDate parses a remote date string as a UTC instant. Dates without a
// year ("March 15") fall back to 1970.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err == nil {
		return t, nil
	}
	t, fallbackErr := time.ParseInLocation(DateLayout, s+", 1970", time.UTC)
	if fallbackErr != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, fallbackErr)
	}
	return t, nil
}
