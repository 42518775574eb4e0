package tasks

import (
	"fmt"
	"time"
)

// DateLayout is the layout of a date key.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date key.
func ParseDate(key string) (time.Time, error) {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, key)
	}
	return t, nil
}

// ValidDate reports whether key is a valid date key.
func ValidDate(key string) bool {
	_, err := ParseDate(key)
	return err == nil
}

// FormatDate formats t as a date key.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
