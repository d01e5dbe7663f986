package core

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Calendar dates ("YYYY-MM-DD") are parsed by splitting into (year, month, day)
// integers and building a local-time date. Parsing them as ISO instants shifts
// them into the previous day in negative-UTC-offset timezones.

const dateLayout = "2006-01-02"

var (
	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	minDateYear       = 1900
	maxDateYearsAhead = 10

	errDateFormat   = "invalid format; expected YYYY-MM-DD"
	errDateMonth    = "month is out of range"
	errDateDay      = "day is out of range"
	errDateNotReal  = "not a valid calendar date"
	errDateYear     = fmt.Sprintf("year must be %d or later", minDateYear)
	errDateTooAhead = fmt.Sprintf("date cannot be more than %d years ahead", maxDateYearsAhead)
)

// ParseDate parses a YYYY-MM-DD string as a local calendar date.
func ParseDate(value string) (time.Time, error) {
	if !dateRegex.MatchString(value) {
		return time.Time{}, errors.New(errDateFormat)
	}
	y, _ := strconv.Atoi(value[:4])
	m, _ := strconv.Atoi(value[5:7])
	d, _ := strconv.Atoi(value[8:])

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, errors.New(errDateNotReal)
	}
	return t, nil
}

// FormatDate formats `t` as a YYYY-MM-DD string.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ValidateDate checks that `value` is a valid, plausible YYYY-MM-DD calendar date.
// All failures are returned as a *ValidationError on the "date" field; dates up to
// exactly maxDateYearsAhead years after `now` are accepted.
func ValidateDate(value string, now ...time.Time) error {
	ref := time.Now()
	if len(now) > 0 {
		ref = now[0]
	}
	fail := func(reason string) error {
		return NewValidationError(errors.New(reason), FieldError{Field: "date", Error: reason})
	}

	if !dateRegex.MatchString(value) {
		return fail(errDateFormat)
	}
	y, _ := strconv.Atoi(value[:4])
	m, _ := strconv.Atoi(value[5:7])
	d, _ := strconv.Atoi(value[8:])

	if m < 1 || m > 12 {
		return fail(errDateMonth)
	}
	if d < 1 || d > 31 {
		return fail(errDateDay)
	}

	// round-trip through local-time components; catches Feb-30-style dates
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return fail(errDateNotReal)
	}

	if y < minDateYear || y > ref.Year()+maxDateYearsAhead {
		return fail(errDateYear)
	}
	limit := time.Date(ref.Year()+maxDateYearsAhead, ref.Month(), ref.Day(), 0, 0, 0, 0, time.Local)
	if t.After(limit) {
		return fail(errDateTooAhead)
	}
	return nil
}
