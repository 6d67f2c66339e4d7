package queryir

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value represents a literal value in a filter expression.
//
// This is a sealed interface - only types in this package implement it.
// Literals arrive from JSON as strings or numbers; Date values are produced
// by the task date macro expansion and by autocasting against date-typed
// attributes in the SQL compiler.
type Value interface {
	valueNode() // Marker method - seals interface to this package
}

// String is a string literal.
type String string

func (String) valueNode() {}

// Int is an integer literal.
type Int int64

func (Int) valueNode() {}

// Float is a floating point literal.
type Float float64

func (Float) valueNode() {}

// Date is a calendar date literal, stored without a timezone.
type Date struct {
	Year  int
	Month int
	Day   int
}

func (Date) valueNode() {}

// String formats the date in ISO form, the storage representation used for
// all date columns.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Valid reports whether the date names a real calendar day.
// time.Date normalizes out-of-range components (February 30 becomes
// March 2), so validity is checked by round-trip.
func (d Date) Valid() bool {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	y, m, day := t.Date()
	return y == d.Year && int(m) == d.Month && day == d.Day
}

// ParseDate parses a MM/DD/YYYY date literal.
//
// Single-digit month and day parts are accepted ("2/3/2020"). Literals with
// the wrong number of parts, non-numeric parts, or naming a calendar-invalid
// day are rejected. The field name is used only for the error message.
func ParseDate(field, literal string) (Date, error) {
	parts := strings.Split(literal, "/")
	if len(parts) != 3 {
		return Date{}, NewBadDateError(field)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Date{}, NewBadDateError(field)
		}
		nums[i] = n
	}
	d := Date{Year: nums[2], Month: nums[0], Day: nums[1]}
	if !d.Valid() {
		return Date{}, NewBadDateError(field)
	}
	return d, nil
}

// Param converts a Value to a Go native type for use as a SQL parameter.
// Dates use their ISO string form so that lexicographic comparison in the
// store matches chronological order.
func Param(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Date:
		return val.String()
	default:
		return nil
	}
}
