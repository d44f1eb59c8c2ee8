// Package period resolves trailing time windows such as "24h" or "7d".
package period

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidFormat is returned for any window spec that is not <digits><h|d>.
var ErrInvalidFormat = errors.New("invalid period format")

var specPattern = regexp.MustCompile(`^(\d+)([hd])$`)

const maxHours = math.MaxInt64 / int64(time.Hour)

// Unit is the time unit of a window spec.
type Unit byte

const (
	Hour Unit = 'h'
	Day  Unit = 'd'
)

// Window is a parsed window spec.
type Window struct {
	Magnitude int
	Unit      Unit
}

// Parse validates spec and returns its magnitude and unit.
func Parse(spec string) (Window, error) {
	m := specPattern.FindStringSubmatch(spec)
	if m == nil {
		return Window{}, fmt.Errorf("%w: %q (expected a form like \"24h\" or \"7d\")", ErrInvalidFormat, spec)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, spec, err)
	}
	w := Window{Magnitude: n, Unit: Unit(m[2][0])}
	if w.Unit == Hour && int64(n) > maxHours {
		return Window{}, fmt.Errorf("%w: %q: magnitude out of range", ErrInvalidFormat, spec)
	}
	return w, nil
}

// Start returns the window start for a window ending at now.
// Days are calendar days, so a window crossing a DST change keeps the wall clock.
func (w Window) Start(now time.Time) time.Time {
	switch w.Unit {
	case Day:
		return now.AddDate(0, 0, -w.Magnitude)
	default:
		return now.Add(-time.Duration(w.Magnitude) * time.Hour)
	}
}

// String renders the window back into its spec form.
func (w Window) String() string {
	return strconv.Itoa(w.Magnitude) + string(w.Unit)
}

// Resolve parses spec and returns the start of the window ending at now.
func Resolve(spec string, now time.Time) (time.Time, error) {
	w, err := Parse(spec)
	if err != nil {
		return time.Time{}, err
	}
	return w.Start(now), nil
}
