// Package duration parses the two duration forms accepted on the command line:
// a compact relative form such as "12h30m", and an absolute local datetime
// such as "2030-01-01T00:00:00".
package duration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

// Layout is the fixed absolute datetime layout.
const Layout = "2006-01-02T15:04:05"

var (
	ErrEmpty           = errors.New("empty duration")
	ErrLeadingZero     = errors.New("leading zero")
	ErrZeroMagnitude   = errors.New("zero magnitude")
	ErrUnitOrder       = errors.New("units must be in decreasing order")
	ErrMissingUnit     = errors.New("missing unit")
	ErrMissingNumber   = errors.New("unit without magnitude")
	ErrUnknownUnit     = errors.New("unknown unit")
	ErrOverflow        = errors.New("duration too large")
	ErrInvalidDatetime = errors.New("invalid datetime")
)

// ParseError reports a duration token that could not be parsed.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid duration %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Spec is either unbounded or a number of seconds relative to parse time.
type Spec struct {
	seconds uint64
	bounded bool
}

// Unbounded returns a Spec with no end.
func Unbounded() Spec { return Spec{} }

// Seconds returns a bounded Spec of n seconds.
func Seconds(n uint64) Spec { return Spec{seconds: n, bounded: true} }

func (s Spec) IsBounded() bool { return s.bounded }

// Seconds returns the bounded length in seconds, zero when unbounded.
func (s Spec) Seconds() uint64 { return s.seconds }

// Duration converts a bounded Spec to a time.Duration, saturating at the
// largest representable value.
func (s Spec) Duration() time.Duration {
	if s.seconds > uint64(math.MaxInt64/int64(time.Second)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(s.seconds) * time.Second
}

func (s Spec) String() string {
	if !s.bounded {
		return "unbounded"
	}
	return s.Duration().String()
}

var unitFactors = map[byte]uint64{
	'd': 24 * 60 * 60,
	'h': 60 * 60,
	'm': 60,
	's': 1,
}

// IsAbsolute reports whether token has the shape of the absolute form:
// exactly 19 bytes with a '-' at offset 4.
func IsAbsolute(token string) bool {
	return len(token) == len(Layout) && token[4] == '-'
}

// Parse selects the grammar by shape and returns the resulting Spec.
// Absolute datetimes are interpreted in now's location.
func Parse(token string, now time.Time) (Spec, error) {
	if IsAbsolute(token) {
		n, err := ParseAbsolute(token, now)
		if err != nil {
			return Spec{}, err
		}
		return Seconds(n), nil
	}
	n, err := ParseRelative(token)
	if err != nil {
		return Spec{}, err
	}
	return Seconds(n), nil
}

// ParseRelative parses a sequence of <digits><unit> groups, units d, h, m
// and s, in strictly decreasing order.
func ParseRelative(token string) (uint64, error) {
	if token == "" {
		return 0, &ParseError{Input: token, Err: ErrEmpty}
	}

	var (
		total     uint64
		start     = 0
		maxFactor = uint64(math.MaxUint64)
	)
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c >= '0' && c <= '9' {
			continue
		}

		factor, ok := unitFactors[c]
		if !ok {
			r, _ := utf8.DecodeRuneInString(token[i:])
			return 0, &ParseError{Input: token, Err: fmt.Errorf("%w %q", ErrUnknownUnit, r)}
		}
		digits := token[start:i]
		if digits == "" {
			return 0, &ParseError{Input: token, Err: ErrMissingNumber}
		}
		if len(digits) > 1 && digits[0] == '0' {
			return 0, &ParseError{Input: token, Err: ErrLeadingZero}
		}
		n, err := strconv.ParseUint(digits, 10, 64)
		if err != nil {
			return 0, &ParseError{Input: token, Err: ErrOverflow}
		}
		if n == 0 {
			return 0, &ParseError{Input: token, Err: ErrZeroMagnitude}
		}
		if factor >= maxFactor {
			return 0, &ParseError{Input: token, Err: ErrUnitOrder}
		}
		maxFactor = factor

		if n > (math.MaxUint64-total)/factor {
			return 0, &ParseError{Input: token, Err: ErrOverflow}
		}
		total += n * factor
		start = i + 1
	}

	if start != len(token) {
		return 0, &ParseError{Input: token, Err: ErrMissingUnit}
	}
	return total, nil
}

// ParseAbsolute parses token with Layout in now's location and returns the
// whole seconds from now until then, or zero if it is already past.
func ParseAbsolute(token string, now time.Time) (uint64, error) {
	target, err := time.ParseInLocation(Layout, token, now.Location())
	if err != nil {
		return 0, &ParseError{Input: token, Err: fmt.Errorf("%w: %v", ErrInvalidDatetime, err)}
	}
	secs := int64(target.Sub(now) / time.Second)
	if secs < 0 {
		return 0, nil
	}
	return uint64(secs), nil
}

// FormatAbsolute renders t in the absolute form accepted by Parse.
func FormatAbsolute(t time.Time) string {
	return t.Format(Layout)
}

// Deadline returns now advanced by seconds.
func Deadline(now time.Time, seconds uint64) time.Time {
	return now.Add(Seconds(seconds).Duration())
}
