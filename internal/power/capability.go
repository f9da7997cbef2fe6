// Package power holds OS sleep-prevention assertions.
package power

import (
	"errors"
	"fmt"
)

// Handle is the OS identifier of a created assertion.
type Handle uint32

// Kind names an assertion type understood by the OS power manager.
type Kind string

const (
	PreventUserIdleDisplaySleep Kind = "PreventUserIdleDisplaySleep"
	PreventDiskIdle             Kind = "PreventDiskIdle"
	PreventUserIdleSystemSleep  Kind = "PreventUserIdleSystemSleep"
	PreventSystemSleep          Kind = "PreventSystemSleep"
)

// DefaultKinds is the set of assertions held by a run, in creation order.
var DefaultKinds = []Kind{
	PreventUserIdleDisplaySleep,
	PreventDiskIdle,
	PreventUserIdleSystemSleep,
	PreventSystemSleep,
}

// ParseKind validates s against the known kinds.
func ParseKind(s string) (Kind, error) {
	for _, k := range DefaultKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown assertion kind %q", s)
}

// Assertion levels.
const (
	levelOff uint32 = 0
	levelOn  uint32 = 255
)

// statusNotFound is kIOReturnNotFound, returned when releasing an assertion
// that no longer exists.
const statusNotFound uint32 = 0xE00002C2

var (
	ErrCapabilityUnavailable = errors.New("power management framework unavailable")
	ErrSymbolNotFound        = errors.New("power management symbol not found")
	ErrAssertionCreate       = errors.New("failed to create assertion")
	ErrAssertionRelease      = errors.New("failed to release assertion")
)

// StatusError carries the non-zero status returned by the OS.
type StatusError struct {
	Op   string
	Kind Kind
	Code uint32
	Err  error
}

func (e *StatusError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s %s: status 0x%08X", e.Op, e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: status 0x%08X", e.Op, e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Capability creates and releases assertions. Each Capability owns its own
// binding to the OS framework; distinct instances may be used from
// different goroutines without coordination.
type Capability interface {
	// Create requests an assertion of the given kind at the on or off level.
	Create(kind Kind, active bool) (Handle, error)

	// DeclareUserActivity pulses a "user is active" assertion.
	DeclareUserActivity(active bool) (Handle, error)

	// Release drops the assertion. Releasing an already released handle
	// succeeds.
	Release(h Handle) error

	// Close drops the framework binding. Held assertions are not released.
	Close() error
}

// Open binds the OS power management framework. name labels every
// assertion created through the returned Capability.
// See iokit_darwin.go and iokit_other.go.
func Open(name string) (Capability, error) {
	return open(name)
}

func level(active bool) uint32 {
	if active {
		return levelOn
	}
	return levelOff
}

// ReleaseStatus maps the status returned by the OS for releasing h to an
// error. The not-found status means h is already released and maps to nil.
func ReleaseStatus(h Handle, code uint32) error {
	switch code {
	case 0, statusNotFound:
		return nil
	default:
		return &StatusError{Op: fmt.Sprintf("release assertion %d", h), Code: code, Err: ErrAssertionRelease}
	}
}
