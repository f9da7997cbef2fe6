package power

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Plan lists the assertions a run acquires.
type Plan struct {
	Kinds        []Kind
	UserActivity bool
}

// DefaultPlan holds every default kind plus one user-activity pulse.
func DefaultPlan() Plan {
	return Plan{Kinds: append([]Kind(nil), DefaultKinds...), UserActivity: true}
}

// Set is the group of assertions acquired for one run. It moves from held to
// released exactly once, whichever caller gets there first.
type Set struct {
	handles  []Handle
	released atomic.Bool
	freed    atomic.Int64
}

// Acquire creates every assertion in plan through c. If any creation fails,
// the assertions already created are released before returning.
func Acquire(c Capability, plan Plan) (*Set, error) {
	s := &Set{}
	for _, kind := range plan.Kinds {
		h, err := c.Create(kind, true)
		if err != nil {
			return nil, s.rollback(c, err)
		}
		s.handles = append(s.handles, h)
	}
	if plan.UserActivity {
		h, err := c.DeclareUserActivity(true)
		if err != nil {
			return nil, s.rollback(c, err)
		}
		s.handles = append(s.handles, h)
	}
	return s, nil
}

func (s *Set) rollback(c Capability, cause error) error {
	if _, err := s.Release(c); err != nil {
		return errors.Join(cause, fmt.Errorf("rollback: %w", err))
	}
	return cause
}

// Handles returns a copy of the held handle identifiers.
func (s *Set) Handles() []Handle {
	return append([]Handle(nil), s.handles...)
}

// Len returns the number of assertions in the set.
func (s *Set) Len() int { return len(s.handles) }

// Released reports whether the set has left the held state.
func (s *Set) Released() bool { return s.released.Load() }

// Freed returns how many handles the winning Release call released without
// error.
func (s *Set) Freed() int { return int(s.freed.Load()) }

// Release releases every handle through c. Only the first call does any
// work and reports true; later calls return false and a nil error. Every
// handle is attempted once, and all failures are joined.
func (s *Set) Release(c Capability) (bool, error) {
	if !s.released.CompareAndSwap(false, true) {
		return false, nil
	}
	var errs []error
	for _, h := range s.handles {
		if err := c.Release(h); err != nil {
			errs = append(errs, err)
			continue
		}
		s.freed.Add(1)
	}
	return true, errors.Join(errs...)
}
